// Package mcts implements the engine's search: a tree of positions shared
// across worker goroutines, grown by repeated selection/expansion/
// backpropagation passes, and a time- or node-budgeted control loop that
// decides when to stop and which root move to report.
package mcts

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/kestrelchess/kestrel/internal/board"
	"github.com/kestrelchess/kestrel/internal/eval"
)

// Terminal classifies why a node has no children of its own to expand.
type Terminal int32

const (
	NotTerminal Terminal = iota
	TerminalDraw
	TerminalWhiteWin
	TerminalBlackWin
)

// Node is one position in the search tree. A Node's position and move are
// fixed at construction; everything else (children, visit count, eval,
// terminal status, max depth below) is mutated concurrently by search
// workers and so is guarded by a mutex (children) or held in atomics
// (everything else), following the per-node-lock pattern common to
// multithreaded tree search.
type Node struct {
	parent   *Node
	position *board.Position
	move     string // long algebraic notation of the move from parent, "" at the root

	mu       sync.RWMutex
	children []*Node

	visits   atomic.Uint64
	evalBits atomic.Uint64 // math.Float64bits of the node's current eval, White's win probability
	maxDepth atomic.Uint64
	terminal atomic.Int32
	mateDist atomic.Int32 // plies to mate, meaningful only when terminal is WhiteWin/BlackWin

	descending atomic.Int32 // threads currently below this node, selected but not yet backpropagated
}

// NewNode constructs a node for pos, computing its static evaluation and
// terminal status immediately. A node classified terminal here (checkmate
// or draw) stays so; a node that starts NotTerminal can later be marked a
// proven win, draw, or loss by propagateTerminal during backpropagation.
func NewNode(parent *Node, pos *board.Position, move string) *Node {
	n := &Node{parent: parent, position: pos, move: move}

	term := classify(pos)
	n.terminal.Store(int32(term))

	var e float64
	switch term {
	case TerminalWhiteWin:
		e = 1.0
	case TerminalBlackWin:
		e = 0.0
	case TerminalDraw:
		e = 0.5
	default:
		e = eval.CPToEval(eval.Evaluate(pos))
	}
	n.evalBits.Store(math.Float64bits(e))

	return n
}

func classify(pos *board.Position) Terminal {
	if pos.IsCheckmate() {
		if pos.SideToMove == board.White {
			return TerminalBlackWin
		}
		return TerminalWhiteWin
	}
	if pos.IsDraw() {
		return TerminalDraw
	}
	return NotTerminal
}

func (n *Node) Parent() *Node             { return n.parent }
func (n *Node) Position() *board.Position { return n.position }
func (n *Node) Move() string              { return n.move }
func (n *Node) Visits() uint64             { return n.visits.Load() }
func (n *Node) MaxDepth() uint64           { return n.maxDepth.Load() }
func (n *Node) Eval() float64              { return math.Float64frombits(n.evalBits.Load()) }
func (n *Node) Terminal() Terminal         { return Terminal(n.terminal.Load()) }
func (n *Node) IsTerminal() bool           { return n.Terminal() != NotTerminal }

// MateDistance returns the number of plies to forced mate recorded at this
// node. It is only meaningful when Terminal() is TerminalWhiteWin or
// TerminalBlackWin; a mate-in-0 leaf (the side to move is already mated)
// reports 0.
func (n *Node) MateDistance() int32 { return n.mateDist.Load() }

// Children returns a snapshot of the node's current children. Callers must
// not retain the slice across a concurrent Expand.
func (n *Node) Children() []*Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

func (n *Node) hasChildren() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.children) > 0
}

// TryExpand populates n's children from its position's legal successors,
// unless n is terminal, already expanded, or another worker currently
// holds the expansion lock. It returns false without blocking in the
// contended or already-expanded case, so a worker that loses the race
// falls back to treating n as a leaf for this iteration rather than
// stalling behind whoever is expanding it.
func (n *Node) TryExpand() bool {
	if n.IsTerminal() {
		return false
	}
	if n.hasChildren() {
		return false
	}
	if !n.mu.TryLock() {
		return false
	}
	defer n.mu.Unlock()

	if len(n.children) > 0 {
		return false
	}

	successors := n.position.LegalSuccessors()
	children := make([]*Node, len(successors))
	for i, s := range successors {
		children[i] = NewNode(n, s.Position, s.Move)
	}
	n.children = children
	return true
}

// beginDescent marks a worker as having selected through n but not yet
// backpropagated, so sibling workers selecting concurrently see n as
// slightly more visited than its committed Visits() would suggest — the
// standard virtual-loss technique for keeping parallel selections from
// piling onto the single most promising child.
func (n *Node) beginDescent() { n.descending.Add(1) }
func (n *Node) endDescent()   { n.descending.Add(-1) }
func (n *Node) descendingThreads() int32 { return n.descending.Load() }

// recordVisit is called during backpropagation: it increments the visit
// counter, recomputes eval and max-depth from the current children (for
// internal nodes) or leaves them as computed at construction (for leaves),
// and returns the node's updated eval for the parent's own recomputation.
func (n *Node) recordVisit() float64 {
	n.visits.Add(1)

	if n.IsTerminal() {
		return n.Eval()
	}

	children := n.Children()
	if len(children) == 0 {
		return n.Eval()
	}

	white := n.position.SideToMove == board.White
	best := children[0].Eval()
	var maxDepth uint64
	for _, c := range children {
		e := c.Eval()
		if white {
			if e > best {
				best = e
			}
		} else {
			if e < best {
				best = e
			}
		}
		if d := c.MaxDepth() + 1; d > maxDepth {
			maxDepth = d
		}
	}

	n.evalBits.Store(math.Float64bits(best))
	n.maxDepth.Store(maxDepth)
	n.propagateTerminal(children, white)
	return best
}

// propagateTerminal recomputes n's terminal classification from its
// children's, implementing the backpropagation rule: a side-to-move node
// is a forced win the moment any child is a win for that side (preferring
// the shortest such mate), a forced draw once every child is resolved to
// either a draw or a loss with at least one draw among them, and a forced
// loss once every child is resolved as a loss (preferring the longest,
// i.e. most delayed, such loss). While any child remains unresolved and
// no forced win exists, n stays NotTerminal. Children's own terminal
// status only ever gains information over time, so repeated calls
// converge rather than oscillate.
func (n *Node) propagateTerminal(children []*Node, white bool) {
	winTerm, loseTerm := TerminalWhiteWin, TerminalBlackWin
	if !white {
		winTerm, loseTerm = TerminalBlackWin, TerminalWhiteWin
	}

	var winCount, drawCount, loseCount, otherCount int
	var minWinDist, maxLoseDist int32

	for _, c := range children {
		switch c.Terminal() {
		case winTerm:
			if d := c.MateDistance() + 1; winCount == 0 || d < minWinDist {
				minWinDist = d
			}
			winCount++
		case TerminalDraw:
			drawCount++
		case loseTerm:
			if d := c.MateDistance() + 1; loseCount == 0 || d > maxLoseDist {
				maxLoseDist = d
			}
			loseCount++
		default:
			otherCount++
		}
	}

	switch {
	case winCount > 0:
		n.terminal.Store(int32(winTerm))
		n.mateDist.Store(minWinDist)
	case otherCount == 0 && drawCount > 0:
		n.terminal.Store(int32(TerminalDraw))
	case otherCount == 0 && loseCount == len(children):
		n.terminal.Store(int32(loseTerm))
		n.mateDist.Store(maxLoseDist)
	}
}
