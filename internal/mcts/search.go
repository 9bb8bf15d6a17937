package mcts

import (
	"context"
	"math"

	"github.com/kestrelchess/kestrel/internal/board"
	"golang.org/x/sync/errgroup"
)

// Tree owns the shared root and the options that govern selection.
type Tree struct {
	root *Node
	opts Options
}

// NewTree builds a fresh tree rooted at pos.
func NewTree(pos *board.Position, opts Options) *Tree {
	return &Tree{root: NewNode(nil, pos, ""), opts: opts}
}

// Root returns the tree's current root node.
func (t *Tree) Root() *Node { return t.root }

// Rebase attempts to reuse the subtree of a previous search: if one of the
// current root's children corresponds to pos, that child becomes the new
// root (its accumulated statistics carry over); otherwise a fresh root is
// built from scratch. This is the tree's only response to SetPosition
// arriving after a prior search — statistics only carry over when the new
// position is reachable in one ply from the old root.
func (t *Tree) Rebase(pos *board.Position) {
	if t.root != nil {
		for _, c := range t.root.Children() {
			if c.position.Hash == pos.Hash && c.position.Equal(pos) {
				c.parent = nil
				t.root = c
				return
			}
		}
	}
	t.root = NewNode(nil, pos, "")
}

// selectionValue returns the value of child from the perspective of the
// side to move at parent, plus an exploration bonus. Higher is always
// better for whichever side is selecting.
func (t *Tree) selectionValue(parent, child *Node, parentVisits uint64) float64 {
	value := child.Eval()
	if parent.position.SideToMove == board.Black {
		value = 1.0 - value
	}

	// Weighting descending threads by 50 (rather than 1) makes a subtree
	// already being worked by another goroutine look far more visited than
	// it really is, repelling concurrent selections from piling onto it.
	childVisits := child.Visits() + 50*uint64(child.descendingThreads())
	exploration := t.opts.MCTSExplore * math.Sqrt(math.Log(float64(parentVisits+1))/float64(1+childVisits))

	return value + exploration
}

// selectChild picks the highest-scoring child of n under selectionValue,
// breaking ties by the first child encountered (stable, avoids expensive
// tie-break machinery under contention).
func (t *Tree) selectChild(n *Node) *Node {
	children := n.Children()
	if len(children) == 0 {
		return nil
	}

	parentVisits := n.Visits()
	best := children[0]
	bestScore := t.selectionValue(n, best, parentVisits)
	for _, c := range children[1:] {
		s := t.selectionValue(n, c, parentVisits)
		if s > bestScore {
			best, bestScore = c, s
		}
	}
	return best
}

// Playout runs one selection/expansion/backpropagation iteration starting
// at the root and returns the root's eval as recomputed by that
// backpropagation, for callers that want to observe search progress.
func (t *Tree) Playout() float64 {
	path := []*Node{t.root}
	n := t.root

	for {
		n.beginDescent()
		if n.IsTerminal() {
			break
		}
		if !n.hasChildren() {
			if n.TryExpand() {
				break
			}
			// Lost the expansion race or a sibling is still populating
			// children; treat as a leaf for this iteration.
			break
		}
		child := t.selectChild(n)
		if child == nil {
			break
		}
		n = child
		path = append(path, n)
	}

	var leafEval float64
	for i := len(path) - 1; i >= 0; i-- {
		leafEval = path[i].recordVisit()
		path[i].endDescent()
	}
	return leafEval
}

// RunWorkers launches opts.Threads goroutines, each repeatedly calling
// Playout until ctx is cancelled, and waits for them all to return. The
// workers share t: concurrent Playout calls are safe by construction
// (per-node RWMutex on children, atomics on everything else).
func (t *Tree) RunWorkers(ctx context.Context) error {
	threads := t.opts.Threads
	if threads < 1 {
		threads = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < threads; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				default:
					t.Playout()
				}
			}
		})
	}
	return g.Wait()
}

// BestMove returns the root's comparator-maximal child (see Better): a
// proven forced mate always wins out over an unproven line regardless of
// visit count, a proven loss is only picked when every line loses, and
// among non-terminal siblings the most-visited (the conventional MCTS
// robust-child choice) wins. It returns "" if the root has no children,
// which happens before the root is first expanded or when the root itself
// is terminal.
func (t *Tree) BestMove() (move string, ponder string) {
	children := t.root.Children()
	if len(children) == 0 {
		return "", ""
	}

	white := t.root.position.SideToMove == board.White
	best := bestChild(white, children)

	move = best.move
	if grandchildren := best.Children(); len(grandchildren) > 0 {
		ponder = bestChild(best.position.SideToMove == board.White, grandchildren).move
	}
	return move, ponder
}
