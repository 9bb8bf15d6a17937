package mcts

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/kestrelchess/kestrel/internal/board"
)

// Limits describes the search budget a Go call was given: the five shapes
// the external contract allows (fixed move time, clock-based time
// control, node count, depth/max-depth-below proxy, or infinite/ponder),
// in the same field layout as hailam-chessplay's UCILimits.
type Limits struct {
	Time      [2]time.Duration // remaining time for white, black
	Inc       [2]time.Duration // increment per move for white, black
	MovesToGo int              // moves until next time control; 0 means sudden death
	MoveTime  time.Duration    // fixed time for this move, overrides clock-based allocation
	Depth     int              // stop once the tree's max depth below root reaches this
	Nodes     uint64           // stop once total playouts reach this
	Infinite  bool             // search until Stop is called
}

// TimeManager turns Limits into a concrete optimum/maximum time budget for
// one move: spend the clock evenly across an estimated number of moves
// remaining plus most of the increment, and never risk more than a
// bounded multiple of that budget or a safety-margined fraction of the
// clock. The moves-to-go estimate itself follows from how confident the
// current root evaluation is, rather than from ply: a position the tree
// already judges close to decisive assumes fewer moves remain until
// something changes, while a balanced position budgets for a long game
// (see the movestogo_estimate decision).
type TimeManager struct {
	optimum time.Duration
	maximum time.Duration
	start   time.Time
}

// estimateMovesToGo returns a sudden-death moves-to-go estimate that is
// monotone-decreasing in the root's distance from an even eval (0.5): a
// decisive position (eval near 0 or 1) assumes the game resolves sooner,
// a balanced one budgets as if up to 50 moves remain.
func estimateMovesToGo(eval float64) int {
	confidence := math.Abs(eval - 0.5) // in [0, 0.5]
	mtg := 50 - int(80*confidence)
	if mtg < 10 {
		mtg = 10
	}
	if mtg > 50 {
		mtg = 50
	}
	return mtg
}

// speedFactor converts the Move_Speed option (1..100, 50 neutral) into the
// multiplier spec.md §4.7 applies to the per-move time share:
// 4^((Move_Speed-50)/50). A larger Move_Speed divides the share by a
// larger factor, spending less time and playing faster; a smaller one
// divides by less than 1, spending more.
func speedFactor(moveSpeed int) float64 {
	return math.Pow(4, float64(moveSpeed-50)/50)
}

// Init computes the optimum and maximum time for a move given limits, the
// side to move, the overhead reserved against communication lag, the
// tree's current root evaluation (used only to estimate moves-to-go in
// sudden-death time controls; ignored otherwise), and the Move_Speed
// option.
func (tm *TimeManager) Init(limits Limits, us board.Color, moveOverhead time.Duration, rootEval float64, moveSpeed int) {
	tm.start = time.Now()

	if limits.MoveTime > 0 {
		budget := limits.MoveTime - moveOverhead
		if budget < 10*time.Millisecond {
			budget = 10 * time.Millisecond
		}
		tm.optimum = budget
		tm.maximum = budget
		return
	}

	if limits.Infinite || (limits.Time[us] == 0 && limits.MoveTime == 0) {
		tm.optimum = time.Hour
		tm.maximum = time.Hour
		return
	}

	timeLeft := limits.Time[us]
	inc := limits.Inc[us]

	mtg := limits.MovesToGo
	if mtg == 0 {
		mtg = estimateMovesToGo(rootEval)
	}

	share := time.Duration(float64(timeLeft/time.Duration(mtg)) / speedFactor(moveSpeed))
	baseTime := share + inc*9/10
	if baseTime < 0 {
		baseTime = 0
	}

	tm.optimum = baseTime

	maxFromOptimum := tm.optimum * 5
	maxFromRemaining := timeLeft * 8 / 10
	if maxFromOptimum < maxFromRemaining {
		tm.maximum = maxFromOptimum
	} else {
		tm.maximum = maxFromRemaining
	}

	safetyMargin := timeLeft * 95 / 100
	if tm.maximum > safetyMargin {
		tm.maximum = safetyMargin
	}

	tm.optimum -= moveOverhead
	tm.maximum -= moveOverhead

	if tm.optimum < 10*time.Millisecond {
		tm.optimum = 10 * time.Millisecond
	}
	if tm.maximum < 50*time.Millisecond {
		tm.maximum = 50 * time.Millisecond
	}
}

func (tm *TimeManager) Elapsed() time.Duration     { return time.Since(tm.start) }
func (tm *TimeManager) OptimumTime() time.Duration { return tm.optimum }
func (tm *TimeManager) MaximumTime() time.Duration { return tm.maximum }
func (tm *TimeManager) PastOptimum() bool          { return tm.Elapsed() >= tm.optimum }

// BytesPerNode approximates a tree node's memory footprint (position,
// child slice header, atomics, mutex) for translating the MCTS_Hash
// option's megabyte budget into a node-count ceiling.
const BytesPerNode = 880

// NodeBudget converts a megabyte hash-size budget into an approximate
// maximum node count.
func NodeBudget(hashMB int) uint64 {
	return uint64(hashMB) * 1024 * 1024 / BytesPerNode
}

// Controller drives one search to completion: it runs tree workers until a
// stop predicate fires (time, node count, depth, external Stop, or the
// root becoming terminal) and reports the chosen move.
type Controller struct {
	tree    *Tree
	limits  Limits
	opts    Options
	timeMan TimeManager

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewController builds a controller around an already-built tree. stopCh is
// created here, synchronously, rather than inside Run: a caller is free to
// publish the Controller (e.g. so a concurrent Stop call can find it) before
// Run ever gets to execute, and Stop must not silently no-op just because
// Run hasn't reached the point of setting up its cancellation plumbing yet.
func NewController(tree *Tree, limits Limits, opts Options) *Controller {
	return &Controller{tree: tree, limits: limits, opts: opts, stopCh: make(chan struct{})}
}

// Run starts the tree's workers and blocks until the stop predicate fires
// or the caller cancels ctx (e.g. a protocol-level Stop). It returns the
// chosen best move and ponder move.
func (c *Controller) Run(ctx context.Context) (best, ponder string) {
	// Workers read Threads and MCTS_Explore from the tree, so hand it this
	// search's options snapshot before any of them start.
	c.tree.opts = c.opts
	c.timeMan.Init(c.limits, c.tree.root.position.SideToMove, time.Duration(c.opts.MoveOverhead)*time.Millisecond, c.tree.root.Eval(), c.opts.MoveSpeed)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-c.stopCh:
			cancel()
		case <-runCtx.Done():
		}
	}()

	nodeBudget := NodeBudget(c.opts.MCTSHash)

	done := make(chan struct{})
	go func() {
		_ = c.tree.RunWorkers(runCtx)
		close(done)
	}()

	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-runCtx.Done():
			<-done
			m, p := c.tree.BestMove()
			return m, p
		case <-ticker.C:
			if c.shouldStop(nodeBudget) {
				cancel()
			}
		}
	}
}

// Stop requests an immediate end to the running search, as if the
// external contract's Stop call had arrived. Safe to call before, during,
// or after Run, and more than once.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

func (c *Controller) shouldStop(nodeBudget uint64) bool {
	if c.tree.root.IsTerminal() {
		return true
	}

	children := c.tree.root.Children()
	if len(children) == 1 {
		return true // forced move
	}
	if len(children) > 1 && allTerminal(children) {
		return true
	}

	if c.limits.Depth > 0 && c.tree.root.MaxDepth() >= uint64(c.limits.Depth) {
		return true
	}
	if c.limits.Nodes > 0 && c.tree.root.Visits() >= c.limits.Nodes {
		return true
	}
	if nodeBudget > 0 && c.tree.root.Visits() >= nodeBudget {
		return true
	}
	if c.limits.Infinite {
		return false
	}
	return c.timeMan.Elapsed() >= c.allocatedTime(children)
}

func allTerminal(children []*Node) bool {
	for _, c := range children {
		if !c.IsTerminal() {
			return false
		}
	}
	return true
}

// instabilityMargin is how close (in win-probability terms, the mover's
// perspective) the top two root children must be before the search is
// considered unsettled.
const instabilityMargin = 0.02

// allocatedTime returns the deadline the running search should respect:
// normally the time manager's optimum, but extended up to 3x (never past
// the time manager's safety-margined maximum) when the top two root
// children are too close to call, or when the current best line is only a
// draw while a decisive alternative remains live — spec.md §4.7's
// instability-driven time extension.
func (c *Controller) allocatedTime(children []*Node) time.Duration {
	allowed := c.timeMan.OptimumTime()
	if c.isStable(children) {
		return allowed
	}
	extended := allowed * 3
	if max := c.timeMan.MaximumTime(); extended > max {
		extended = max
	}
	return extended
}

func (c *Controller) isStable(children []*Node) bool {
	if len(children) < 2 {
		return true
	}
	white := c.tree.root.position.SideToMove == board.White

	top, second := topTwo(white, children)
	if second == nil {
		return true
	}

	if top.Terminal() == TerminalDraw && !second.IsTerminal() && sideValue(white, second.Eval()) > 0.5+instabilityMargin {
		return false
	}

	return math.Abs(sideValue(white, top.Eval())-sideValue(white, second.Eval())) >= instabilityMargin
}

// topTwo returns the Better-maximal and second-best children among
// children, from the mover's (white) perspective.
func topTwo(white bool, children []*Node) (best, second *Node) {
	best = bestChild(white, children)
	for _, c := range children {
		if c == best {
			continue
		}
		if second == nil || Better(white, c, second) {
			second = c
		}
	}
	return best, second
}
