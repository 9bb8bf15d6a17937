package mcts

import (
	"log"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/kestrelchess/kestrel/internal/board"
	"github.com/kestrelchess/kestrel/internal/eval"
)

// StatusLine is one ranked principal variation reported during a search, in
// the shape of a UCI "info" line: a rank among the MultiPV lines requested,
// the shared depth/node/time counters, a score (centipawns, or a signed
// mate distance once the line is a proven forced mate), and the move
// sequence leading there.
type StatusLine struct {
	MultiPV  int // 1-based rank among requested lines
	Elapsed  time.Duration
	Nodes    uint64
	NPS      uint64
	Depth    uint64
	SelDepth uint64  // reported equal to Depth; the tree keeps no separate quiescence depth
	RootEval float64 // root's White-win probability, independent of rank
	ScoreCP  int
	Mate     int // signed moves-to-mate from the mover's perspective; meaningful only if IsMate
	IsMate   bool
	PV       []string

	BestMove   string
	PonderMove string
}

// Snapshot reads the tree's current aggregate state into up to multiPV
// StatusLines, one per root child ranked by Better (see compare.go), most
// promising first. multiPV is clamped to the number of root children
// actually available.
func (t *Tree) Snapshot(elapsed time.Duration, multiPV int) []StatusLine {
	nodes := t.root.Visits()
	var nps uint64
	if elapsed > 0 {
		nps = uint64(float64(nodes) / elapsed.Seconds())
	}
	depth := t.root.MaxDepth()
	best, ponder := t.BestMove()

	white := t.root.position.SideToMove == board.White
	children := t.root.Children()
	ranked := topN(white, children, multiPV)

	lines := make([]StatusLine, len(ranked))
	for i, c := range ranked {
		cp, mate, isMate := scoreFor(white, c)
		pv := append([]string{c.move}, PV(c)...)
		lines[i] = StatusLine{
			MultiPV:    i + 1,
			Elapsed:    elapsed,
			Nodes:      nodes,
			NPS:        nps,
			Depth:      depth,
			SelDepth:   depth,
			RootEval:   t.root.Eval(),
			ScoreCP:    cp,
			Mate:       mate,
			IsMate:     isMate,
			PV:         pv,
			BestMove:   best,
			PonderMove: ponder,
		}
	}
	return lines
}

// scoreFor reports child's evaluation from the mover's (white) perspective:
// a signed mate distance in full moves when child is a proven forced mate,
// otherwise a centipawn score via eval.EvalToCP.
func scoreFor(white bool, child *Node) (cp int, mateIn int, isMate bool) {
	switch child.Terminal() {
	case TerminalWhiteWin, TerminalBlackWin:
		plies := int(child.MateDistance())
		moves := (plies + 2) / 2
		if (child.Terminal() == TerminalWhiteWin) == white {
			return 0, moves, true
		}
		return 0, -moves, true
	default:
		return eval.EvalToCP(sideValue(white, child.Eval())), 0, false
	}
}

// LogStatus writes a human-readable status line for the best-ranked
// StatusLine, in the spirit of the periodic diagnostic logging ambient to
// hailam-chessplay's engine package; the machine-readable equivalent a
// protocol front-end emits carries the same integer fields without the
// prose.
func LogStatus(s StatusLine) {
	log.Printf(
		"search: %s elapsed, %s nodes (%s nps), depth %d, multipv %d, best %s",
		s.Elapsed.Round(10*time.Millisecond),
		humanize.Comma(int64(s.Nodes)),
		humanize.Comma(int64(s.NPS)),
		s.Depth,
		s.MultiPV,
		s.BestMove,
	)
}

// StatusTicker periodically emits a search's ranked StatusLines to emit
// until done fires, at the given interval. protocol's Engine.Go launches
// this alongside Controller.Run so progress is visible during long
// searches.
func (t *Tree) StatusTicker(done <-chan struct{}, interval time.Duration, multiPV int, emit func([]StatusLine)) {
	start := time.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			emit(t.Snapshot(time.Since(start), multiPV))
		}
	}
}
