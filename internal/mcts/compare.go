package mcts

import "github.com/kestrelchess/kestrel/internal/board"

// sideValue reinterprets a White-perspective win probability from the
// perspective of whichever side is choosing among siblings: unchanged for
// White, flipped for Black.
func sideValue(white bool, eval float64) float64 {
	if white {
		return eval
	}
	return 1 - eval
}

// rank orders a terminal classification from the mover's perspective: a
// terminal that wins for the side to move ranks highest, a draw in the
// middle, a terminal that loses for the side to move ranks lowest.
// NotTerminal has no rank under this ordering and must be handled by the
// caller.
func rank(white bool, t Terminal) int {
	winTerm, loseTerm := TerminalWhiteWin, TerminalBlackWin
	if !white {
		winTerm, loseTerm = TerminalBlackWin, TerminalWhiteWin
	}
	switch t {
	case winTerm:
		return 2
	case TerminalDraw:
		return 1
	case loseTerm:
		return 0
	default:
		return -1
	}
}

// Better implements the terminal-aware total order over siblings of a
// node where white is to move (true) or Black (false):
//
//  1. both terminal: a winning terminal beats a draw beats a losing
//     terminal; among two winning terminals the shorter mate wins; among
//     two losing terminals the longer one (deferring the loss) wins.
//  2. one terminal, one not: a winning terminal dominates any
//     non-terminal, a losing terminal is dominated by any non-terminal; a
//     drawing terminal is compared against the non-terminal's eval (from
//     the mover's perspective) against the implicit draw value of 0.5.
//  3. neither terminal: visit count is primary, eval (mover's
//     perspective) is the tiebreak.
func Better(white bool, a, b *Node) bool {
	aTerm, bTerm := a.IsTerminal(), b.IsTerminal()

	switch {
	case aTerm && bTerm:
		ra, rb := rank(white, a.Terminal()), rank(white, b.Terminal())
		if ra != rb {
			return ra > rb
		}
		switch ra {
		case 2: // both forced wins: prefer the shorter mate
			return a.MateDistance() < b.MateDistance()
		case 0: // both forced losses: prefer the longer one
			return a.MateDistance() > b.MateDistance()
		default: // both draws: no further spec'd tiebreak, fall back to visits
			return a.Visits() > b.Visits()
		}

	case aTerm && !bTerm:
		switch rank(white, a.Terminal()) {
		case 2:
			return true
		case 0:
			return false
		default:
			return 0.5 > sideValue(white, b.Eval())
		}

	case !aTerm && bTerm:
		switch rank(white, b.Terminal()) {
		case 2:
			return false
		case 0:
			return true
		default:
			return sideValue(white, a.Eval()) > 0.5
		}

	default:
		if a.Visits() != b.Visits() {
			return a.Visits() > b.Visits()
		}
		return sideValue(white, a.Eval()) > sideValue(white, b.Eval())
	}
}

// bestChild returns the Better-maximal child of n's current children, or
// nil if n has none.
func bestChild(white bool, children []*Node) *Node {
	if len(children) == 0 {
		return nil
	}
	best := children[0]
	for _, c := range children[1:] {
		if Better(white, c, best) {
			best = c
		}
	}
	return best
}

// topN returns up to n of children, ranked most-Better-first. It mutates
// neither children nor the tree; callers pass a size small enough (MultiPV
// is capped at 256) that an O(n·len(children)) selection is cheap next to
// the tree-walk work already done per status tick.
func topN(white bool, children []*Node, n int) []*Node {
	if n <= 0 {
		return nil
	}
	if n > len(children) {
		n = len(children)
	}
	remaining := make([]*Node, len(children))
	copy(remaining, children)

	out := make([]*Node, 0, n)
	for i := 0; i < n; i++ {
		bi := 0
		for j := 1; j < len(remaining); j++ {
			if Better(white, remaining[j], remaining[bi]) {
				bi = j
			}
		}
		out = append(out, remaining[bi])
		remaining[bi] = remaining[len(remaining)-1]
		remaining = remaining[:len(remaining)-1]
	}
	return out
}

// PV walks from n following the Better-maximal child at each step,
// returning the sequence of move strings from n's children down to the
// first node with no children of its own.
func PV(n *Node) []string {
	var moves []string
	for {
		children := n.Children()
		if len(children) == 0 {
			return moves
		}
		white := n.position.SideToMove == board.White
		next := bestChild(white, children)
		if next == nil {
			return moves
		}
		moves = append(moves, next.move)
		n = next
	}
}
