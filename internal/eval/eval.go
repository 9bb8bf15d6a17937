// Package eval implements the engine's static positional evaluator: material
// plus piece-square tables, interpolated across the game phase, plus a
// tempo bonus, mapped through a sigmoid onto a White-perspective win
// probability in (0, 1).
package eval

import (
	"math"

	"github.com/kestrelchess/kestrel/internal/board"
)

// Material values in centipawns, middlegame and endgame, the standard
// PeSTO set.
var materialMG = [6]int{82, 337, 365, 477, 1025, 0}
var materialEG = [6]int{94, 281, 297, 512, 936, 0}

// phaseWeight is how much each piece type (other than pawns and kings)
// contributes to the 0-24 game-phase scale; a board with every minor,
// rook, and queen for both sides present scores the maximum of 24.
var phaseWeight = [6]int{0, 1, 1, 2, 4, 0}

const maxPhase = 24

// TempoBonus rewards the side to move with a small initiative edge,
// grounded on hailam-chessplay's tempoBonus constant in
// internal/engine/eval.go, scaled up to sit naturally alongside
// PeSTO-scale material and PST values.
const TempoBonus = 28

// Evaluate returns the static evaluation of pos in centipawns from White's
// perspective: positive favors White, negative favors Black. It does not
// itself decide game-over status; the caller (the search's backpropagation
// step) is responsible for terminal classification.
func Evaluate(pos *board.Position) int {
	var mg, eg, phase int

	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		for pt := board.Pawn; pt <= board.King; pt++ {
			bb := pos.Pieces[c][pt]
			for bb != 0 {
				sq := bb.PopLSB()

				tableSq := sq
				if c == board.Black {
					tableSq = sq.Mirror()
				}

				mg += sign * (materialMG[pt] + mgTables[pt][tableSq])
				eg += sign * (materialEG[pt] + egTables[pt][tableSq])

				phase += phaseWeight[pt]
			}
		}
	}

	if phase > maxPhase {
		phase = maxPhase
	}

	mg += spaceBonus(pos)

	score := (mg*phase + eg*(maxPhase-phase)) / maxPhase
	score += mopUp(pos, phase, score)

	if pos.SideToMove == board.White {
		score += TempoBonus
	} else {
		score -= TempoBonus
	}

	return score
}

// spaceMinPieces is the minor/major piece count (knights, bishops, rooks,
// queens) a side needs before its space control is scored at all; an
// endgame with few pieces left has little use for it.
const spaceMinPieces = 2

// spaceWeight scales each safely-controlled central square into a
// middlegame-only centipawn bonus.
const spaceWeight = 2

// spaceBonus rewards pawn-attack control of the board's big central zone
// that the enemy's own pawns cannot contest, grounded on
// hailam-chessplay's evaluateSpace: space matters most with pieces still
// on the board to make use of it, and fades out as material is traded off
// (it is folded into mg only, never eg).
func spaceBonus(pos *board.Position) int {
	whitePieces := nonPawnPieceCount(pos, board.White)
	blackPieces := nonPawnPieceCount(pos, board.Black)
	if whitePieces < spaceMinPieces && blackPieces < spaceMinPieces {
		return 0
	}

	var score int
	for c := board.White; c <= board.Black; c++ {
		pieces := whitePieces
		if c == board.Black {
			pieces = blackPieces
		}
		if pieces < spaceMinPieces {
			continue
		}

		sign := 1
		if c == board.Black {
			sign = -1
		}

		ownPawns := pos.Pieces[c][board.Pawn]
		enemyPawns := pos.Pieces[c.Other()][board.Pawn]

		var ownControl, enemyAttacks board.Bitboard
		if c == board.White {
			ownControl = ownPawns.NorthEast() | ownPawns.NorthWest()
			enemyAttacks = enemyPawns.SouthEast() | enemyPawns.SouthWest()
		} else {
			ownControl = ownPawns.SouthEast() | ownPawns.SouthWest()
			enemyAttacks = enemyPawns.NorthEast() | enemyPawns.NorthWest()
		}

		safe := ownControl & board.BigCenter &^ enemyAttacks
		score += sign * safe.PopCount() * spaceWeight
	}
	return score
}

func nonPawnPieceCount(pos *board.Position, c board.Color) int {
	return pos.Pieces[c][board.Knight].PopCount() +
		pos.Pieces[c][board.Bishop].PopCount() +
		pos.Pieces[c][board.Rook].PopCount() +
		pos.Pieces[c][board.Queen].PopCount()
}

// mopUpPhase is the game-phase ceiling below which a position is treated as
// a bare-bones endgame worth steering toward mate rather than just material.
const mopUpPhase = 6

// mopUpMaterial is the minimum material edge (centipawns) required before
// a side is considered clearly winning enough to chase the enemy king.
const mopUpMaterial = 300

// mopUp nudges the winning side's king toward the losing king and the
// losing king toward the rim, once the position is both low-phase and
// materially lopsided — a standard technique for converting a won endgame
// into mate instead of shuffling at a dead draw distance.
func mopUp(pos *board.Position, phase, materialScore int) int {
	if phase > mopUpPhase {
		return 0
	}
	if materialScore > -mopUpMaterial && materialScore < mopUpMaterial {
		return 0
	}

	winner, loser := board.White, board.Black
	sign := 1
	if materialScore < 0 {
		winner, loser = board.Black, board.White
		sign = -1
	}

	winnerKing := pos.Pieces[winner][board.King].LSB()
	loserKing := pos.Pieces[loser][board.King].LSB()

	closeness := 14 - winnerKing.Distance(loserKing)
	rimward := 3 - loserKing.EdgeDistance()
	return sign * (rimward*10 + closeness*4)
}

// CPToEval maps a centipawn score (White's perspective) onto a White-win
// probability in the open interval (0, 1):
//
//	cp > 0: p = (cp² + 10000) / (cp² + 20000)
//	cp < 0: p = 1 - ((cp² + 10000) / (cp² + 20000))
//	cp == 0: p = 0.5
//
// This compresses toward 0.5 for small material differences and saturates
// toward 1 (resp. 0) as the score diverges, without ever reaching either
// bound.
func CPToEval(cp int) float64 {
	if cp == 0 {
		return 0.5
	}
	sq := float64(cp) * float64(cp)
	ratio := (sq + 10000) / (sq + 20000)
	if cp > 0 {
		return ratio
	}
	return 1 - ratio
}

// EvalToCP is the algebraic inverse of CPToEval, used only to format status
// lines. Solving p = (cp²+10000)/(cp²+20000) for cp (and its mirror for
// p < 0.5) gives cp² = 10000·(2p-1)/(1-p) for p ≥ 0.5, symmetric for p < 0.5.
func EvalToCP(p float64) int {
	if p <= 0 {
		p = 1e-9
	}
	if p >= 1 {
		p = 1 - 1e-9
	}

	if p == 0.5 {
		return 0
	}

	sign := 1.0
	q := p
	if p < 0.5 {
		sign = -1.0
		q = 1 - p
	}

	sq := 10000 * (2*q - 1) / (1 - q)
	return int(math.Round(sign * math.Sqrt(sq)))
}
