package board

import (
	"testing"
)

func TestCheckmate(t *testing.T) {
	// Back rank mate: Black king on h8 boxed in by its own pawns, White
	// rook controls the back rank. Black to move, already checkmated.
	pos, err := ParseFEN("R6k/6pp/8/8/8/8/8/K7 b - - 0 1")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}

	t.Log("Checkmate position:", pos)
	t.Log("Checkers bitboard:", pos.Checkers)
	t.Log("InCheck:", pos.InCheck())

	succ := pos.LegalSuccessors()
	t.Log("Black legal moves:", len(succ))
	for _, s := range succ {
		t.Log("  Move:", s.Move)
	}

	t.Log("HasLegalMoves:", pos.HasLegalMoves())
	t.Log("IsCheckmate:", pos.IsCheckmate())
	t.Log("IsStalemate:", pos.IsStalemate())

	if !pos.IsCheckmate() {
		t.Error("Expected checkmate but got false")
	}
}

func TestNotCheckmate(t *testing.T) {
	// Black king on h8 can capture the lone rook on g8: not checkmate.
	pos, err := ParseFEN("6Rk/8/8/8/8/8/8/K7 b - - 0 1")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}

	t.Log("Not checkmate position (king can capture rook):", pos)
	t.Log("Checkers bitboard:", pos.Checkers)
	t.Log("InCheck:", pos.InCheck())

	succ := pos.LegalSuccessors()
	t.Log("Black legal moves:", len(succ))
	for _, s := range succ {
		t.Log("  Move:", s.Move)
	}

	t.Log("IsCheckmate:", pos.IsCheckmate())

	if pos.IsCheckmate() {
		t.Error("Expected NOT checkmate but got true")
	}
}

func TestStalemate(t *testing.T) {
	// Classic stalemate: Black king trapped on a8 with no checks and no moves.
	pos, err := ParseFEN("k7/2Q5/1K6/8/8/8/8/8 b - - 0 1")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}

	if pos.InCheck() {
		t.Fatal("expected black not to be in check in the stalemate setup")
	}
	if !pos.IsStalemate() {
		t.Error("expected stalemate but got false")
	}
	if pos.IsCheckmate() {
		t.Error("stalemate must not also report as checkmate")
	}
	if !pos.IsDraw() {
		t.Error("a stalemated position must be a draw")
	}
}

func TestFiftyMoveDraw(t *testing.T) {
	pos, err := ParseFEN("4k3/8/8/8/8/8/8/4K3 w - - 100 80")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}
	if !pos.IsDraw() {
		t.Error("expected halfmove clock of 100 to be a draw")
	}
}

func TestInsufficientMaterialDraw(t *testing.T) {
	pos, err := ParseFEN("4k3/8/8/8/8/8/3B4/4K3 w - - 0 1")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}
	if !pos.IsInsufficientMaterial() {
		t.Error("king and lone bishop vs king should be insufficient material")
	}
}
