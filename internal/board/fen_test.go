package board

import "testing"

func TestFENRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1",
	}

	for _, f := range fens {
		pos, err := ParseFEN(f)
		if err != nil {
			t.Fatalf("ParseFEN(%q) failed: %v", f, err)
		}
		if got := pos.ToFEN(); got != f {
			t.Errorf("round trip mismatch: parsed %q, got back %q", f, got)
		}
	}
}

func applyAndFEN(t *testing.T, fen, move string) string {
	t.Helper()
	pos, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q) failed: %v", fen, err)
	}
	next, err := ApplyMove(pos, move)
	if err != nil {
		t.Fatalf("ApplyMove(%q, %q) failed: %v", fen, move, err)
	}
	return next.ToFEN()
}

func TestApplyMoveScenarios(t *testing.T) {
	cases := []struct {
		name     string
		fen      string
		move     string
		expected string
	}{
		{
			name:     "white kingside castle",
			fen:      "rnb1kb1r/ppppqppp/5n2/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R w KQkq - 4 4",
			move:     "e1g1",
			expected: "rnb1kb1r/ppppqppp/5n2/4p3/2B1P3/5N2/PPPP1PPP/RNBQ1RK1 b kq - 5 4",
		},
		{
			name:     "black queenside castle",
			fen:      "r3kb1r/pbppqppp/1pn2n2/4p1B1/2B1P3/3P1N1P/PPP2PP1/RN1Q1RK1 b kq - 2 7",
			move:     "e8c8",
			expected: "2kr1b1r/pbppqppp/1pn2n2/4p1B1/2B1P3/3P1N1P/PPP2PP1/RN1Q1RK1 w - - 3 8",
		},
		{
			name:     "en passant target set on double push",
			fen:      "rnbqkbnr/ppppp1pp/5p2/1P6/8/8/P1PPPPPP/RNBQKBNR b KQkq - 0 2",
			move:     "a7a5",
			expected: "rnbqkbnr/1pppp1pp/5p2/pP6/8/8/P1PPPPPP/RNBQKBNR w KQkq a6 0 3",
		},
		{
			name:     "pawn promotion to queen with capture",
			fen:      "r1bk1bnr/pppqpPpp/2np4/8/8/8/PPPP1PPP/RNBQKBNR w KQ - 1 5",
			move:     "f7g8Q",
			expected: "r1bk1bQr/pppqp1pp/2np4/8/8/8/PPPP1PPP/RNBQKBNR b KQ - 0 5",
		},
		{
			name:     "capturing a rook removes that side's castling right",
			fen:      "rn1qkbnr/pbpppppp/1p6/8/8/2NP2P1/PPP1PP1P/R1BQKBNR b KQkq - 0 3",
			move:     "b7h1",
			expected: "rn1qkbnr/p1pppppp/1p6/8/8/2NP2P1/PPP1PP1P/R1BQKBNb w Qkq - 0 4",
		},
		{
			name:     "starting position after e2e4",
			fen:      StartFEN,
			move:     "e2e4",
			expected: "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := applyAndFEN(t, tc.fen, tc.move)
			if got != tc.expected {
				t.Errorf("got %q, want %q", got, tc.expected)
			}
		})
	}
}

func TestStartingPositionHas20Successors(t *testing.T) {
	pos := NewPosition()
	succ := pos.LegalSuccessors()
	if len(succ) != 20 {
		t.Errorf("expected 20 legal successors from the starting position, got %d", len(succ))
	}
}

func TestInvariantsAcrossSuccessors(t *testing.T) {
	pos, err := ParseFEN("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	if err != nil {
		t.Fatal(err)
	}

	for _, s := range pos.LegalSuccessors() {
		child := s.Position

		if child.Pieces[White][King].PopCount() != 1 {
			t.Errorf("move %s: white must have exactly one king", s.Move)
		}
		if child.Pieces[Black][King].PopCount() != 1 {
			t.Errorf("move %s: black must have exactly one king", s.Move)
		}

		var seen Bitboard
		for c := White; c <= Black; c++ {
			for pt := Pawn; pt <= King; pt++ {
				bb := child.Pieces[c][pt]
				if bb&seen != 0 {
					t.Errorf("move %s: piece bitboards overlap", s.Move)
				}
				seen |= bb
			}
		}

		if child.CastlingRights&^pos.CastlingRights != 0 {
			t.Errorf("move %s: castling rights increased (%s -> %s)", s.Move, pos.CastlingRights, child.CastlingRights)
		}

		wantHMC := pos.HalfMoveClock + 1
		movedPawn := pos.PieceAt(mustParseSquare(t, s.Move[:2])).Type() == Pawn
		capture := !pos.IsEmpty(mustParseSquare(t, s.Move[2:4]))
		if movedPawn || capture {
			wantHMC = 0
		}
		if child.HalfMoveClock != wantHMC {
			t.Errorf("move %s: halfmove clock = %d, want %d", s.Move, child.HalfMoveClock, wantHMC)
		}

		wantFMN := pos.FullMoveNumber
		if pos.SideToMove == Black {
			wantFMN++
		}
		if child.FullMoveNumber != wantFMN {
			t.Errorf("move %s: fullmove number = %d, want %d", s.Move, child.FullMoveNumber, wantFMN)
		}

		kingSq := child.KingSquare[pos.SideToMove]
		if child.IsSquareAttacked(kingSq, pos.SideToMove.Other()) {
			t.Errorf("move %s: mover's king left in check", s.Move)
		}
	}
}

func mustParseSquare(t *testing.T, s string) Square {
	t.Helper()
	sq, err := ParseSquare(s)
	if err != nil {
		t.Fatal(err)
	}
	return sq
}
