package protocol

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestSetOptionsValidatesThroughOptions(t *testing.T) {
	e := NewEngine("test-session", nil)
	if err := e.SetOptions("Threads", "4"); err != nil {
		t.Errorf("SetOptions(Threads, 4) returned error: %v", err)
	}
	if err := e.SetOptions("Threads", "0"); err == nil {
		t.Error("SetOptions(Threads, 0) should have returned an error")
	}
}

func TestSetPositionStartpos(t *testing.T) {
	e := NewEngine("test-session", nil)
	if err := e.SetPosition("startpos", []string{"e2e4", "e7e5"}); err != nil {
		t.Fatalf("SetPosition failed: %v", err)
	}
	if e.ply != 2 {
		t.Errorf("expected ply 2 after two moves, got %d", e.ply)
	}
}

func TestSetPositionRejectsInvalidMove(t *testing.T) {
	e := NewEngine("test-session", nil)
	if err := e.SetPosition("startpos", []string{"e2e9"}); err == nil {
		t.Error("expected an error for a malformed move string")
	}
}

func TestSetPositionRejectsInvalidFEN(t *testing.T) {
	e := NewEngine("test-session", nil)
	if err := e.SetPosition("not a fen", nil); err == nil {
		t.Error("expected an error for an invalid FEN")
	}
}

func TestGoAndStop(t *testing.T) {
	e := NewEngine("test-session", nil)
	if err := e.SetOptions("Threads", "2"); err != nil {
		t.Fatalf("SetOptions failed: %v", err)
	}

	done := make(chan struct{})
	var best string
	go func() {
		b, _, err := e.Go(GoRequest{Infinite: true})
		if err != nil {
			t.Errorf("Go returned error: %v", err)
		}
		best = b
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	e.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Go did not return after Stop")
	}
	if best == "" {
		t.Error("expected a non-empty best move after stopping an infinite search")
	}
}

func TestGoRejectsConcurrentSearch(t *testing.T) {
	e := NewEngine("test-session", nil)
	done := make(chan struct{})
	go func() {
		e.Go(GoRequest{Infinite: true})
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	_, _, err := e.Go(GoRequest{Depth: 1})
	if err == nil {
		t.Error("expected an error starting a second concurrent search")
	}

	e.Stop()
	<-done
}

func TestShellUCIHandshake(t *testing.T) {
	e := NewEngine("test-session", nil)
	var out bytes.Buffer
	sh := NewShell(e, &out)
	sh.Run(strings.NewReader("uci\nisready\nquit\n"))

	got := out.String()
	if !strings.Contains(got, "uciok") {
		t.Errorf("expected uciok in output, got %q", got)
	}
	if !strings.Contains(got, "readyok") {
		t.Errorf("expected readyok in output, got %q", got)
	}
}

func TestShellPositionAndGoDepth(t *testing.T) {
	e := NewEngine("test-session", nil)
	var out bytes.Buffer
	sh := NewShell(e, &out)
	sh.Run(strings.NewReader("position startpos moves e2e4\ngo depth 1\nquit\n"))

	// The "go" search runs in a background goroutine relative to dispatch
	// and can outlive Run's return on quit, so give it a moment to finish
	// before the test exits.
	time.Sleep(200 * time.Millisecond)
}

func TestParsePositionParsesMoves(t *testing.T) {
	fen, moves := parsePosition([]string{"startpos", "moves", "e2e4", "e7e5"})
	if fen != "startpos" {
		t.Errorf("expected startpos, got %q", fen)
	}
	if len(moves) != 2 || moves[0] != "e2e4" || moves[1] != "e7e5" {
		t.Errorf("unexpected moves: %v", moves)
	}
}

func TestParsePositionParsesFEN(t *testing.T) {
	fen, moves := parsePosition([]string{"fen", "8/8/8/8/8/8/8/K6k", "w", "-", "-", "0", "1", "moves", "a1a2"})
	if fen != "8/8/8/8/8/8/8/K6k w - - 0 1" {
		t.Errorf("unexpected fen: %q", fen)
	}
	if len(moves) != 1 || moves[0] != "a1a2" {
		t.Errorf("unexpected moves: %v", moves)
	}
}

func TestParseGoParsesAllFields(t *testing.T) {
	req := parseGo([]string{"wtime", "60000", "btime", "55000", "winc", "1000", "binc", "1000", "movestogo", "20"})
	if req.WTime != 60*time.Second || req.BTime != 55*time.Second {
		t.Errorf("unexpected time fields: %+v", req)
	}
	if req.MovesToGo != 20 {
		t.Errorf("expected movestogo 20, got %d", req.MovesToGo)
	}
}
