package mcts

import (
	"context"
	"testing"
	"time"

	"github.com/kestrelchess/kestrel/internal/board"
)

func TestPlayoutGrowsTree(t *testing.T) {
	tree := NewTree(board.NewPosition(), DefaultOptions())
	for i := 0; i < 50; i++ {
		tree.Playout()
	}
	if tree.root.Visits() == 0 {
		t.Fatal("root should have been visited at least once")
	}
	if len(tree.root.Children()) != 20 {
		t.Fatalf("root should have expanded to 20 children, got %d", len(tree.root.Children()))
	}
}

func TestRunWorkersRespectsCancellation(t *testing.T) {
	tree := NewTree(board.NewPosition(), Options{Threads: 4, MCTSExplore: 1.4})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := tree.RunWorkers(ctx); err != nil {
		t.Fatalf("RunWorkers returned an error: %v", err)
	}
	if tree.root.Visits() == 0 {
		t.Error("expected at least one playout within the time budget")
	}
}

func TestBestMoveEmptyOnUnexpandedRoot(t *testing.T) {
	tree := NewTree(board.NewPosition(), DefaultOptions())
	move, ponder := tree.BestMove()
	if move != "" || ponder != "" {
		t.Errorf("expected empty best/ponder move before any playout, got %q/%q", move, ponder)
	}
}

func TestBestMoveAfterPlayouts(t *testing.T) {
	tree := NewTree(board.NewPosition(), DefaultOptions())
	for i := 0; i < 200; i++ {
		tree.Playout()
	}
	move, _ := tree.BestMove()
	if move == "" {
		t.Error("expected a non-empty best move after playouts")
	}
}

func TestRebaseReusesMatchingChild(t *testing.T) {
	tree := NewTree(board.NewPosition(), DefaultOptions())
	tree.Playout()
	oldRoot := tree.root
	children := oldRoot.Children()
	if len(children) == 0 {
		t.Fatal("expected root to have expanded")
	}
	target := children[0]
	target.visits.Add(5)

	tree.Rebase(target.position)
	if tree.root != target {
		t.Error("Rebase should reuse the matching child as the new root")
	}
	if tree.root.Visits() < 5 {
		t.Error("Rebase should preserve the reused child's accumulated visits")
	}
	if tree.root.Parent() != nil {
		t.Error("the new root must not retain a parent back-reference")
	}
}

func TestRebaseFallsBackToFreshRootOnMismatch(t *testing.T) {
	tree := NewTree(board.NewPosition(), DefaultOptions())
	tree.Playout()

	unrelated, err := board.ParseFEN("8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	tree.Rebase(unrelated)
	if tree.root.Visits() != 0 {
		t.Error("a fresh root should start with zero visits")
	}
	if !tree.root.position.Equal(unrelated) {
		t.Error("the fresh root should wrap the requested position")
	}
}
