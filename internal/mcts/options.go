package mcts

import (
	"fmt"
	"strconv"
)

// Options is a validated, decoded snapshot of the engine's tunable
// parameters. It is built once by Set calls before a search starts and is
// never mutated while a search is running — no mid-search reconfiguration
// is supported, in the shape of hailam-chessplay's DifficultySettings
// table (internal/engine/engine.go).
type Options struct {
	Threads      int // 1-2048, worker goroutines searching the shared tree
	MultiPV      int // 1-256, number of root lines to report
	MoveOverhead int // 10-5000 ms, reserved against clock/communication lag
	MoveSpeed    int // 1-100, scales time allocation; 50 is neutral
	MCTSExplore  float64
	MCTSHash     int // 16-32768 MiB, budgeted for the tree (approximate)
	Skill        int // 1-100, validated and stored; neither the search nor status reporting reads it
	Contempt     int // -100..100, reserved; validated and stored but not read by the search
	Dynamism     int // 1-100, reserved
}

// DefaultOptions returns the engine's out-of-the-box configuration.
func DefaultOptions() Options {
	return Options{
		Threads:      1,
		MultiPV:      1,
		MoveOverhead: 30,
		MoveSpeed:    50,
		MCTSExplore:  1.4,
		MCTSHash:     64,
		Skill:        100,
		Contempt:     0,
		Dynamism:     50,
	}
}

// Set validates and applies a single name/value pair, in the shape of a
// UCI "setoption" call. Names are case-sensitive.
func (o *Options) Set(name, value string) error {
	switch name {
	case "Threads":
		n, err := parseRangeInt(value, 1, 2048)
		if err != nil {
			return fmt.Errorf("mcts: Threads: %w", err)
		}
		o.Threads = n
	case "MultiPV":
		n, err := parseRangeInt(value, 1, 256)
		if err != nil {
			return fmt.Errorf("mcts: MultiPV: %w", err)
		}
		o.MultiPV = n
	case "Move_Overhead":
		n, err := parseRangeInt(value, 10, 5000)
		if err != nil {
			return fmt.Errorf("mcts: Move_Overhead: %w", err)
		}
		o.MoveOverhead = n
	case "Move_Speed":
		n, err := parseRangeInt(value, 1, 100)
		if err != nil {
			return fmt.Errorf("mcts: Move_Speed: %w", err)
		}
		o.MoveSpeed = n
	case "MCTS_Explore":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("mcts: MCTS_Explore: invalid value %q", value)
		}
		o.MCTSExplore = f
	case "MCTS_Hash":
		n, err := parseRangeInt(value, 16, 32768)
		if err != nil {
			return fmt.Errorf("mcts: MCTS_Hash: %w", err)
		}
		o.MCTSHash = n
	case "Skill":
		n, err := parseRangeInt(value, 1, 100)
		if err != nil {
			return fmt.Errorf("mcts: Skill: %w", err)
		}
		o.Skill = n
	case "Contempt":
		n, err := parseRangeInt(value, -100, 100)
		if err != nil {
			return fmt.Errorf("mcts: Contempt: %w", err)
		}
		o.Contempt = n
	case "Dynamism":
		n, err := parseRangeInt(value, 1, 100)
		if err != nil {
			return fmt.Errorf("mcts: Dynamism: %w", err)
		}
		o.Dynamism = n
	default:
		return fmt.Errorf("mcts: unknown option %q", name)
	}
	return nil
}

func parseRangeInt(s string, lo, hi int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("invalid value %q (must be in [%d,%d])", s, lo, hi)
	}
	return n, nil
}
