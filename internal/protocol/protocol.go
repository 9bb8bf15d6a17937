// Package protocol implements a minimal line-oriented front-end shell
// around the search engine: it tokenizes commands and dispatches them to
// the four calls the engine exposes (SetOptions, SetPosition, Go, Stop).
// It carries no decision logic of its own — move legality, search budget
// interpretation, and evaluation all live in internal/board, internal/eval,
// and internal/mcts. This mirrors hailam-chessplay's UCI front-end
// (internal/uci), trimmed down to the calls the external contract actually
// requires.
package protocol

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kestrelchess/kestrel/internal/board"
	"github.com/kestrelchess/kestrel/internal/mcts"
	"github.com/kestrelchess/kestrel/internal/telemetry"
)

// Engine is the state the shell dispatches commands against: one position,
// one set of options, and at most one search running at a time.
type Engine struct {
	mu       sync.Mutex
	opts     mcts.Options
	tree     *mcts.Tree
	position *board.Position
	ply      int

	sessionID string
	moveNum   int
	journal   *telemetry.Journal
	infoOut   io.Writer // where periodic "info" lines are written; nil disables them

	controller *mcts.Controller
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewEngine returns an engine ready to accept commands, with default
// options and the standard starting position. journal may be nil, in
// which case status summaries are only logged, never persisted.
func NewEngine(sessionID string, journal *telemetry.Journal) *Engine {
	return &Engine{
		opts:      mcts.DefaultOptions(),
		position:  board.NewPosition(),
		sessionID: sessionID,
		journal:   journal,
	}
}

// SetOptions applies a single name/value option pair. It returns an error
// for an unknown name or an out-of-range value. A call made while a search
// is running is not rejected; that search keeps the options it started
// with, and the change applies from the next Go.
func (e *Engine) SetOptions(name, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opts.Set(name, value)
}

// SetPosition replaces the current position, either resetting to the
// starting position or parsing a FEN, then applying a trailing sequence of
// moves in long algebraic notation. Moves are trusted to be legal in
// context; an invalid move string still reports an error.
func (e *Engine) SetPosition(fenOrStartpos string, moves []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var pos *board.Position
	if fenOrStartpos == "" || fenOrStartpos == "startpos" {
		pos = board.NewPosition()
	} else {
		parsed, err := board.ParseFEN(fenOrStartpos)
		if err != nil {
			return fmt.Errorf("protocol: invalid FEN: %w", err)
		}
		pos = parsed
	}

	ply := 0
	for _, mv := range moves {
		next, err := board.ApplyMove(pos, mv)
		if err != nil {
			return fmt.Errorf("protocol: invalid move %q: %w", mv, err)
		}
		pos = next
		ply++
	}

	if e.tree != nil {
		e.tree.Rebase(pos)
	} else {
		e.tree = mcts.NewTree(pos, e.opts)
	}
	e.position = pos
	e.ply = ply
	return nil
}

// GoRequest describes a search-budget request in the external contract's
// terms: at most one of Depth/Nodes/MoveTime is meaningful alongside the
// clock fields, mirroring the five shapes mcts.Limits accepts.
type GoRequest struct {
	Depth     int
	Nodes     uint64
	MoveTime  time.Duration
	Infinite  bool
	WTime     time.Duration
	BTime     time.Duration
	WInc      time.Duration
	BInc      time.Duration
	MovesToGo int
}

// Go starts a search under the given budget and blocks until it completes
// (by its own stop predicate) or Stop is called. It reports the best move
// and, if available, a ponder move. Only one search may run at a time; Go
// returns an error if one is already in flight.
func (e *Engine) Go(req GoRequest) (best, ponder string, err error) {
	e.mu.Lock()
	if e.controller != nil {
		e.mu.Unlock()
		return "", "", fmt.Errorf("protocol: a search is already running")
	}
	if e.tree == nil {
		e.tree = mcts.NewTree(e.position, e.opts)
	}

	limits := mcts.Limits{
		Time:      [2]time.Duration{req.WTime, req.BTime},
		Inc:       [2]time.Duration{req.WInc, req.BInc},
		MovesToGo: req.MovesToGo,
		MoveTime:  req.MoveTime,
		Depth:     req.Depth,
		Nodes:     req.Nodes,
		Infinite:  req.Infinite,
	}

	controller := mcts.NewController(e.tree, limits, e.opts)
	e.controller = controller
	tree := e.tree
	e.moveNum++
	moveNum := e.moveNum
	e.done = make(chan struct{})
	done := e.done
	e.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	e.mu.Lock()
	e.cancel = cancel
	e.mu.Unlock()
	defer cancel()

	e.mu.Lock()
	multiPV := e.opts.MultiPV
	infoOut := e.infoOut
	e.mu.Unlock()

	statusDone := make(chan struct{})
	go tree.StatusTicker(statusDone, time.Second, multiPV, func(lines []mcts.StatusLine) {
		for _, s := range lines {
			mcts.LogStatus(s)
			if infoOut != nil {
				fmt.Fprintln(infoOut, formatInfoLine(s))
			}
		}
		if e.journal != nil && len(lines) > 0 {
			s := lines[0]
			if err := e.journal.Record(telemetry.Entry{
				SessionID: e.sessionID,
				Move:      moveNum,
				Elapsed:   s.Elapsed,
				Nodes:     s.Nodes,
				NPS:       s.NPS,
				Depth:     s.Depth,
				Eval:      s.RootEval,
				BestMove:  s.BestMove,
			}); err != nil {
				log.Printf("protocol: telemetry: %v", err)
			}
		}
	})

	best, ponder = controller.Run(ctx)
	close(statusDone)

	e.mu.Lock()
	e.controller = nil
	e.cancel = nil
	close(done)
	e.mu.Unlock()

	return best, ponder, nil
}

// Stop requests an early end to a running search. It is a no-op if no
// search is running.
func (e *Engine) Stop() {
	e.mu.Lock()
	controller := e.controller
	done := e.done
	e.mu.Unlock()

	if controller == nil {
		return
	}
	controller.Stop()
	if done != nil {
		<-done
	}
}

// Shell is a line-oriented command reader that dispatches to an Engine. It
// tokenizes input only; it never interprets move legality or search
// semantics itself.
type Shell struct {
	engine *Engine
	out    io.Writer
}

// NewShell wires a Shell to an Engine, writing its responses (including the
// engine's periodic "info" status lines) to out.
func NewShell(engine *Engine, out io.Writer) *Shell {
	engine.mu.Lock()
	engine.infoOut = out
	engine.mu.Unlock()
	return &Shell{engine: engine, out: out}
}

// formatInfoLine renders one StatusLine as a UCI-style "info" line: rank,
// depth, seldepth, timing, node counters, a score (centipawns or a signed
// mate distance), and the principal variation.
func formatInfoLine(s mcts.StatusLine) string {
	var b strings.Builder
	fmt.Fprintf(&b, "info multipv %d depth %d seldepth %d time %d nodes %d nps %d score ",
		s.MultiPV, s.Depth, s.SelDepth, s.Elapsed.Milliseconds(), s.Nodes, s.NPS)
	if s.IsMate {
		fmt.Fprintf(&b, "mate %d", s.Mate)
	} else {
		fmt.Fprintf(&b, "cp %d", s.ScoreCP)
	}
	if len(s.PV) > 0 {
		b.WriteString(" pv ")
		b.WriteString(strings.Join(s.PV, " "))
	}
	return b.String()
}

// Run reads commands from in until EOF or a "quit" command.
func (s *Shell) Run(in io.Reader) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !s.dispatch(line) {
			return
		}
	}
}

func (s *Shell) dispatch(line string) bool {
	fields := strings.Fields(line)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case "uci":
		fmt.Fprintln(s.out, "id name Kestrel")
		fmt.Fprintln(s.out, "id author Kestrel Team")
		fmt.Fprintln(s.out, "option name Threads type spin default 1 min 1 max 2048")
		fmt.Fprintln(s.out, "option name MultiPV type spin default 1 min 1 max 256")
		fmt.Fprintln(s.out, "option name Move_Overhead type spin default 30 min 10 max 5000")
		fmt.Fprintln(s.out, "option name Move_Speed type spin default 50 min 1 max 100")
		fmt.Fprintln(s.out, "option name MCTS_Explore type string default 1.4")
		fmt.Fprintln(s.out, "option name MCTS_Hash type spin default 64 min 16 max 32768")
		fmt.Fprintln(s.out, "option name Skill type spin default 100 min 1 max 100")
		fmt.Fprintln(s.out, "option name Contempt type spin default 0 min -100 max 100")
		fmt.Fprintln(s.out, "option name Dynamism type spin default 50 min 1 max 100")
		fmt.Fprintln(s.out, "uciok")
	case "isready":
		fmt.Fprintln(s.out, "readyok")
	case "ucinewgame":
		if err := s.engine.SetPosition("startpos", nil); err != nil {
			log.Printf("protocol: ucinewgame: %v", err)
		}
	case "setoption":
		name, value := parseSetOption(args)
		if err := s.engine.SetOptions(name, value); err != nil {
			log.Printf("protocol: setoption: %v", err)
		}
	case "position":
		fenOrStartpos, moves := parsePosition(args)
		if err := s.engine.SetPosition(fenOrStartpos, moves); err != nil {
			log.Printf("protocol: position: %v", err)
		}
	case "go":
		req := parseGo(args)
		go func() {
			best, ponder, err := s.engine.Go(req)
			if err != nil {
				log.Printf("protocol: go: %v", err)
				return
			}
			if ponder != "" {
				fmt.Fprintf(s.out, "bestmove %s ponder %s\n", best, ponder)
			} else {
				fmt.Fprintf(s.out, "bestmove %s\n", best)
			}
		}()
	case "stop":
		s.engine.Stop()
	case "quit":
		s.engine.Stop()
		return false
	}
	return true
}

func parseSetOption(args []string) (name, value string) {
	readingName, readingValue := false, false
	for _, a := range args {
		switch a {
		case "name":
			readingName, readingValue = true, false
		case "value":
			readingName, readingValue = false, true
		default:
			if readingName {
				if name != "" {
					name += " "
				}
				name += a
			} else if readingValue {
				if value != "" {
					value += " "
				}
				value += a
			}
		}
	}
	return name, value
}

func parsePosition(args []string) (fenOrStartpos string, moves []string) {
	if len(args) == 0 {
		return "startpos", nil
	}

	if args[0] == "startpos" {
		fenOrStartpos = "startpos"
		if idx := indexOf(args, "moves"); idx >= 0 && idx+1 < len(args) {
			moves = args[idx+1:]
		}
		return fenOrStartpos, moves
	}

	if args[0] == "fen" {
		rest := args[1:]
		if idx := indexOf(rest, "moves"); idx >= 0 {
			fenOrStartpos = strings.Join(rest[:idx], " ")
			if idx+1 < len(rest) {
				moves = rest[idx+1:]
			}
		} else {
			fenOrStartpos = strings.Join(rest, " ")
		}
		return fenOrStartpos, moves
	}

	return "startpos", nil
}

func indexOf(args []string, target string) int {
	for i, a := range args {
		if a == target {
			return i
		}
	}
	return -1
}

func parseGo(args []string) GoRequest {
	var req GoRequest
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "depth":
			if i+1 < len(args) {
				req.Depth, _ = strconv.Atoi(args[i+1])
				i++
			}
		case "nodes":
			if i+1 < len(args) {
				n, _ := strconv.ParseUint(args[i+1], 10, 64)
				req.Nodes = n
				i++
			}
		case "movetime":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				req.MoveTime = time.Duration(ms) * time.Millisecond
				i++
			}
		case "infinite":
			req.Infinite = true
		case "wtime":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				req.WTime = time.Duration(ms) * time.Millisecond
				i++
			}
		case "btime":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				req.BTime = time.Duration(ms) * time.Millisecond
				i++
			}
		case "winc":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				req.WInc = time.Duration(ms) * time.Millisecond
				i++
			}
		case "binc":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				req.BInc = time.Duration(ms) * time.Millisecond
				i++
			}
		case "movestogo":
			if i+1 < len(args) {
				req.MovesToGo, _ = strconv.Atoi(args[i+1])
				i++
			}
		}
	}
	return req
}
