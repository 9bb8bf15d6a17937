// Command kestrel-uci runs the engine's line-oriented front-end shell on
// stdin/stdout, in the shape hailam-chessplay's chessplay-uci binary runs
// its own UCI loop.
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/kestrelchess/kestrel/internal/protocol"
	"github.com/kestrelchess/kestrel/internal/telemetry"
)

func main() {
	journal, err := telemetry.Open()
	if err != nil {
		log.Printf("telemetry disabled: %v", err)
		journal = nil
	} else {
		defer journal.Close()
	}

	sessionID := fmt.Sprintf("%d-%d", os.Getpid(), time.Now().UnixNano())
	engine := protocol.NewEngine(sessionID, journal)
	shell := protocol.NewShell(engine, os.Stdout)
	shell.Run(os.Stdin)
}
