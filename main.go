// Command kestrel is a thin alias for cmd/kestrel-uci, so the module
// builds a working engine binary from its root the way hailam-chessplay
// built its GUI binary from its root.
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
