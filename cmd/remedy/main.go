// File: cmd/remedy/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"go.uber.org/zap"

	"github.com/remedyhq/remedy-cli/cmd"
	"github.com/remedyhq/remedy-cli/internal/audit"
	"github.com/remedyhq/remedy-cli/internal/observability"
)

const panicLogFile = "panic.log"

// exitInterrupted is the conventional exit code for a SIGINT-terminated run.
const exitInterrupted = 130

var osExit = os.Exit

func main() {
	defer handlePanic()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := cmd.Execute(ctx)
	observability.Sync()

	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(os.Stderr, "Interrupted.")
		osExit(exitInterrupted)
	default:
		osExit(1)
	}
}

// handlePanic records a crash in both the panic log and the experiment
// audit trail before exiting non-zero.
func handlePanic() {
	r := recover()
	if r == nil {
		return
	}

	observability.Sync()

	panicMessage := fmt.Sprintf("panic: %v\n\n%s", r, debug.Stack())
	if err := os.WriteFile(panicLogFile, []byte(panicMessage), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: Failed to write panic log: %v\n", err)
		fmt.Fprintf(os.Stderr, "Panic details:\n%s\n", panicMessage)
		osExit(1)
		return
	}

	// Best effort: leave a DEBUG record so the crash shows up alongside the
	// agent actions of the run it killed.
	if auditLog, err := audit.NewLogger("logs/experiment_data.json", zap.NewNop()); err == nil {
		_ = auditLog.Log("Sentinel", "n/a", audit.ActionDebug, map[string]any{
			"output_response": panicMessage,
			"panic_log":       panicLogFile,
		}, audit.StatusError)
	}

	fmt.Fprintf(os.Stderr, "CRASH DETECTED. Details logged to %s\n", panicLogFile)
	osExit(1)
}
