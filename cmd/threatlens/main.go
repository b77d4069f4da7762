package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/xkilldash9x/threatlens-cli/cmd"
)

// main is the signal-aware entry point: Ctrl-C or SIGTERM cancels the command
// context so in-flight recognition or publishing calls stop cleanly.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.ExecuteContext(ctx)
}
