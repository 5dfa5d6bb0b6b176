// Command queries normalizes scheduler queries and manages the query catalog.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AutoScheduleJS/queries-fn/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cli.NewRootCommand().ExecuteContext(ctx)
	if code := cli.GetExitCode(err); code != cli.ExitSuccess {
		// Commands print their own errors; cobra-level errors (unknown flag, bad args) still need one.
		if !cli.Reported(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		stop()
		os.Exit(code)
	}
}
