// Package main provides the entrypoint for clerk-user-sync.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/isometry/clerk-user-sync/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.New().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
