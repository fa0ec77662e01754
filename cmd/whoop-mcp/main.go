package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"whoop-mcp/cmd/whoop-mcp/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.Execute(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
