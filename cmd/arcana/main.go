package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	arcanacmd "github.com/louisbranch/arcana/internal/cmd/arcana"
	"github.com/louisbranch/arcana/internal/platform/config"
)

// main runs the arcana command tree.
func main() {
	cfg, err := arcanacmd.LoadConfig()
	if err != nil {
		config.Exitf("arcana: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := arcanacmd.Execute(ctx, cfg, os.Args[1:], os.Stdout); err != nil {
		stop()
		config.ExitCodef(arcanacmd.ExitCode(err), "arcana: %v", err)
	}
}
