package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/parsecdata/wfrun/internal/cmd"
)

// Injected at build time via -ldflags.
var (
	version   = "dev"
	commit    = "HEAD"
	buildDate = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.SetVersionInfo(version, commit, buildDate)
	cmd.Execute(ctx)
}
