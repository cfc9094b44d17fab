// Command compile scores season files offline and runs synthetic league
// simulations.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/tribescore/pkg/logger"
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout).RunContext(ctx, os.Args); err != nil {
		logger.Get().Error(ctx, "compile failed", logger.Error(err))
		stop()
		os.Exit(1)
	}
}
