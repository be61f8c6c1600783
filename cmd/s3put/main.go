package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	level := new(slog.LevelVar)
	logger := logr.FromSlogHandler(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := newRootCommand(logger, level).ExecuteContext(ctx); err != nil {
		reportError(logger, err)
		cancel()
		os.Exit(1)
	}
}
