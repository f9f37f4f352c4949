// Package main contains the entrypoint for the bot builder web service.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/edgard/botbuilder/internal/app"
	"github.com/edgard/botbuilder/internal/config"
	"github.com/edgard/botbuilder/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run loads configuration, builds the app and serves until ctx is
// cancelled. It returns the process exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	a, err := app.New(cfg, log)
	if err != nil {
		log.Error("Failed to build app", "error", err)
		return 1
	}

	runErr := a.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("App stopped due to error", "error", runErr)
		return 1
	}

	log.Info("Bot builder stopped gracefully.")
	return 0
}
