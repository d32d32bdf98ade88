package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/membership-manager/internal/app/scheduler"
	"github.com/magabrotheeeer/membership-manager/internal/config"
	"github.com/magabrotheeeer/membership-manager/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	logger := sl.Setup(cfg.Env)
	logger.Info("starting notification-scheduler",
		slog.String("env", cfg.Env),
		slog.Duration("status_interval", cfg.StatusInterval),
		slog.Duration("expiry_interval", cfg.ExpiryInterval))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := scheduler.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize scheduler", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("scheduler stopped with error", sl.Err(err))
		os.Exit(1)
	}
	logger.Info("notification-scheduler stopped gracefully")
}
