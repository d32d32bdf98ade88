// Package main Membership Manager API
//
// @title           Membership Manager API
// @version         1.0
// @description     API клуба: тарифы, клиенты и их абонементы, платежи, бонусы,
// @description     посещения, отчёты и уведомления клиентам.

// @contact.name   API Support
// @contact.email  support@membership-manager.local

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/magabrotheeeer/membership-manager/docs"
	membershipmanager "github.com/magabrotheeeer/membership-manager/internal/app/membership-manager"
	"github.com/magabrotheeeer/membership-manager/internal/config"
	"github.com/magabrotheeeer/membership-manager/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	logger := sl.Setup(cfg.Env)

	logger.Info("starting membership-manager", slog.String("env", cfg.Env))
	logger.Debug("config loaded", slog.String("config", cfg.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := membershipmanager.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("membership-manager stopped gracefully")
}
