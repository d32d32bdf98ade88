// Package scheduler содержит приложение фоновых задач: сверку статусов
// клиентов и рассылку предупреждений об окончании абонемента.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/membership-manager/internal/cache"
	"github.com/magabrotheeeer/membership-manager/internal/config"
	"github.com/magabrotheeeer/membership-manager/internal/lib/sl"
	"github.com/magabrotheeeer/membership-manager/internal/rabbitmq"
	clientservice "github.com/magabrotheeeer/membership-manager/internal/services/clients"
	notificationservice "github.com/magabrotheeeer/membership-manager/internal/services/notification"
	schedulerservice "github.com/magabrotheeeer/membership-manager/internal/services/scheduler"
	"github.com/magabrotheeeer/membership-manager/internal/storage/repository"
)

const (
	dbRetries    = 10
	dbRetryDelay = 3 * time.Second
)

// App представляет приложение планировщика.
type App struct {
	schedulerService *schedulerservice.SchedulerService
	statusInterval   time.Duration
	expiryInterval   time.Duration
	db               *repository.Storage
	cache            *cache.Cache
	conn             *amqp.Connection
	ch               *amqp.Channel
	logger           *slog.Logger
}

func waitForDB(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*repository.Storage, error) {
	var lastErr error
	for range dbRetries {
		db, err := repository.New(ctx, cfg.StorageConnectionString)
		if err == nil {
			return db, nil
		}
		lastErr = err
		logger.Warn("database not ready, retrying", sl.Err(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(dbRetryDelay):
		}
	}
	return nil, fmt.Errorf("database not ready after retries: %w", lastErr)
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	db, err := waitForDB(ctx, cfg, logger)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	notifications := notificationservice.NewNotificationService(db, rabbitmq.NewPublisher(ch), logger, cfg.ExpiryWarningDays, loc)
	clients := clientservice.NewClientService(db, notifications, cacheRedis, logger, clientservice.Options{
		MinClientAge: cfg.MinClientAge,
		MaxBonusDays: cfg.MaxBonusDays,
		Location:     loc,
	})

	return &App{
		schedulerService: schedulerservice.NewSchedulerService(clients, notifications, logger),
		statusInterval:   cfg.StatusInterval,
		expiryInterval:   cfg.ExpiryInterval,
		db:               db,
		cache:            cacheRedis,
		conn:             conn,
		ch:               ch,
		logger:           logger,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", sl.Err(err))
		}
	}
}

// Run запускает планировщик и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	go a.schedulerService.RunStatusSweep(ctx, a.statusInterval)
	go a.schedulerService.RunExpiryWarnings(ctx, a.expiryInterval)

	<-ctx.Done()

	a.logger.Info("shutting down scheduler service")

	closeResources(a.ch, a.conn, a.logger)
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close cache", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
	return nil
}
