// Package membershipmanager собирает HTTP API клуба: хранилище, кэш, брокер
// уведомлений, сервисы и маршруты.
package membershipmanager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/membership-manager/internal/cache"
	"github.com/magabrotheeeer/membership-manager/internal/config"
	"github.com/magabrotheeeer/membership-manager/internal/lib/jwt"
	"github.com/magabrotheeeer/membership-manager/internal/lib/sl"
	"github.com/magabrotheeeer/membership-manager/internal/lib/tracing"
	"github.com/magabrotheeeer/membership-manager/internal/migrations"
	"github.com/magabrotheeeer/membership-manager/internal/rabbitmq"
	attendanceservice "github.com/magabrotheeeer/membership-manager/internal/services/attendance"
	authservice "github.com/magabrotheeeer/membership-manager/internal/services/auth"
	bonusservice "github.com/magabrotheeeer/membership-manager/internal/services/bonuses"
	clientservice "github.com/magabrotheeeer/membership-manager/internal/services/clients"
	notificationservice "github.com/magabrotheeeer/membership-manager/internal/services/notification"
	paymentservice "github.com/magabrotheeeer/membership-manager/internal/services/payments"
	planservice "github.com/magabrotheeeer/membership-manager/internal/services/plans"
	reportservice "github.com/magabrotheeeer/membership-manager/internal/services/reports"
	"github.com/magabrotheeeer/membership-manager/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// App HTTP API со всеми зависимостями.
type App struct {
	server   *http.Server
	logger   *slog.Logger
	db       *repository.Storage
	cache    *cache.Cache
	conn     *amqp.Connection
	ch       *amqp.Channel
	shutdown func(context.Context) error
}

// Services сервисы, которые обслуживают маршруты API.
type Services struct {
	Auth          *authservice.AuthService
	Plans         *planservice.PlanService
	Clients       *clientservice.ClientService
	Payments      *paymentservice.PaymentService
	Bonuses       *bonusservice.BonusService
	Attendance    *attendanceservice.AttendanceService
	Reports       *reportservice.ReportService
	Notifications *notificationservice.NotificationService
}

// New подключает хранилище, кэш и брокер, применяет миграции и создаёт
// администратора, если сотрудников ещё нет.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	shutdown, err := tracing.Setup(ctx, cfg.TracingEndpoint, cfg.ServiceName)
	if err != nil {
		return nil, fmt.Errorf("failed to setup tracing: %w", err)
	}

	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	notifications := notificationservice.NewNotificationService(db, rabbitmq.NewPublisher(ch), logger, cfg.ExpiryWarningDays, loc)
	clients := clientservice.NewClientService(db, notifications, cacheRedis, logger, clientservice.Options{
		MinClientAge: cfg.MinClientAge,
		MaxBonusDays: cfg.MaxBonusDays,
		Location:     loc,
	})
	services := Services{
		Auth:          authservice.NewAuthService(db, jwtMaker, logger),
		Plans:         planservice.NewPlanService(db, cacheRedis, logger, cfg.StatsTTL),
		Clients:       clients,
		Payments:      paymentservice.NewPaymentService(db, cacheRedis, logger),
		Bonuses:       bonusservice.NewBonusService(db, cacheRedis, logger, cfg.MaxBonusDays),
		Attendance:    attendanceservice.NewAttendanceService(db, cacheRedis, logger, loc),
		Reports:       reportservice.NewReportService(db, clients, cacheRedis, logger, loc, cfg.StatsTTL, cfg.ExpiryWarningDays),
		Notifications: notifications,
	}

	created, err := services.Auth.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminName, cfg.AdminPassword)
	if err != nil {
		logger.Error("failed to bootstrap admin", sl.Err(err))
	} else if created {
		logger.Info("bootstrap admin created", slog.String("email", cfg.AdminEmail))
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, services, jwtMaker, db, cacheRedis)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:   srv,
		logger:   logger,
		db:       db,
		cache:    cacheRedis,
		conn:     conn,
		ch:       ch,
		shutdown: shutdown,
	}, nil
}

// Run обслуживает запросы до отмены ctx, затем корректно останавливает сервер.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
		if terr := a.shutdown(timeoutCtx); terr != nil {
			a.logger.Error("failed to flush traces", sl.Err(terr))
		}
	}
	a.close()
	return err
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close cache", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
