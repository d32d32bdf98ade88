package membershipmanager

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/membership-manager/internal/config"
	"github.com/magabrotheeeer/membership-manager/internal/http/handlers/attendance"
	"github.com/magabrotheeeer/membership-manager/internal/http/handlers/auth"
	"github.com/magabrotheeeer/membership-manager/internal/http/handlers/bonuses"
	"github.com/magabrotheeeer/membership-manager/internal/http/handlers/clients"
	"github.com/magabrotheeeer/membership-manager/internal/http/handlers/health"
	"github.com/magabrotheeeer/membership-manager/internal/http/handlers/notifications"
	"github.com/magabrotheeeer/membership-manager/internal/http/handlers/payments"
	"github.com/magabrotheeeer/membership-manager/internal/http/handlers/plans"
	"github.com/magabrotheeeer/membership-manager/internal/http/handlers/reports"
	"github.com/magabrotheeeer/membership-manager/internal/http/middlewarectx"
	"github.com/magabrotheeeer/membership-manager/internal/models"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, s Services,
	parser middlewarectx.TokenParser, db, cache health.Pinger) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	authHandler := auth.New(logger, s.Auth)
	planHandler := plans.New(logger, s.Plans)
	clientHandler := clients.New(logger, s.Clients)
	paymentHandler := payments.New(logger, s.Payments)
	bonusHandler := bonuses.New(logger, s.Bonuses)
	attendanceHandler := attendance.New(logger, s.Attendance)
	reportHandler := reports.New(logger, s.Reports)
	notificationHandler := notifications.New(logger, s.Notifications)
	healthHandler := health.New(logger, map[string]health.Pinger{
		"postgres": db,
		"redis":    cache,
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/login", authHandler.Login)
		r.Get("/health", healthHandler.ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(parser, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger, cfg.RPS, cfg.Burst))

			// Сотрудник
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RoleMiddleware(logger, models.RoleEmployee))

				r.Get("/plans", planHandler.List)
				r.Get("/plans/{id}", planHandler.Get)

				r.Post("/clients", clientHandler.Register)
				r.Post("/clients/import", clientHandler.Import)
				r.Get("/clients", clientHandler.List)
				r.Get("/clients/{document}", clientHandler.Get)
				r.Put("/clients/{document}", clientHandler.Update)
				r.Delete("/clients/{document}", clientHandler.Delete)
				r.Post("/clients/{document}/renew", clientHandler.Renew)
				r.Post("/clients/{document}/payments", clientHandler.RecordPayment)
				r.Get("/clients/{document}/attendances", attendanceHandler.ClientHistory)
				r.Post("/clients/{document}/notifications/{kind}", notificationHandler.NotifyClient)

				r.Get("/payments", paymentHandler.List)
				r.Get("/payments/{id}", paymentHandler.Get)
				r.Put("/payments/{id}", paymentHandler.Update)
				r.Delete("/payments/{id}", paymentHandler.Delete)

				r.Post("/attendances", attendanceHandler.CheckIn)
				r.Get("/attendances", attendanceHandler.Month)

				r.Get("/reports/dashboard", reportHandler.Dashboard)
				r.Get("/reports/payments", reportHandler.Payments)
				r.Get("/reports/clients", reportHandler.Clients)
				r.Get("/reports/attendance", reportHandler.Attendance)
				r.Get("/reports/top-clients", reportHandler.TopClients)
			})

			// Администратор
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RoleMiddleware(logger, models.RoleAdmin))

				r.Post("/users", authHandler.CreateUser)
				r.Get("/users", authHandler.ListUsers)
				r.Put("/users/{uid}", authHandler.UpdateUser)
				r.Delete("/users/{uid}", authHandler.DeleteUser)

				r.Post("/plans", planHandler.Create)
				r.Get("/plans/stats", planHandler.Stats)
				r.Put("/plans/{id}", planHandler.Update)
				r.Delete("/plans/{id}", planHandler.Retire)

				r.Post("/clients/refresh-statuses", clientHandler.RefreshStatuses)

				r.Post("/payments/{id}/validate", paymentHandler.Validate)
				r.Post("/payments/{id}/reject", paymentHandler.Reject)

				r.Post("/bonuses", bonusHandler.Create)
				r.Get("/bonuses", bonusHandler.List)
				r.Get("/bonuses/stats", bonusHandler.Stats)
				r.Get("/bonuses/{id}", bonusHandler.Get)
				r.Post("/bonuses/{id}/apply", bonusHandler.Apply)
				r.Delete("/bonuses/{id}", bonusHandler.Delete)

				r.Post("/notifications/expiry-warnings", notificationHandler.ExpiryWarnings)
				r.Post("/notifications/reactivation", notificationHandler.Reactivation)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
