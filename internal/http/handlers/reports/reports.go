// Package reports реализует HTTP-обработчики отчётов и панели показателей.
// Все отчёты доступны только для чтения.
package reports

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/membership-manager/internal/http/request"
	"github.com/magabrotheeeer/membership-manager/internal/http/response"
	"github.com/magabrotheeeer/membership-manager/internal/models"
)

const defaultTopLimit = 10

// Service описывает интерфейс построения отчётов.
type Service interface {
	Dashboard(ctx context.Context) (*models.Dashboard, error)
	Payments(ctx context.Context, from, to *time.Time) (*models.PaymentReport, error)
	Clients(ctx context.Context) (*models.ClientStats, error)
	Attendance(ctx context.Context) (*models.AttendanceStats, error)
	TopClients(ctx context.Context, limit int) ([]*models.TopClient, error)
}

// Handler обрабатывает запросы к отчётам.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// Dashboard godoc
// @Summary Панель показателей
// @Description Перед расчётом сверяет статусы клиентов. Включает доход за 6 месяцев,
// @Description посещения за 7 дней и платежи по способам оплаты за 30 дней.
// @Tags Reports
// @Produce  json
// @Success 200 {object} models.Dashboard
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка"
// @Security BearerAuth
// @Router /reports/dashboard [get]
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.reports.Dashboard")

	d, err := h.service.Dashboard(r.Context())
	if err != nil {
		response.LogFail(log, w, r, "failed to build dashboard", err)
		return
	}
	response.OK(w, r, http.StatusOK, d)
}

// Payments godoc
// @Summary Отчёт по платежам
// @Tags Reports
// @Produce  json
// @Param from query string false "Начало периода, YYYY-MM-DD"
// @Param to query string false "Конец периода, YYYY-MM-DD"
// @Success 200 {object} models.PaymentReport
// @Failure 422 {object} response.ErrorResponse "Некорректный период"
// @Security BearerAuth
// @Router /reports/payments [get]
func (h *Handler) Payments(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.reports.Payments")

	from, err := request.Date(r, "from")
	if err != nil {
		response.LogFail(log, w, r, "invalid query", err)
		return
	}
	to, err := request.Date(r, "to")
	if err != nil {
		response.LogFail(log, w, r, "invalid query", err)
		return
	}
	rep, err := h.service.Payments(r.Context(), from, to)
	if err != nil {
		response.LogFail(log, w, r, "failed to build payment report", err)
		return
	}
	response.OK(w, r, http.StatusOK, rep)
}

func (h *Handler) Clients(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.reports.Clients")

	stats, err := h.service.Clients(r.Context())
	if err != nil {
		response.LogFail(log, w, r, "failed to build client report", err)
		return
	}
	response.OK(w, r, http.StatusOK, stats)
}

func (h *Handler) Attendance(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.reports.Attendance")

	stats, err := h.service.Attendance(r.Context())
	if err != nil {
		response.LogFail(log, w, r, "failed to build attendance report", err)
		return
	}
	response.OK(w, r, http.StatusOK, stats)
}

// TopClients клиенты с наибольшей суммой подтверждённых платежей.
func (h *Handler) TopClients(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.reports.TopClients")

	limit, err := request.Int(r, "limit", defaultTopLimit)
	if err != nil {
		response.LogFail(log, w, r, "invalid query", err)
		return
	}
	top, err := h.service.TopClients(r.Context(), limit)
	if err != nil {
		response.LogFail(log, w, r, "failed to build top clients", err)
		return
	}
	response.OK(w, r, http.StatusOK, map[string]any{
		"count":   len(top),
		"clients": top,
	})
}
