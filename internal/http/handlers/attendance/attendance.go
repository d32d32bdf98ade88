// Package attendance реализует HTTP-обработчики учёта посещений.
package attendance

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/membership-manager/internal/http/middlewarectx"
	"github.com/magabrotheeeer/membership-manager/internal/http/request"
	"github.com/magabrotheeeer/membership-manager/internal/http/response"
	"github.com/magabrotheeeer/membership-manager/internal/models"
)

// Service описывает интерфейс бизнес-логики посещений.
type Service interface {
	CheckIn(ctx context.Context, document, actor string) (*models.Attendance, error)
	Month(ctx context.Context, year, month int) (*models.AttendanceMonth, error)
	ClientHistory(ctx context.Context, document string, from, to *time.Time) ([]*models.Attendance, error)
}

// Handler обрабатывает запросы к посещениям.
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

// CheckIn godoc
// @Summary Отметить посещение
// @Description Активный клиент с действующим абонементом получает отметку о посещении.
// @Description Клиент с истёкшим абонементом переводится в inactive, ответ 409.
// @Tags Attendance
// @Accept  json
// @Produce  json
// @Param request body models.CheckInRequest true "Документ клиента"
// @Success 201 {object} models.Attendance
// @Failure 404 {object} response.ErrorResponse "Клиент не найден"
// @Failure 409 {object} response.ErrorResponse "Клиент не активен или абонемент истёк"
// @Security BearerAuth
// @Router /attendances [post]
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.attendance.CheckIn")

	var req models.CheckInRequest
	if err := request.Decode(r, &req); err != nil {
		response.LogFail(log, w, r, "invalid check-in request", err)
		return
	}
	a, err := h.service.CheckIn(r.Context(), req.Document, middlewarectx.UserUIDFrom(r.Context()))
	if err != nil {
		response.LogFail(log, w, r, "check-in refused", err)
		return
	}
	response.OK(w, r, http.StatusCreated, a)
}

// Month посещения за месяц, по умолчанию текущий.
func (h *Handler) Month(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.attendance.Month")

	year, err := request.Int(r, "year", 0)
	if err != nil {
		response.LogFail(log, w, r, "invalid query", err)
		return
	}
	month, err := request.Int(r, "month", 0)
	if err != nil {
		response.LogFail(log, w, r, "invalid query", err)
		return
	}
	res, err := h.service.Month(r.Context(), year, month)
	if err != nil {
		response.LogFail(log, w, r, "failed to list attendances", err)
		return
	}
	response.OK(w, r, http.StatusOK, res)
}

// ClientHistory посещения клиента за период.
func (h *Handler) ClientHistory(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.attendance.ClientHistory")

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
	list, err := h.service.ClientHistory(r.Context(), chi.URLParam(r, "document"), from, to)
	if err != nil {
		response.LogFail(log, w, r, "failed to get client attendances", err)
		return
	}
	response.OK(w, r, http.StatusOK, map[string]any{
		"count":       len(list),
		"attendances": list,
	})
}
