// Package payments реализует HTTP-обработчики проверки и учёта платежей.
package payments

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/membership-manager/internal/http/middlewarectx"
	"github.com/magabrotheeeer/membership-manager/internal/http/request"
	"github.com/magabrotheeeer/membership-manager/internal/http/response"
	"github.com/magabrotheeeer/membership-manager/internal/models"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// Service описывает интерфейс бизнес-логики платежей.
type Service interface {
	Validate(ctx context.Context, id int64, actor string) (*models.Payment, error)
	Reject(ctx context.Context, id int64, actor, reason string) (*models.Payment, error)
	Get(ctx context.Context, id int64) (*models.Payment, error)
	List(ctx context.Context, filter models.PaymentFilter) ([]*models.Payment, error)
	Update(ctx context.Context, id int64, upd models.PaymentUpdate) (*models.Payment, error)
	Delete(ctx context.Context, id int64) error
}

// Handler обрабатывает запросы к платежам.
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

// Validate godoc
// @Summary Подтвердить платёж
// @Description Переводит платёж из pending в validated и активирует клиента.
// @Tags Payments
// @Produce  json
// @Param id path int true "ID платежа"
// @Success 200 {object} models.Payment
// @Failure 404 {object} response.ErrorResponse "Платёж не найден"
// @Failure 409 {object} response.ErrorResponse "Платёж уже обработан"
// @Security BearerAuth
// @Router /payments/{id}/validate [post]
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.payments.Validate")

	id, err := request.ID(r, "id")
	if err != nil {
		response.LogFail(log, w, r, "invalid payment id", err)
		return
	}
	payment, err := h.service.Validate(r.Context(), id, middlewarectx.UserUIDFrom(r.Context()))
	if err != nil {
		response.LogFail(log, w, r, "failed to validate payment", err)
		return
	}
	response.OK(w, r, http.StatusOK, payment)
}

// Reject godoc
// @Summary Отклонить платёж
// @Description Переводит платёж из pending в rejected, клиент становится неактивным.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param id path int true "ID платежа"
// @Param request body models.RejectRequest false "Причина"
// @Success 200 {object} models.Payment
// @Failure 409 {object} response.ErrorResponse "Платёж уже обработан"
// @Security BearerAuth
// @Router /payments/{id}/reject [post]
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.payments.Reject")

	id, err := request.ID(r, "id")
	if err != nil {
		response.LogFail(log, w, r, "invalid payment id", err)
		return
	}
	var req models.RejectRequest
	if r.ContentLength != 0 {
		if err := request.Decode(r, &req); err != nil {
			response.LogFail(log, w, r, "invalid reject request", err)
			return
		}
	}
	payment, err := h.service.Reject(r.Context(), id, middlewarectx.UserUIDFrom(r.Context()), req.Reason)
	if err != nil {
		response.LogFail(log, w, r, "failed to reject payment", err)
		return
	}
	response.OK(w, r, http.StatusOK, payment)
}

// List платежи с фильтром по статусу.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.payments.List")

	limit, err := request.Int(r, "limit", defaultLimit)
	if err != nil {
		response.LogFail(log, w, r, "invalid query", err)
		return
	}
	offset, err := request.Int(r, "offset", 0)
	if err != nil {
		response.LogFail(log, w, r, "invalid query", err)
		return
	}
	if limit == 0 || limit > maxLimit {
		limit = maxLimit
	}

	payments, err := h.service.List(r.Context(), models.PaymentFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		response.LogFail(log, w, r, "failed to list payments", err)
		return
	}
	response.OK(w, r, http.StatusOK, map[string]any{
		"count":    len(payments),
		"payments": payments,
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.payments.Get")

	id, err := request.ID(r, "id")
	if err != nil {
		response.LogFail(log, w, r, "invalid payment id", err)
		return
	}
	payment, err := h.service.Get(r.Context(), id)
	if err != nil {
		response.LogFail(log, w, r, "failed to get payment", err)
		return
	}
	response.OK(w, r, http.StatusOK, payment)
}

// Update правит платёж, пока он не обработан.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.payments.Update")

	id, err := request.ID(r, "id")
	if err != nil {
		response.LogFail(log, w, r, "invalid payment id", err)
		return
	}
	var upd models.PaymentUpdate
	if err := request.Decode(r, &upd); err != nil {
		response.LogFail(log, w, r, "invalid payment update", err)
		return
	}
	payment, err := h.service.Update(r.Context(), id, upd)
	if err != nil {
		response.LogFail(log, w, r, "failed to update payment", err)
		return
	}
	response.OK(w, r, http.StatusOK, payment)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.payments.Delete")

	id, err := request.ID(r, "id")
	if err != nil {
		response.LogFail(log, w, r, "invalid payment id", err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		response.LogFail(log, w, r, "failed to delete payment", err)
		return
	}
	response.OK(w, r, http.StatusOK, map[string]any{"deleted": id})
}
