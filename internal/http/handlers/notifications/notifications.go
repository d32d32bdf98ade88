// Package notifications реализует HTTP-обработчики рассылки уведомлений клиентам.
package notifications

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/membership-manager/internal/http/response"
	"github.com/magabrotheeeer/membership-manager/internal/models"
)

// Service описывает интерфейс отправки уведомлений.
type Service interface {
	NotifyClient(ctx context.Context, document, kind string) error
	SendExpiryWarnings(ctx context.Context) (models.BulkResult, error)
	SendReactivations(ctx context.Context) (models.BulkResult, error)
}

// Handler обрабатывает запросы на рассылку.
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

// ExpiryWarnings godoc
// @Summary Предупредить об окончании абонемента
// @Description Письма активным клиентам, у которых абонемент заканчивается в пределах порога.
// @Tags Notifications
// @Produce  json
// @Success 200 {object} models.BulkResult
// @Security BearerAuth
// @Router /notifications/expiry-warnings [post]
func (h *Handler) ExpiryWarnings(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.notifications.ExpiryWarnings")

	res, err := h.service.SendExpiryWarnings(r.Context())
	if err != nil {
		response.LogFail(log, w, r, "expiry warnings failed", err)
		return
	}
	response.OK(w, r, http.StatusOK, res)
}

// Reactivation приглашения всем неактивным клиентам с почтой.
func (h *Handler) Reactivation(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.notifications.Reactivation")

	res, err := h.service.SendReactivations(r.Context())
	if err != nil {
		response.LogFail(log, w, r, "reactivation mailing failed", err)
		return
	}
	response.OK(w, r, http.StatusOK, res)
}

// NotifyClient godoc
// @Summary Уведомить клиента
// @Tags Notifications
// @Produce  json
// @Param document path string true "Документ клиента"
// @Param kind path string true "expiry, renewal или reactivation"
// @Success 202 {object} response.Response
// @Failure 409 {object} response.ErrorResponse "Клиент не в подходящем статусе"
// @Failure 422 {object} response.ErrorResponse "Нет почты или неизвестный вид"
// @Security BearerAuth
// @Router /clients/{document}/notifications/{kind} [post]
func (h *Handler) NotifyClient(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.notifications.NotifyClient")

	document, kind := chi.URLParam(r, "document"), chi.URLParam(r, "kind")
	if err := h.service.NotifyClient(r.Context(), document, kind); err != nil {
		response.LogFail(log, w, r, "notification not sent", err)
		return
	}
	response.OK(w, r, http.StatusAccepted, map[string]any{
		"document": document,
		"kind":     kind,
	})
}
