// Package clients реализует HTTP-обработчики жизненного цикла клиента:
// регистрацию, продление, регистрацию платежа и сверку статусов.
package clients

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
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

// Service описывает интерфейс бизнес-логики клиентов.
type Service interface {
	Register(ctx context.Context, req models.RegisterClientRequest, actor string) (*models.RegisterResult, error)
	Renew(ctx context.Context, document string, req models.RenewRequest, actor string) (*models.RenewResult, error)
	RecordPayment(ctx context.Context, document string, req models.RecordPaymentRequest, actor string) (*models.RecordPaymentResult, error)
	RefreshStatuses(ctx context.Context) (models.SweepResult, error)
	Import(ctx context.Context, rows []models.ImportClientRow) (*models.ImportResult, error)
	List(ctx context.Context, filter models.ClientFilter) ([]*models.Client, error)
	Get(ctx context.Context, document string) (*models.ClientDetails, error)
	Update(ctx context.Context, document string, upd models.ClientUpdate) (*models.Client, error)
	Delete(ctx context.Context, document string) error
}

// Handler обрабатывает запросы к клиентам.
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

// Register godoc
// @Summary Зарегистрировать клиента
// @Description Создает клиента в статусе pending с окном абонемента по тарифу,
// @Description необязательным подарком до 3 дней и необязательным первым платежом.
// @Tags Clients
// @Accept  json
// @Produce  json
// @Param request body models.RegisterClientRequest true "Данные клиента"
// @Success 201 {object} models.RegisterResult
// @Failure 409 {object} response.ErrorResponse "Документ уже зарегистрирован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Security BearerAuth
// @Router /clients [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.clients.Register")

	var req models.RegisterClientRequest
	if err := request.Decode(r, &req); err != nil {
		response.LogFail(log, w, r, "invalid register request", err)
		return
	}

	res, err := h.service.Register(r.Context(), req, middlewarectx.UserUIDFrom(r.Context()))
	if err != nil {
		response.LogFail(log, w, r, "failed to register client", err)
		return
	}
	log.Info("client registered", slog.String("document", res.Client.Document))
	response.OK(w, r, http.StatusCreated, res)
}

// Import godoc
// @Summary Импортировать клиентов
// @Description Переносит действующих клиентов списком; каждая строка сохраняется отдельно,
// @Description строки с ошибками попадают в итог и не прерывают импорт.
// @Tags Clients
// @Accept  json
// @Produce  json
// @Param request body models.ImportClientsRequest true "Строки импорта"
// @Success 200 {object} models.ImportResult
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Security BearerAuth
// @Router /clients/import [post]
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.clients.Import")

	var req models.ImportClientsRequest
	if err := request.Decode(r, &req); err != nil {
		response.LogFail(log, w, r, "invalid import request", err)
		return
	}
	res, err := h.service.Import(r.Context(), req.Clients)
	if err != nil {
		response.LogFail(log, w, r, "failed to import clients", err)
		return
	}
	response.OK(w, r, http.StatusOK, res)
}

// Renew godoc
// @Summary Продлить абонемент
// @Description Начинает новое окно абонемента с сегодняшнего дня; клиент сразу становится активным.
// @Tags Clients
// @Accept  json
// @Produce  json
// @Param document path string true "Документ клиента"
// @Param request body models.RenewRequest true "Тариф и подарочные дни"
// @Success 200 {object} models.RenewResult
// @Failure 404 {object} response.ErrorResponse "Клиент не найден"
// @Security BearerAuth
// @Router /clients/{document}/renew [post]
func (h *Handler) Renew(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.clients.Renew")

	var req models.RenewRequest
	if err := request.Decode(r, &req); err != nil {
		response.LogFail(log, w, r, "invalid renew request", err)
		return
	}
	res, err := h.service.Renew(r.Context(), chi.URLParam(r, "document"), req, middlewarectx.UserUIDFrom(r.Context()))
	if err != nil {
		response.LogFail(log, w, r, "failed to renew membership", err)
		return
	}
	response.OK(w, r, http.StatusOK, res)
}

// RecordPayment godoc
// @Summary Зарегистрировать платёж
// @Description Записывает платёж в статусе pending и сдвигает даты абонемента.
// @Tags Clients
// @Accept  json
// @Produce  json
// @Param document path string true "Документ клиента"
// @Param request body models.RecordPaymentRequest true "Платёж"
// @Success 201 {object} models.RecordPaymentResult
// @Security BearerAuth
// @Router /clients/{document}/payments [post]
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.clients.RecordPayment")

	var req models.RecordPaymentRequest
	if err := request.Decode(r, &req); err != nil {
		response.LogFail(log, w, r, "invalid payment request", err)
		return
	}
	res, err := h.service.RecordPayment(r.Context(), chi.URLParam(r, "document"), req, middlewarectx.UserUIDFrom(r.Context()))
	if err != nil {
		response.LogFail(log, w, r, "failed to record payment", err)
		return
	}
	response.OK(w, r, http.StatusCreated, res)
}

// RefreshStatuses сверяет статусы всех клиентов с датами абонементов.
func (h *Handler) RefreshStatuses(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.clients.RefreshStatuses")

	res, err := h.service.RefreshStatuses(r.Context())
	if err != nil {
		response.LogFail(log, w, r, "status sweep failed", err)
		return
	}
	response.OK(w, r, http.StatusOK, res)
}

// List ищет клиентов по q и статусу.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.clients.List")

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

	clients, err := h.service.List(r.Context(), models.ClientFilter{
		Query:  r.URL.Query().Get("q"),
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		response.LogFail(log, w, r, "failed to list clients", err)
		return
	}
	response.OK(w, r, http.StatusOK, map[string]any{
		"count":   len(clients),
		"clients": clients,
	})
}

// Get карточка клиента.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.clients.Get")

	details, err := h.service.Get(r.Context(), chi.URLParam(r, "document"))
	if err != nil {
		response.LogFail(log, w, r, "failed to get client", err)
		return
	}
	response.OK(w, r, http.StatusOK, details)
}

// Update меняет анкетные данные клиента.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.clients.Update")

	var upd models.ClientUpdate
	if err := request.Decode(r, &upd); err != nil {
		response.LogFail(log, w, r, "invalid client update", err)
		return
	}
	client, err := h.service.Update(r.Context(), chi.URLParam(r, "document"), upd)
	if err != nil {
		response.LogFail(log, w, r, "failed to update client", err)
		return
	}
	response.OK(w, r, http.StatusOK, client)
}

// Delete удаляет клиента.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.clients.Delete")

	document := chi.URLParam(r, "document")
	if err := h.service.Delete(r.Context(), document); err != nil {
		response.LogFail(log, w, r, "failed to delete client", err)
		return
	}
	response.OK(w, r, http.StatusOK, map[string]any{"deleted": document})
}
