// Package bonuses реализует HTTP-обработчики подарочных дней.
package bonuses

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

// Service описывает интерфейс бизнес-логики бонусов.
type Service interface {
	Create(ctx context.Context, req models.CreateBonusRequest, actor string) (*models.BonusResult, error)
	Apply(ctx context.Context, id int64) (*models.BonusResult, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*models.Bonus, error)
	List(ctx context.Context, state string) ([]*models.Bonus, error)
	Stats(ctx context.Context) (*models.BonusStats, error)
}

// Handler обрабатывает запросы к бонусам.
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

// Create godoc
// @Summary Выдать бонус
// @Description Выдаёт клиенту от 1 до 3 подарочных дней; apply_now сразу продлевает абонемент.
// @Tags Bonuses
// @Accept  json
// @Produce  json
// @Param request body models.CreateBonusRequest true "Бонус"
// @Success 201 {object} models.BonusResult
// @Failure 404 {object} response.ErrorResponse "Клиент не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Security BearerAuth
// @Router /bonuses [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.bonuses.Create")

	var req models.CreateBonusRequest
	if err := request.Decode(r, &req); err != nil {
		response.LogFail(log, w, r, "invalid bonus request", err)
		return
	}
	res, err := h.service.Create(r.Context(), req, middlewarectx.UserUIDFrom(r.Context()))
	if err != nil {
		response.LogFail(log, w, r, "failed to grant bonus", err)
		return
	}
	response.OK(w, r, http.StatusCreated, res)
}

// Apply godoc
// @Summary Применить бонус
// @Tags Bonuses
// @Produce  json
// @Param id path int true "ID бонуса"
// @Success 200 {object} models.BonusResult
// @Failure 409 {object} response.ErrorResponse "Бонус уже применён или у клиента нет даты окончания"
// @Security BearerAuth
// @Router /bonuses/{id}/apply [post]
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.bonuses.Apply")

	id, err := request.ID(r, "id")
	if err != nil {
		response.LogFail(log, w, r, "invalid bonus id", err)
		return
	}
	res, err := h.service.Apply(r.Context(), id)
	if err != nil {
		response.LogFail(log, w, r, "failed to apply bonus", err)
		return
	}
	response.OK(w, r, http.StatusOK, res)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.bonuses.Delete")

	id, err := request.ID(r, "id")
	if err != nil {
		response.LogFail(log, w, r, "invalid bonus id", err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		response.LogFail(log, w, r, "failed to delete bonus", err)
		return
	}
	response.OK(w, r, http.StatusOK, map[string]any{"deleted": id})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.bonuses.Get")

	id, err := request.ID(r, "id")
	if err != nil {
		response.LogFail(log, w, r, "invalid bonus id", err)
		return
	}
	bonus, err := h.service.Get(r.Context(), id)
	if err != nil {
		response.LogFail(log, w, r, "failed to get bonus", err)
		return
	}
	response.OK(w, r, http.StatusOK, bonus)
}

// List бонусы, state=applied|pending.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.bonuses.List")

	bonuses, err := h.service.List(r.Context(), r.URL.Query().Get("state"))
	if err != nil {
		response.LogFail(log, w, r, "failed to list bonuses", err)
		return
	}
	response.OK(w, r, http.StatusOK, map[string]any{
		"count":   len(bonuses),
		"bonuses": bonuses,
	})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.bonuses.Stats")

	stats, err := h.service.Stats(r.Context())
	if err != nil {
		response.LogFail(log, w, r, "failed to get bonus stats", err)
		return
	}
	response.OK(w, r, http.StatusOK, stats)
}
