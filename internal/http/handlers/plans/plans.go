// Package plans реализует HTTP-обработчики тарифов абонементов.
package plans

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/membership-manager/internal/http/request"
	"github.com/magabrotheeeer/membership-manager/internal/http/response"
	"github.com/magabrotheeeer/membership-manager/internal/models"
)

// Service описывает интерфейс бизнес-логики тарифов.
type Service interface {
	Create(ctx context.Context, req models.CreatePlanRequest) (*models.Plan, error)
	Get(ctx context.Context, id int64) (*models.Plan, error)
	List(ctx context.Context, all bool) ([]*models.Plan, error)
	Update(ctx context.Context, id int64, upd models.PlanUpdate) (*models.Plan, error)
	Retire(ctx context.Context, id int64) error
	Stats(ctx context.Context) (*models.PlanStats, error)
}

// Handler обрабатывает запросы к тарифам.
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
// @Summary Создать тариф
// @Tags Plans
// @Accept  json
// @Produce  json
// @Param request body models.CreatePlanRequest true "Тариф"
// @Success 201 {object} models.Plan
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Security BearerAuth
// @Router /plans [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.plans.Create")

	var req models.CreatePlanRequest
	if err := request.Decode(r, &req); err != nil {
		response.LogFail(log, w, r, "invalid plan request", err)
		return
	}
	plan, err := h.service.Create(r.Context(), req)
	if err != nil {
		response.LogFail(log, w, r, "failed to create plan", err)
		return
	}
	response.OK(w, r, http.StatusCreated, plan)
}

// List godoc
// @Summary Список тарифов
// @Description По умолчанию только тарифы в продаже; all=true включает выведенные.
// @Tags Plans
// @Produce  json
// @Param all query bool false "Включить выведенные из продажи"
// @Success 200 {object} response.Response
// @Security BearerAuth
// @Router /plans [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.plans.List")

	all, err := request.Bool(r, "all")
	if err != nil {
		response.LogFail(log, w, r, "invalid query", err)
		return
	}
	plans, err := h.service.List(r.Context(), all)
	if err != nil {
		response.LogFail(log, w, r, "failed to list plans", err)
		return
	}
	response.OK(w, r, http.StatusOK, map[string]any{
		"count": len(plans),
		"plans": plans,
	})
}

// Get возвращает тариф.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.plans.Get")

	id, err := request.ID(r, "id")
	if err != nil {
		response.LogFail(log, w, r, "invalid plan id", err)
		return
	}
	plan, err := h.service.Get(r.Context(), id)
	if err != nil {
		response.LogFail(log, w, r, "failed to get plan", err)
		return
	}
	response.OK(w, r, http.StatusOK, plan)
}

// Update меняет тариф.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.plans.Update")

	id, err := request.ID(r, "id")
	if err != nil {
		response.LogFail(log, w, r, "invalid plan id", err)
		return
	}
	var upd models.PlanUpdate
	if err := request.Decode(r, &upd); err != nil {
		response.LogFail(log, w, r, "invalid plan update", err)
		return
	}
	plan, err := h.service.Update(r.Context(), id, upd)
	if err != nil {
		response.LogFail(log, w, r, "failed to update plan", err)
		return
	}
	response.OK(w, r, http.StatusOK, plan)
}

// Retire выводит тариф из продажи.
func (h *Handler) Retire(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.plans.Retire")

	id, err := request.ID(r, "id")
	if err != nil {
		response.LogFail(log, w, r, "invalid plan id", err)
		return
	}
	if err := h.service.Retire(r.Context(), id); err != nil {
		response.LogFail(log, w, r, "failed to retire plan", err)
		return
	}
	response.OK(w, r, http.StatusOK, map[string]any{"retired": id})
}

// Stats агрегаты по тарифам.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.plans.Stats")

	stats, err := h.service.Stats(r.Context())
	if err != nil {
		response.LogFail(log, w, r, "failed to get plan stats", err)
		return
	}
	response.OK(w, r, http.StatusOK, stats)
}
