// Package auth реализует HTTP-обработчики входа сотрудников и управления их
// учётными записями.
package auth

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

// Service описывает интерфейс бизнес-логики аутентификации.
type Service interface {
	Login(ctx context.Context, email, password string) (*models.LoginResponse, error)
	CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateUser(ctx context.Context, uid string, upd models.UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, uid, actor string) error
}

// Handler обрабатывает запросы входа и управления сотрудниками.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// Login godoc
// @Summary Вход сотрудника
// @Description Проверяет e-mail и пароль и возвращает JWT-токен.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body models.LoginRequest true "Учётные данные"
// @Success 200 {object} models.LoginResponse
// @Failure 401 {object} response.ErrorResponse "Неверные учётные данные"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.auth.Login")

	var req models.LoginRequest
	if err := request.Decode(r, &req); err != nil {
		response.LogFail(log, w, r, "invalid login request", err)
		return
	}

	res, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		response.LogFail(log, w, r, "login failed", err)
		return
	}

	log.Info("user logged in", slog.String("role", res.Role))
	response.OK(w, r, http.StatusOK, res)
}

// CreateUser создает сотрудника.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.auth.CreateUser")

	var req models.CreateUserRequest
	if err := request.Decode(r, &req); err != nil {
		response.LogFail(log, w, r, "invalid user request", err)
		return
	}

	user, err := h.service.CreateUser(r.Context(), req)
	if err != nil {
		response.LogFail(log, w, r, "failed to create user", err)
		return
	}
	response.OK(w, r, http.StatusCreated, user)
}

// ListUsers возвращает всех сотрудников.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.auth.ListUsers")

	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		response.LogFail(log, w, r, "failed to list users", err)
		return
	}
	response.OK(w, r, http.StatusOK, map[string]any{
		"count": len(users),
		"users": users,
	})
}

// UpdateUser меняет данные сотрудника.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.auth.UpdateUser")

	var upd models.UserUpdate
	if err := request.Decode(r, &upd); err != nil {
		response.LogFail(log, w, r, "invalid user update", err)
		return
	}

	user, err := h.service.UpdateUser(r.Context(), chi.URLParam(r, "uid"), upd)
	if err != nil {
		response.LogFail(log, w, r, "failed to update user", err)
		return
	}
	response.OK(w, r, http.StatusOK, user)
}

// DeleteUser удаляет сотрудника.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.auth.DeleteUser")

	uid := chi.URLParam(r, "uid")
	if err := h.service.DeleteUser(r.Context(), uid, middlewarectx.UserUIDFrom(r.Context())); err != nil {
		response.LogFail(log, w, r, "failed to delete user", err)
		return
	}
	log.Info("user deleted", slog.String("uid", uid))
	response.OK(w, r, http.StatusOK, map[string]any{"deleted": uid})
}
