// Package services содержит логику бизнес-уровня для работы с сотрудниками и аутентификацией.
package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/membership-manager/internal/lib/password"
	"github.com/magabrotheeeer/membership-manager/internal/lib/sanitize"
	"github.com/magabrotheeeer/membership-manager/internal/models"
)

// UserRepository описывает контракт для работы с сотрудниками в базе данных.
type UserRepository interface {
	// CreateUser сохраняет нового сотрудника и возвращает его UID.
	CreateUser(ctx context.Context, user models.User) (string, error)

	// GetUserByEmail возвращает сотрудника по e-mail без учёта регистра.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	GetUser(ctx context.Context, uid string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateUser(ctx context.Context, uid string, upd models.UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, uid string) error
	CountUsers(ctx context.Context) (int, error)
}

// TokenMaker выпускает токены доступа.
type TokenMaker interface {
	GenerateToken(uid, email, role string) (string, error)
}

// AuthService отвечает за вход сотрудников и управление их учётными записями.
type AuthService struct {
	users    UserRepository
	jwtMaker TokenMaker
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker TokenMaker, log *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
		log:      log,
	}
}

// Login проверяет пароль сотрудника и выпускает JWT. Неизвестный e-mail,
// неверный пароль и отключённая учётная запись дают одну и ту же ошибку.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (*models.LoginResponse, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.Errorf(models.ErrUnauthorized, "invalid credentials")
		}
		return nil, err
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return nil, models.Errorf(models.ErrUnauthorized, "invalid credentials")
	}
	if !user.IsActive {
		return nil, models.Errorf(models.ErrUnauthorized, "invalid credentials")
	}

	token, err := s.jwtMaker.GenerateToken(user.UID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	return &models.LoginResponse{Token: token, Role: user.Role, Name: user.Name}, nil
}

// CreateUser создает сотрудника с хешированным паролем.
func (s *AuthService) CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	name, err := sanitize.Required("name", req.Name)
	if err != nil {
		return nil, err
	}
	hashed, err := password.GetHash(req.Password)
	if err != nil {
		return nil, models.Errorf(models.ErrValidation, "password is required")
	}
	user := models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         name,
		PasswordHash: hashed,
		Role:         req.Role,
		IsActive:     true,
	}
	if user.Role == "" {
		user.Role = models.RoleEmployee
	}
	uid, err := s.users.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}
	s.log.Info("user created", slog.String("uid", uid), slog.String("role", user.Role))
	return s.users.GetUser(ctx, uid)
}

// EnsureAdmin создает администратора, если в системе ещё нет ни одного сотрудника.
// Возвращает true, если администратор был создан.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, name, rawPassword string) (bool, error) {
	n, err := s.users.CountUsers(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if email == "" || rawPassword == "" {
		s.log.Warn("no users exist and bootstrap admin is not configured")
		return false, nil
	}
	if _, err := s.CreateUser(ctx, models.CreateUserRequest{
		Email:    email,
		Name:     name,
		Password: rawPassword,
		Role:     models.RoleAdmin,
	}); err != nil {
		return false, err
	}
	return true, nil
}

// ListUsers возвращает всех сотрудников.
func (s *AuthService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.users.ListUsers(ctx)
}

// UpdateUser меняет имя, роль, активность или пароль сотрудника.
func (s *AuthService) UpdateUser(ctx context.Context, uid string, upd models.UserUpdate) (*models.User, error) {
	var err error
	if upd.Name, err = sanitize.RequiredPtr("name", upd.Name); err != nil {
		return nil, err
	}
	if upd.Password != nil {
		hashed, err := password.GetHash(*upd.Password)
		if err != nil {
			return nil, models.Errorf(models.ErrValidation, "password must not be empty")
		}
		upd.PasswordHash = &hashed
	}
	return s.users.UpdateUser(ctx, uid, upd)
}

// DeleteUser удаляет сотрудника. Сотрудник не может удалить сам себя.
func (s *AuthService) DeleteUser(ctx context.Context, uid, actor string) error {
	if uid == actor {
		return models.Errorf(models.ErrInvalidState, "cannot delete own account")
	}
	if err := s.users.DeleteUser(ctx, uid); err != nil {
		return err
	}
	s.log.Info("user deleted", slog.String("uid", uid))
	return nil
}
