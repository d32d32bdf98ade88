package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/membership-manager/internal/http/middlewarectx"
	"github.com/magabrotheeeer/membership-manager/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	args := m.Called(ctx, email, password)
	if res := args.Get(0); res != nil {
		return res.(*models.LoginResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockService) CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	if res := args.Get(0); res != nil {
		return res.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockService) ListUsers(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if res := args.Get(0); res != nil {
		return res.([]*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockService) UpdateUser(ctx context.Context, uid string, upd models.UserUpdate) (*models.User, error) {
	args := m.Called(ctx, uid, upd)
	if res := args.Get(0); res != nil {
		return res.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockService) DeleteUser(ctx context.Context, uid, actor string) error {
	return m.Called(ctx, uid, actor).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestLoginHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешный вход",
			body: `{"email":"ana@gym.co","password":"secret"}`,
			setupMock: func(m *MockService) {
				m.On("Login", mock.Anything, "ana@gym.co", "secret").
					Return(&models.LoginResponse{Token: "tok", Role: models.RoleAdmin, Name: "Ana"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"token":"tok"`,
		},
		{
			name: "неверный пароль",
			body: `{"email":"ana@gym.co","password":"nope"}`,
			setupMock: func(m *MockService) {
				m.On("Login", mock.Anything, "ana@gym.co", "nope").
					Return(nil, models.Errorf(models.ErrUnauthorized, "invalid credentials"))
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"invalid credentials"}`,
		},
		{
			name:           "некорректный e-mail",
			body:           `{"email":"ana","password":"x"}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field Email must be a valid email`,
		},
		{
			name: "ошибка хранилища",
			body: `{"email":"ana@gym.co","password":"secret"}`,
			setupMock: func(m *MockService) {
				m.On("Login", mock.Anything, "ana@gym.co", "secret").Return(nil, errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			New(newNoopLogger(), svc).Login(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestDeleteUserHandler(t *testing.T) {
	svc := new(MockService)
	svc.On("DeleteUser", mock.Anything, "u1", "u1").
		Return(models.Errorf(models.ErrInvalidState, "cannot delete own account"))

	req := httptest.NewRequest(http.MethodDelete, "/users/u1", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("uid", "u1")
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, middlewarectx.UserUID, "u1")
	w := httptest.NewRecorder()

	New(newNoopLogger(), svc).DeleteUser(w, req.WithContext(ctx))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "cannot delete own account")
}

func TestCreateUserHandler(t *testing.T) {
	svc := new(MockService)
	req := models.CreateUserRequest{Email: "leo@gym.co", Name: "Leo", Password: "secret1", Role: models.RoleEmployee}
	svc.On("CreateUser", mock.Anything, req).Return(&models.User{UID: "u2", Email: "leo@gym.co"}, nil)

	r := httptest.NewRequest(http.MethodPost, "/users",
		strings.NewReader(`{"email":"leo@gym.co","name":"Leo","password":"secret1","role":"employee"}`))
	w := httptest.NewRecorder()

	New(newNoopLogger(), svc).CreateUser(w, r)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"uid":"u2"`)
	assert.NotContains(t, w.Body.String(), "password")
}
