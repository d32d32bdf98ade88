package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/membership-manager/internal/lib/password"
	"github.com/magabrotheeeer/membership-manager/internal/models"
	services "github.com/magabrotheeeer/membership-manager/internal/services/auth"
)

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) CreateUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *UserRepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUser(ctx context.Context, uid string) (*models.User, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) ListUsers(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *UserRepoMock) UpdateUser(ctx context.Context, uid string, upd models.UserUpdate) (*models.User, error) {
	args := m.Called(ctx, uid, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) DeleteUser(ctx context.Context, uid string) error {
	return m.Called(ctx, uid).Error(0)
}

func (m *UserRepoMock) CountUsers(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// Мок для выпуска токенов
type JwtMakerMock struct {
	mock.Mock
}

func (m *JwtMakerMock) GenerateToken(uid, email, role string) (string, error) {
	args := m.Called(uid, email, role)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestAuthService_Login(t *testing.T) {
	hash, err := password.GetHash("secret123")
	require.NoError(t, err)

	active := &models.User{UID: "u1", Email: "ana@gym.co", Name: "Ana", PasswordHash: hash, Role: models.RoleAdmin, IsActive: true}
	disabled := &models.User{UID: "u2", Email: "leo@gym.co", Name: "Leo", PasswordHash: hash, Role: models.RoleEmployee}

	tests := []struct {
		name       string
		email      string
		password   string
		setupMocks func(r *UserRepoMock, j *JwtMakerMock)
		want       *models.LoginResponse
		wantErr    error
	}{
		{
			name:     "successful login",
			email:    "ana@gym.co",
			password: "secret123",
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "ana@gym.co").Return(active, nil).Once()
				j.On("GenerateToken", "u1", "ana@gym.co", models.RoleAdmin).Return("token", nil).Once()
			},
			want: &models.LoginResponse{Token: "token", Role: models.RoleAdmin, Name: "Ana"},
		},
		{
			name:     "wrong password",
			email:    "ana@gym.co",
			password: "nope",
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "ana@gym.co").Return(active, nil).Once()
			},
			wantErr: models.ErrUnauthorized,
		},
		{
			name:     "unknown email",
			email:    "who@gym.co",
			password: "secret123",
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "who@gym.co").
					Return(nil, models.Errorf(models.ErrNotFound, "user not found")).Once()
			},
			wantErr: models.ErrUnauthorized,
		},
		{
			name:     "inactive user",
			email:    "leo@gym.co",
			password: "secret123",
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "leo@gym.co").Return(disabled, nil).Once()
			},
			wantErr: models.ErrUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, j := &UserRepoMock{}, &JwtMakerMock{}
			tt.setupMocks(r, j)

			got, err := services.NewAuthService(r, j, newNoopLogger()).Login(context.Background(), tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				j.AssertNotCalled(t, "GenerateToken", mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			r.AssertExpectations(t)
			j.AssertExpectations(t)
		})
	}
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	tests := []struct {
		name        string
		email       string
		setupMocks  func(r *UserRepoMock)
		wantCreated bool
		wantErr     bool
	}{
		{
			name:  "creates admin on empty table",
			email: "Admin@Gym.co",
			setupMocks: func(r *UserRepoMock) {
				r.On("CountUsers", mock.Anything).Return(0, nil).Once()
				r.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
					return u.Email == "admin@gym.co" && u.Role == models.RoleAdmin && u.IsActive &&
						password.CompareHash(u.PasswordHash, "changeme") == nil
				})).Return("uid-1", nil).Once()
				r.On("GetUser", mock.Anything, "uid-1").Return(&models.User{UID: "uid-1"}, nil).Once()
			},
			wantCreated: true,
		},
		{
			name:  "users already exist",
			email: "admin@gym.co",
			setupMocks: func(r *UserRepoMock) {
				r.On("CountUsers", mock.Anything).Return(2, nil).Once()
			},
		},
		{
			name: "not configured",
			setupMocks: func(r *UserRepoMock) {
				r.On("CountUsers", mock.Anything).Return(0, nil).Once()
			},
		},
		{
			name:  "count fails",
			email: "admin@gym.co",
			setupMocks: func(r *UserRepoMock) {
				r.On("CountUsers", mock.Anything).Return(0, errors.New("db down")).Once()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &UserRepoMock{}
			tt.setupMocks(r)

			created, err := services.NewAuthService(r, &JwtMakerMock{}, newNoopLogger()).
				EnsureAdmin(context.Background(), tt.email, "Admin", "changeme")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCreated, created)
			r.AssertExpectations(t)
		})
	}
}

func TestAuthService_UpdateUserHashesPassword(t *testing.T) {
	r := &UserRepoMock{}
	pass := "new-secret"
	r.On("UpdateUser", mock.Anything, "u1", mock.MatchedBy(func(u models.UserUpdate) bool {
		return u.PasswordHash != nil && password.CompareHash(*u.PasswordHash, pass) == nil
	})).Return(&models.User{UID: "u1"}, nil).Once()

	_, err := services.NewAuthService(r, &JwtMakerMock{}, newNoopLogger()).
		UpdateUser(context.Background(), "u1", models.UserUpdate{Password: &pass})
	require.NoError(t, err)
	r.AssertExpectations(t)
}

func TestAuthService_DeleteSelf(t *testing.T) {
	r := &UserRepoMock{}
	s := services.NewAuthService(r, &JwtMakerMock{}, newNoopLogger())

	err := s.DeleteUser(context.Background(), "u1", "u1")
	assert.ErrorIs(t, err, models.ErrInvalidState)

	r.On("DeleteUser", mock.Anything, "u2").Return(nil).Once()
	require.NoError(t, s.DeleteUser(context.Background(), "u2", "u1"))
}

func TestAuthService_BlankNameRejected(t *testing.T) {
	r := &UserRepoMock{}
	s := services.NewAuthService(r, &JwtMakerMock{}, newNoopLogger())

	_, err := s.CreateUser(context.Background(), models.CreateUserRequest{
		Email: "leo@gym.co", Name: "<i></i>", Password: "secret",
	})
	assert.ErrorIs(t, err, models.ErrValidation)

	blank := "   "
	_, err = s.UpdateUser(context.Background(), "u1", models.UserUpdate{Name: &blank})
	assert.ErrorIs(t, err, models.ErrValidation)

	r.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	r.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything, mock.Anything)
}
