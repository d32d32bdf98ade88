package reports

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/membership-manager/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	args := m.Called(ctx)
	if res := args.Get(0); res != nil {
		return res.(*models.Dashboard), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockService) Payments(ctx context.Context, from, to *time.Time) (*models.PaymentReport, error) {
	args := m.Called(ctx, from, to)
	if res := args.Get(0); res != nil {
		return res.(*models.PaymentReport), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockService) Clients(ctx context.Context) (*models.ClientStats, error) {
	args := m.Called(ctx)
	if res := args.Get(0); res != nil {
		return res.(*models.ClientStats), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockService) Attendance(ctx context.Context) (*models.AttendanceStats, error) {
	args := m.Called(ctx)
	if res := args.Get(0); res != nil {
		return res.(*models.AttendanceStats), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockService) TopClients(ctx context.Context, limit int) ([]*models.TopClient, error) {
	args := m.Called(ctx, limit)
	if res := args.Get(0); res != nil {
		return res.([]*models.TopClient), args.Error(1)
	}
	return nil, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestDashboardHandler(t *testing.T) {
	t.Run("успех", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Dashboard", mock.Anything).Return(&models.Dashboard{}, nil)

		w := httptest.NewRecorder()
		New(newNoopLogger(), svc).Dashboard(w, httptest.NewRequest(http.MethodGet, "/reports/dashboard", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("внутренняя ошибка не раскрывается", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Dashboard", mock.Anything).Return(nil, errors.New("pq: connection refused"))

		w := httptest.NewRecorder()
		New(newNoopLogger(), svc).Dashboard(w, httptest.NewRequest(http.MethodGet, "/reports/dashboard", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "internal server error")
		assert.NotContains(t, w.Body.String(), "connection refused")
	})
}

func TestPaymentsHandler(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	svc := new(MockService)
	svc.On("Payments", mock.Anything, &from, &to).Return(&models.PaymentReport{}, nil)

	w := httptest.NewRecorder()
	New(newNoopLogger(), svc).Payments(w, httptest.NewRequest(http.MethodGet, "/reports/payments?from=2024-03-01&to=2024-03-31", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestTopClientsHandler(t *testing.T) {
	tests := []struct {
		name  string
		query string
		limit int
	}{
		{name: "по умолчанию", query: "", limit: defaultTopLimit},
		{name: "явный лимит", query: "?limit=3", limit: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("TopClients", mock.Anything, tt.limit).Return([]*models.TopClient{}, nil)

			w := httptest.NewRecorder()
			New(newNoopLogger(), svc).TopClients(w, httptest.NewRequest(http.MethodGet, "/reports/top-clients"+tt.query, nil))

			assert.Equal(t, http.StatusOK, w.Code)
			svc.AssertExpectations(t)
		})
	}
}
