package notifications

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/membership-manager/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) NotifyClient(ctx context.Context, document, kind string) error {
	return m.Called(ctx, document, kind).Error(0)
}

func (m *MockService) SendExpiryWarnings(ctx context.Context) (models.BulkResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.BulkResult), args.Error(1)
}

func (m *MockService) SendReactivations(ctx context.Context) (models.BulkResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.BulkResult), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestBulkHandlers(t *testing.T) {
	svc := new(MockService)
	svc.On("SendExpiryWarnings", mock.Anything).Return(models.BulkResult{Sent: 2, Failed: 1, Total: 3}, nil)
	svc.On("SendReactivations", mock.Anything).Return(models.BulkResult{}, nil)
	h := New(newNoopLogger(), svc)

	w := httptest.NewRecorder()
	h.ExpiryWarnings(w, httptest.NewRequest(http.MethodPost, "/notifications/expiry-warnings", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"OK","data":{"sent":2,"failed":1,"total":3}}`, w.Body.String())

	w = httptest.NewRecorder()
	h.Reactivation(w, httptest.NewRequest(http.MethodPost, "/notifications/reactivation", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"OK","data":{"sent":0,"failed":0,"total":0}}`, w.Body.String())

	svc.AssertExpectations(t)
}

func TestNotifyClientHandler(t *testing.T) {
	tests := []struct {
		name           string
		kind           string
		err            error
		expectedStatus int
	}{
		{name: "отправлено", kind: "renewal", expectedStatus: http.StatusAccepted},
		{name: "нет почты", kind: "expiry", err: models.Errorf(models.ErrValidation, "client 1001 has no email"), expectedStatus: http.StatusUnprocessableEntity},
		{name: "клиент активен", kind: "reactivation", err: models.Errorf(models.ErrInvalidState, "client 1001 is not inactive"), expectedStatus: http.StatusConflict},
		{name: "клиент не найден", kind: "expiry", err: models.Errorf(models.ErrNotFound, "client 1001 not found"), expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("NotifyClient", mock.Anything, "1001", tt.kind).Return(tt.err)

			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("document", "1001")
			rctx.URLParams.Add("kind", tt.kind)
			req := httptest.NewRequest(http.MethodPost, "/clients/1001/notifications/"+tt.kind, nil)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			w := httptest.NewRecorder()
			New(newNoopLogger(), svc).NotifyClient(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}
