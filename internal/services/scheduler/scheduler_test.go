package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/membership-manager/internal/models"
)

type MockRefresher struct {
	mock.Mock
}

func (m *MockRefresher) RefreshStatuses(ctx context.Context) (models.SweepResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.SweepResult), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendExpiryWarnings(ctx context.Context) (models.BulkResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.BulkResult), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestSchedulerService_RunStatusSweep(t *testing.T) {
	r := &MockRefresher{}
	r.On("RefreshStatuses", mock.Anything).Return(models.SweepResult{Deactivated: 2}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		NewSchedulerService(r, &MockNotifier{}, newNoopLogger()).RunStatusSweep(ctx, 20*time.Millisecond)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweep loop did not stop after context cancellation")
	}
	// Первый запуск сразу и ещё хотя бы один по таймеру.
	assert.GreaterOrEqual(t, len(r.Calls), 2)
}

func TestSchedulerService_RunExpiryWarnings(t *testing.T) {
	tests := []struct {
		name   string
		result models.BulkResult
		err    error
	}{
		{name: "published", result: models.BulkResult{Sent: 2, Failed: 1, Total: 3}},
		{name: "nothing to send", result: models.BulkResult{}},
		{name: "repository failure", err: errors.New("db down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &MockNotifier{}
			n.On("SendExpiryWarnings", mock.Anything).Return(tt.result, tt.err)

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			NewSchedulerService(&MockRefresher{}, n, newNoopLogger()).RunExpiryWarnings(ctx, time.Hour)

			n.AssertNumberOfCalls(t, "SendExpiryWarnings", 1)
		})
	}
}
