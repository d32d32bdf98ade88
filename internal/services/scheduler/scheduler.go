// Package services запускает периодические задачи по абонементам.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/membership-manager/internal/lib/sl"
	"github.com/magabrotheeeer/membership-manager/internal/models"
)

// StatusRefresher сверяет статусы клиентов с датами абонементов.
type StatusRefresher interface {
	RefreshStatuses(ctx context.Context) (models.SweepResult, error)
}

// ExpiryNotifier рассылает предупреждения об окончании абонемента.
type ExpiryNotifier interface {
	SendExpiryWarnings(ctx context.Context) (models.BulkResult, error)
}

// SchedulerService периодически запускает сверку статусов и рассылку предупреждений.
type SchedulerService struct {
	clients  StatusRefresher
	notifier ExpiryNotifier
	log      *slog.Logger
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(clients StatusRefresher, notifier ExpiryNotifier, log *slog.Logger) *SchedulerService {
	return &SchedulerService{
		clients:  clients,
		notifier: notifier,
		log:      log,
	}
}

// RunStatusSweep выполняет сверку сразу и затем каждые interval до отмены ctx.
func (s *SchedulerService) RunStatusSweep(ctx context.Context, interval time.Duration) {
	every(ctx, interval, s.runStatusSweep)
}

// RunExpiryWarnings рассылает предупреждения сразу и затем каждые interval до отмены ctx.
func (s *SchedulerService) RunExpiryWarnings(ctx context.Context, interval time.Duration) {
	every(ctx, interval, s.runExpiryWarnings)
}

func every(ctx context.Context, interval time.Duration, job func(ctx context.Context)) {
	job(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job(ctx)
		}
	}
}

func (s *SchedulerService) runStatusSweep(ctx context.Context) {
	s.log.Info("starting status sweep")
	res, err := s.clients.RefreshStatuses(ctx)
	if err != nil {
		s.log.Error("status sweep failed", sl.Err(err))
		return
	}
	s.log.Info("status sweep finished",
		slog.Int("deactivated", res.Deactivated), slog.Int("reactivated", res.Reactivated))
}

func (s *SchedulerService) runExpiryWarnings(ctx context.Context) {
	s.log.Info("starting expiry warnings")
	res, err := s.notifier.SendExpiryWarnings(ctx)
	if err != nil {
		s.log.Error("failed to send expiry warnings", sl.Err(err))
		return
	}
	if res.Total == 0 {
		s.log.Info("no expiring memberships found")
		return
	}
	s.log.Info("expiry warnings published",
		slog.Int("sent", res.Sent), slog.Int("failed", res.Failed), slog.Int("total", res.Total))
}
