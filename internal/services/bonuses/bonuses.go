// Package services реализует выдачу и применение подарочных дней абонемента.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/membership-manager/internal/cache"
	"github.com/magabrotheeeer/membership-manager/internal/lib/sanitize"
	"github.com/magabrotheeeer/membership-manager/internal/lib/sl"
	"github.com/magabrotheeeer/membership-manager/internal/metrics"
	"github.com/magabrotheeeer/membership-manager/internal/models"
)

// Состояния бонуса в фильтре списка.
const (
	StateApplied = "applied"
	StatePending = "pending"
)

// BonusRepository определяет методы хранилища для работы с бонусами.
type BonusRepository interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetClient(ctx context.Context, document string) (*models.Client, error)
	GetClientForUpdate(ctx context.Context, document string) (*models.Client, error)
	ExtendEndDate(ctx context.Context, document string, days int) (*models.Client, error)
	CreateBonus(ctx context.Context, b models.Bonus) (*models.Bonus, error)
	GetBonus(ctx context.Context, id int64) (*models.Bonus, error)
	GetBonusForUpdate(ctx context.Context, id int64) (*models.Bonus, error)
	MarkBonusApplied(ctx context.Context, id int64, at time.Time) (*models.Bonus, error)
	DeleteBonus(ctx context.Context, id int64) error
	ListBonuses(ctx context.Context, state string) ([]*models.Bonus, error)
	BonusStats(ctx context.Context) (*models.BonusStats, error)
}

// BonusService выдаёт и применяет бонусы.
type BonusService struct {
	repo    BonusRepository
	cache   cache.PrefixInvalidator
	log     *slog.Logger
	maxDays int
	now     func() time.Time
}

// NewBonusService создает новый экземпляр BonusService.
func NewBonusService(repo BonusRepository, c cache.PrefixInvalidator, log *slog.Logger, maxDays int) *BonusService {
	if maxDays <= 0 || maxDays > models.MaxBonusDays {
		maxDays = models.MaxBonusDays
	}
	return &BonusService{
		repo:    repo,
		cache:   c,
		log:     log,
		maxDays: maxDays,
		now:     time.Now,
	}
}

// Create выдаёт бонус клиенту; при ApplyNow сразу применяет его в той же
// транзакции, и ошибка применения не оставляет выданного бонуса.
func (s *BonusService) Create(ctx context.Context, req models.CreateBonusRequest, actor string) (*models.BonusResult, error) {
	const op = "services.bonuses.Create"
	log := s.log.With(slog.String("op", op), slog.String("client", req.ClientDocument))

	if req.Days < 1 || req.Days > s.maxDays {
		return nil, models.Errorf(models.ErrValidation, "bonus must be between 1 and %d days", s.maxDays)
	}
	reason, err := sanitize.Required("reason", req.Reason)
	if err != nil {
		return nil, err
	}

	var grantedBy *string
	if actor != "" {
		grantedBy = &actor
	}
	res := &models.BonusResult{}
	err = s.repo.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetClient(ctx, req.ClientDocument); err != nil {
			return err
		}
		b, err := s.repo.CreateBonus(ctx, models.Bonus{
			ClientDocument: req.ClientDocument,
			Kind:           models.BonusKind(req.Days),
			DaysGift:       req.Days,
			Reason:         reason,
			GrantedBy:      grantedBy,
		})
		if err != nil {
			return err
		}
		if !req.ApplyNow {
			res.Bonus = b
			return nil
		}
		return s.apply(ctx, b.ID, res)
	})
	if err != nil {
		log.Warn("bonus not granted", sl.Err(err))
		return nil, err
	}

	if res.Bonus.Applied {
		metrics.BonusesApplied.Inc()
	}
	cache.InvalidateReports(s.cache, log)
	log.Info("bonus granted", slog.Int64("bonus_id", res.Bonus.ID), slog.Bool("applied", res.Bonus.Applied))
	return res, nil
}

// Apply добавляет подарочные дни к дате окончания абонемента. Необратимо.
// Повторное применение возвращает ErrAlreadyProcessed, клиент без даты
// окончания ErrInvalidState.
func (s *BonusService) Apply(ctx context.Context, id int64) (*models.BonusResult, error) {
	const op = "services.bonuses.Apply"
	log := s.log.With(slog.String("op", op), slog.Int64("bonus_id", id))

	res := &models.BonusResult{}
	err := s.repo.RunInTx(ctx, func(ctx context.Context) error {
		return s.apply(ctx, id, res)
	})
	if err != nil {
		log.Warn("bonus not applied", sl.Err(err))
		return nil, err
	}

	metrics.BonusesApplied.Inc()
	cache.InvalidateReports(s.cache, log)
	log.Info("bonus applied", slog.Int("days", res.Bonus.DaysGift))
	return res, nil
}

// apply блокирует бонус и клиента и продлевает абонемент. Вызывается внутри транзакции.
func (s *BonusService) apply(ctx context.Context, id int64, res *models.BonusResult) error {
	b, err := s.repo.GetBonusForUpdate(ctx, id)
	if err != nil {
		return err
	}
	if b.Applied {
		return models.Errorf(models.ErrAlreadyProcessed, "bonus %d is already applied", id)
	}
	client, err := s.repo.GetClientForUpdate(ctx, b.ClientDocument)
	if err != nil {
		return err
	}
	if client.EndDate == nil {
		return models.Errorf(models.ErrInvalidState, "client %s has no membership end date", client.Document)
	}

	if res.Client, err = s.repo.ExtendEndDate(ctx, client.Document, b.DaysGift); err != nil {
		return err
	}
	res.Bonus, err = s.repo.MarkBonusApplied(ctx, id, s.now())
	return err
}

// Delete удаляет неприменённый бонус.
func (s *BonusService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteBonus(ctx, id); err != nil {
		return err
	}
	cache.InvalidateReports(s.cache, s.log)
	s.log.Info("bonus deleted", slog.Int64("bonus_id", id))
	return nil
}

// Get возвращает бонус.
func (s *BonusService) Get(ctx context.Context, id int64) (*models.Bonus, error) {
	return s.repo.GetBonus(ctx, id)
}

// List возвращает бонусы по состоянию.
func (s *BonusService) List(ctx context.Context, state string) ([]*models.Bonus, error) {
	switch state {
	case "", StateApplied, StatePending:
	default:
		return nil, models.Errorf(models.ErrValidation, "unknown bonus state %q", state)
	}
	return s.repo.ListBonuses(ctx, state)
}

// Stats агрегаты по бонусам.
func (s *BonusService) Stats(ctx context.Context) (*models.BonusStats, error) {
	return s.repo.BonusStats(ctx)
}
