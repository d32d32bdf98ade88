// Package services управляет тарифами абонементов.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/membership-manager/internal/cache"
	"github.com/magabrotheeeer/membership-manager/internal/lib/sanitize"
	"github.com/magabrotheeeer/membership-manager/internal/models"
)

// PlanRepository определяет методы хранилища для работы с тарифами.
type PlanRepository interface {
	CreatePlan(ctx context.Context, req models.CreatePlanRequest) (*models.Plan, error)
	GetPlan(ctx context.Context, id int64) (*models.Plan, error)
	ListPlans(ctx context.Context, onlyActive bool) ([]*models.Plan, error)
	UpdatePlan(ctx context.Context, id int64, upd models.PlanUpdate) (*models.Plan, error)
	RetirePlan(ctx context.Context, id int64) error
	PlanStats(ctx context.Context) (*models.PlanStats, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
	// InvalidatePrefix удаляет группу ключей.
	InvalidatePrefix(prefix string) error
}

// PlanService реализует операции над тарифами, карточки тарифов кешируются.
type PlanService struct {
	repo  PlanRepository
	cache Cache
	log   *slog.Logger
	ttl   time.Duration
}

// NewPlanService создает новый экземпляр PlanService.
func NewPlanService(repo PlanRepository, c Cache, log *slog.Logger, ttl time.Duration) *PlanService {
	return &PlanService{
		repo:  repo,
		cache: c,
		log:   log,
		ttl:   ttl,
	}
}

// Create создает тариф.
func (s *PlanService) Create(ctx context.Context, req models.CreatePlanRequest) (*models.Plan, error) {
	req.Name = sanitize.Text(req.Name)
	req.Description = sanitize.Text(req.Description)
	if req.Name == "" {
		return nil, models.Errorf(models.ErrValidation, "plan name is required")
	}

	plan, err := s.repo.CreatePlan(ctx, req)
	if err != nil {
		return nil, err
	}
	s.log.Info("plan created", slog.Int64("id", plan.ID), slog.String("name", plan.Name))
	cache.InvalidateReports(s.cache, s.log)
	return plan, nil
}

// Get возвращает тариф, используя кеш или репозиторий.
func (s *PlanService) Get(ctx context.Context, id int64) (*models.Plan, error) {
	key := cache.PlanKey(id)
	var plan *models.Plan
	found, err := s.cache.Get(key, &plan)
	if err != nil {
		s.log.Warn("failed to read plan from cache", slog.String("key", key), slog.Any("err", err))
	}
	if found && plan != nil {
		return plan, nil
	}

	plan, err = s.repo.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(key, plan, s.ttl); err != nil {
		s.log.Warn("failed to cache plan", slog.String("key", key), slog.Any("err", err))
	}
	return plan, nil
}

// List возвращает тарифы; all включает выведенные из продажи.
func (s *PlanService) List(ctx context.Context, all bool) ([]*models.Plan, error) {
	return s.repo.ListPlans(ctx, !all)
}

// Update меняет тариф и сбрасывает его карточку в кеше.
func (s *PlanService) Update(ctx context.Context, id int64, upd models.PlanUpdate) (*models.Plan, error) {
	var err error
	if upd.Name, err = sanitize.RequiredPtr("name", upd.Name); err != nil {
		return nil, err
	}
	upd.Description = sanitize.Ptr(upd.Description)

	plan, err := s.repo.UpdatePlan(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.forget(id)
	return plan, nil
}

// Retire выводит тариф из продажи. Клиенты и платежи сохраняют ссылку на него.
func (s *PlanService) Retire(ctx context.Context, id int64) error {
	if err := s.repo.RetirePlan(ctx, id); err != nil {
		return err
	}
	s.forget(id)
	s.log.Info("plan retired", slog.Int64("id", id))
	return nil
}

// Stats агрегаты по активным тарифам.
func (s *PlanService) Stats(ctx context.Context) (*models.PlanStats, error) {
	return s.repo.PlanStats(ctx)
}

func (s *PlanService) forget(id int64) {
	key := cache.PlanKey(id)
	if err := s.cache.Invalidate(key); err != nil {
		s.log.Warn("failed to remove from cache", slog.String("key", key), slog.Any("err", err))
	}
	cache.InvalidateReports(s.cache, s.log)
}
