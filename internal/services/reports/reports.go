// Package services собирает отчёты и сводку для главной страницы.
//
// Все отчёты только читают данные. Перед построением сводки и отчётов
// выполняется сверка статусов, чтобы счётчики не показывали просроченных
// клиентов активными. Готовые снимки кешируются на StatsTTL, изменения
// данных сбрасывают их по префиксу report:.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/membership-manager/internal/cache"
	"github.com/magabrotheeeer/membership-manager/internal/lib/month"
	"github.com/magabrotheeeer/membership-manager/internal/lib/sl"
	"github.com/magabrotheeeer/membership-manager/internal/models"
)

const (
	incomeMonths     = 6
	attendanceDays   = 7
	methodWindowDays = 30
	defaultTopLimit  = 10
	maxTopLimit      = 100
)

// ReportRepository определяет запросы хранилища для отчётов.
type ReportRepository interface {
	PlanStats(ctx context.Context) (*models.PlanStats, error)
	ClientStats(ctx context.Context, today, expiringTo time.Time) (*models.ClientStats, error)
	CountUsers(ctx context.Context) (int, error)
	CountAttendances(ctx context.Context, from, to time.Time) (total, unique int, err error)
	CountAllAttendances(ctx context.Context) (int, error)
	ListExpiring(ctx context.Context, from, to time.Time) ([]*models.Client, error)
	CountPayments(ctx context.Context, status string) (int, error)
	Income(ctx context.Context, period models.TimeRange) (count int, total float64, err error)
	PaymentStats(ctx context.Context, period models.TimeRange) (*models.PaymentStats, error)
	PaymentsByMethod(ctx context.Context, period models.TimeRange) ([]models.GroupSum, error)
	ListValidatedPayments(ctx context.Context, period models.TimeRange) ([]*models.Payment, error)
	PlanDistribution(ctx context.Context) ([]models.GroupCount, error)
	TopClients(ctx context.Context, limit int) ([]*models.TopClient, error)
}

// Sweeper сверяет статусы клиентов с датами абонементов.
type Sweeper interface {
	RefreshStatuses(ctx context.Context) (models.SweepResult, error)
}

// Cache описывает методы кеша, нужные для снимков отчётов.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
}

// ReportService строит отчёты.
type ReportService struct {
	repo        ReportRepository
	sweeper     Sweeper
	cache       Cache
	log         *slog.Logger
	loc         *time.Location
	ttl         time.Duration
	warningDays int
	today       func() time.Time
}

// NewReportService создает новый экземпляр ReportService. warningDays порог
// "скоро истекает" в днях.
func NewReportService(repo ReportRepository, sweeper Sweeper, c Cache, log *slog.Logger,
	loc *time.Location, ttl time.Duration, warningDays int) *ReportService {
	return &ReportService{
		repo:        repo,
		sweeper:     sweeper,
		cache:       c,
		log:         log,
		loc:         loc,
		ttl:         ttl,
		warningDays: warningDays,
		today:       func() time.Time { return month.Today(loc) },
	}
}

// Dashboard сводка для главной страницы.
func (s *ReportService) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	s.sweep(ctx)
	today := s.today()
	var d models.Dashboard
	err := s.cached(cache.ReportKey("dashboard", today.Format(month.Layout)), &d, func() error {
		return s.buildDashboard(ctx, today, &d)
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *ReportService) buildDashboard(ctx context.Context, today time.Time, d *models.Dashboard) error {
	expiringTo := month.AddDays(today, s.warningDays)

	plans, err := s.repo.PlanStats(ctx)
	if err != nil {
		return err
	}
	clients, err := s.repo.ClientStats(ctx, today, expiringTo)
	if err != nil {
		return err
	}
	users, err := s.repo.CountUsers(ctx)
	if err != nil {
		return err
	}
	attendanceToday, _, err := s.repo.CountAttendances(ctx, today, today)
	if err != nil {
		return err
	}
	expiring, err := s.repo.ListExpiring(ctx, today, expiringTo)
	if err != nil {
		return err
	}
	pending, err := s.repo.CountPayments(ctx, models.PaymentPending)
	if err != nil {
		return err
	}
	_, incomeToday, err := s.repo.Income(ctx, s.span(today, today))
	if err != nil {
		return err
	}
	_, incomeMonth, err := s.repo.Income(ctx, s.span(month.FirstOfMonth(today), today))
	if err != nil {
		return err
	}
	monthly, err := s.incomeSeries(ctx, today)
	if err != nil {
		return err
	}
	daily, err := s.attendanceSeries(ctx, today)
	if err != nil {
		return err
	}
	distribution, err := s.repo.PlanDistribution(ctx)
	if err != nil {
		return err
	}
	byMethod, err := s.repo.PaymentsByMethod(ctx, s.span(month.AddDays(today, -(methodWindowDays-1)), today))
	if err != nil {
		return err
	}

	*d = models.Dashboard{
		ActivePlans:       plans.ActivePlans,
		TotalClients:      clients.Total,
		TotalUsers:        users,
		AttendanceToday:   attendanceToday,
		ExpiringClients:   expiring,
		InactiveClients:   clients.Inactive,
		ActiveClients:     clients.Active,
		PendingPayments:   pending,
		IncomeToday:       incomeToday,
		IncomeMonth:       incomeMonth,
		MonthlyIncome:     monthly,
		DailyAttendance:   daily,
		PlanDistribution:  distribution,
		PaymentsByMethod:  byMethod,
		ExpiryWarningDays: s.warningDays,
	}
	return nil
}

// incomeSeries доход по календарным месяцам, последний месяц текущий.
func (s *ReportService) incomeSeries(ctx context.Context, today time.Time) ([]models.SeriesPoint, error) {
	buckets := month.TrailingMonths(today, incomeMonths)
	points := make([]models.SeriesPoint, 0, len(buckets))
	for _, b := range buckets {
		_, total, err := s.repo.Income(ctx, s.span(b.From, b.To))
		if err != nil {
			return nil, err
		}
		points = append(points, models.SeriesPoint{Label: b.Label, Value: total})
	}
	return points, nil
}

// attendanceSeries посещения за сегодня и шесть предыдущих дней.
func (s *ReportService) attendanceSeries(ctx context.Context, today time.Time) ([]models.SeriesPoint, error) {
	buckets := month.TrailingDays(today, attendanceDays)
	points := make([]models.SeriesPoint, 0, len(buckets))
	for _, b := range buckets {
		total, _, err := s.repo.CountAttendances(ctx, b.From, b.To)
		if err != nil {
			return nil, err
		}
		points = append(points, models.SeriesPoint{Label: b.Label, Value: float64(total)})
	}
	return points, nil
}

// Payments статистика платежей за период [from, to] и список подтверждённых
// платежей. Без границ период не ограничен.
func (s *ReportService) Payments(ctx context.Context, from, to *time.Time) (*models.PaymentReport, error) {
	if from != nil && to != nil && from.After(*to) {
		return nil, models.Errorf(models.ErrValidation, "from must not be after to")
	}
	s.sweep(ctx)

	today := s.today()
	period := s.period(from, to)
	key := cache.ReportKey("payments", today.Format(month.Layout), dateKey(from), dateKey(to))

	var report models.PaymentReport
	err := s.cached(key, &report, func() error {
		stats, err := s.repo.PaymentStats(ctx, period)
		if err != nil {
			return err
		}
		stats.TodayCount, stats.TodayIncome, err = s.repo.Income(ctx, s.span(today, today))
		if err != nil {
			return err
		}
		_, stats.MonthIncome, err = s.repo.Income(ctx, s.span(month.FirstOfMonth(today), today))
		if err != nil {
			return err
		}
		payments, err := s.repo.ListValidatedPayments(ctx, period)
		if err != nil {
			return err
		}
		report = models.PaymentReport{Stats: *stats, Payments: payments}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// Clients агрегаты по клиентам с учётом порога истечения.
func (s *ReportService) Clients(ctx context.Context) (*models.ClientStats, error) {
	s.sweep(ctx)
	today := s.today()

	var stats models.ClientStats
	err := s.cached(cache.ReportKey("clients", today.Format(month.Layout)), &stats, func() error {
		st, err := s.repo.ClientStats(ctx, today, month.AddDays(today, s.warningDays))
		if err != nil {
			return err
		}
		stats = *st
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Attendance посещения за сегодня, текущий месяц и всё время.
func (s *ReportService) Attendance(ctx context.Context) (*models.AttendanceStats, error) {
	today := s.today()

	var stats models.AttendanceStats
	err := s.cached(cache.ReportKey("attendance", today.Format(month.Layout)), &stats, func() error {
		var err error
		if stats.Today, _, err = s.repo.CountAttendances(ctx, today, today); err != nil {
			return err
		}
		if stats.Month, _, err = s.repo.CountAttendances(ctx, month.FirstOfMonth(today), today); err != nil {
			return err
		}
		stats.Total, err = s.repo.CountAllAttendances(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// TopClients клиенты с наибольшей суммой подтверждённых платежей.
func (s *ReportService) TopClients(ctx context.Context, limit int) ([]*models.TopClient, error) {
	if limit <= 0 {
		limit = defaultTopLimit
	}
	if limit > maxTopLimit {
		limit = maxTopLimit
	}

	var top []*models.TopClient
	err := s.cached(cache.ReportKey("top-clients", limit), &top, func() error {
		var err error
		top, err = s.repo.TopClients(ctx, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return top, nil
}

// cached читает снимок из кеша или строит его через build и сохраняет.
// Недоступный кеш не мешает построению отчёта.
func (s *ReportService) cached(key string, dst any, build func() error) error {
	found, err := s.cache.Get(key, dst)
	if err != nil {
		s.log.Warn("failed to read report from cache", slog.String("key", key), sl.Err(err))
	}
	if found {
		return nil
	}
	if err := build(); err != nil {
		return err
	}
	if err := s.cache.Set(key, dst, s.ttl); err != nil {
		s.log.Warn("failed to cache report", slog.String("key", key), sl.Err(err))
	}
	return nil
}

// sweep запускает сверку статусов. Ошибка не прерывает построение отчёта.
func (s *ReportService) sweep(ctx context.Context) {
	if s.sweeper == nil {
		return
	}
	if _, err := s.sweeper.RefreshStatuses(ctx); err != nil {
		s.log.Warn("status sweep before report failed", sl.Err(err))
	}
}

func (s *ReportService) span(from, to time.Time) models.TimeRange {
	f, t := month.Span(from, to, s.loc)
	return models.TimeRange{From: f, To: t}
}

// period переводит необязательные границы дат в диапазон моментов времени.
func (s *ReportService) period(from, to *time.Time) models.TimeRange {
	var r models.TimeRange
	if from != nil {
		r.From = month.Midnight(*from, s.loc)
	}
	if to != nil {
		r.To = month.Midnight(month.AddDays(*to, 1), s.loc)
	}
	return r
}

func dateKey(d *time.Time) string {
	if d == nil {
		return "-"
	}
	return d.Format(month.Layout)
}
