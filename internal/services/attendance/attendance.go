// Package services реализует отметку посещений.
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

// AttendanceRepository определяет методы хранилища для посещений.
type AttendanceRepository interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetClientForUpdate(ctx context.Context, document string) (*models.Client, error)
	SetClientStatus(ctx context.Context, document, status string) error
	CreateAttendance(ctx context.Context, document string, date time.Time, recordedBy *string) (*models.Attendance, error)
	ListAttendances(ctx context.Context, document string, from, to time.Time) ([]*models.Attendance, error)
	CountAttendances(ctx context.Context, from, to time.Time) (total, unique int, err error)
}

// AttendanceService отмечает посещения клиентов.
type AttendanceService struct {
	repo  AttendanceRepository
	cache cache.PrefixInvalidator
	log   *slog.Logger
	today func() time.Time
}

// NewAttendanceService создает новый экземпляр AttendanceService.
func NewAttendanceService(repo AttendanceRepository, c cache.PrefixInvalidator, log *slog.Logger, loc *time.Location) *AttendanceService {
	return &AttendanceService{
		repo:  repo,
		cache: c,
		log:   log,
		today: func() time.Time { return month.Today(loc) },
	}
}

// CheckIn отмечает посещение. Пускают только активных клиентов; клиент с
// истёкшим абонементом переводится в inactive, и это изменение сохраняется,
// хотя сама отметка отклоняется.
func (s *AttendanceService) CheckIn(ctx context.Context, document, actor string) (*models.Attendance, error) {
	const op = "services.attendance.CheckIn"
	log := s.log.With(slog.String("op", op), slog.String("document", document))

	today := s.today()
	var (
		attendance *models.Attendance
		expired    bool
	)
	err := s.repo.RunInTx(ctx, func(ctx context.Context) error {
		client, err := s.repo.GetClientForUpdate(ctx, document)
		if err != nil {
			return err
		}
		if client.Status != models.ClientActive {
			return models.Errorf(models.ErrInvalidState, "client is not active")
		}
		if client.EndDate != nil && client.EndDate.Before(today) {
			expired = true
			return s.repo.SetClientStatus(ctx, document, models.ClientInactive)
		}

		var recordedBy *string
		if actor != "" {
			recordedBy = &actor
		}
		attendance, err = s.repo.CreateAttendance(ctx, document, today, recordedBy)
		return err
	})
	if err != nil {
		log.Warn("check-in rejected", sl.Err(err))
		return nil, err
	}
	cache.InvalidateReports(s.cache, log)
	if expired {
		log.Info("membership expired at check-in, client deactivated")
		return nil, models.Errorf(models.ErrInvalidState, "membership expired")
	}
	log.Info("check-in recorded")
	return attendance, nil
}

// Month возвращает посещения за месяц. Нулевые year или m означают текущий месяц.
func (s *AttendanceService) Month(ctx context.Context, year, m int) (*models.AttendanceMonth, error) {
	today := s.today()
	if year == 0 {
		year = today.Year()
	}
	if m == 0 {
		m = int(today.Month())
	}
	if m < 1 || m > 12 {
		return nil, models.Errorf(models.ErrValidation, "month must be between 1 and 12")
	}

	first := time.Date(year, time.Month(m), 1, 0, 0, 0, 0, time.UTC)
	last := month.LastOfMonth(first)
	list, err := s.repo.ListAttendances(ctx, "", first, last)
	if err != nil {
		return nil, err
	}
	total, unique, err := s.repo.CountAttendances(ctx, first, last)
	if err != nil {
		return nil, err
	}
	return &models.AttendanceMonth{
		Year:          year,
		Month:         m,
		Total:         total,
		UniqueClients: unique,
		Attendances:   list,
	}, nil
}

// ClientHistory посещения клиента в интервале дат [from, to]. Пустые границы
// означают последние 30 дней.
func (s *AttendanceService) ClientHistory(ctx context.Context, document string, from, to *time.Time) ([]*models.Attendance, error) {
	end := s.today()
	if to != nil {
		end = *to
	}
	start := month.AddDays(end, -30)
	if from != nil {
		start = *from
	}
	if start.After(end) {
		return nil, models.Errorf(models.ErrValidation, "from must not be after to")
	}
	return s.repo.ListAttendances(ctx, document, start, end)
}
