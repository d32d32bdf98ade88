// Package services реализует проверку платежей: подтверждение, отклонение
// и правку ещё не обработанных платежей.
package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/membership-manager/internal/cache"
	"github.com/magabrotheeeer/membership-manager/internal/lib/sanitize"
	"github.com/magabrotheeeer/membership-manager/internal/lib/sl"
	"github.com/magabrotheeeer/membership-manager/internal/metrics"
	"github.com/magabrotheeeer/membership-manager/internal/models"
)

// PaymentRepository определяет методы хранилища для работы с платежами.
type PaymentRepository interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetPayment(ctx context.Context, id int64) (*models.Payment, error)
	GetPaymentForUpdate(ctx context.Context, id int64) (*models.Payment, error)
	ListPayments(ctx context.Context, filter models.PaymentFilter) ([]*models.Payment, error)
	UpdatePayment(ctx context.Context, id int64, upd models.PaymentUpdate) (*models.Payment, error)
	DeletePayment(ctx context.Context, id int64) error
	SetPaymentDecision(ctx context.Context, id int64, d models.Decision) (*models.Payment, error)
	GetClientForUpdate(ctx context.Context, document string) (*models.Client, error)
	SetClientStatus(ctx context.Context, document, status string) error
}

// PaymentService реализует конечный автомат платежа.
type PaymentService struct {
	repo  PaymentRepository
	cache cache.PrefixInvalidator
	log   *slog.Logger
	now   func() time.Time
}

// NewPaymentService создает новый экземпляр PaymentService.
func NewPaymentService(repo PaymentRepository, c cache.PrefixInvalidator, log *slog.Logger) *PaymentService {
	return &PaymentService{
		repo:  repo,
		cache: c,
		log:   log,
		now:   time.Now,
	}
}

// Validate подтверждает платёж и делает клиента активным независимо от дат абонемента.
func (s *PaymentService) Validate(ctx context.Context, id int64, actor string) (*models.Payment, error) {
	p, err := s.decide(ctx, id, models.Decision{Status: models.PaymentValidated, By: actor}, models.ClientActive)
	if err != nil {
		return nil, err
	}
	metrics.PaymentsProcessed.WithLabelValues(metrics.OutcomeValidated).Inc()
	return p, nil
}

// Reject отклоняет платёж, сохраняет причину и делает клиента неактивным.
// Суммы и даты абонемента не меняются.
func (s *PaymentService) Reject(ctx context.Context, id int64, actor, reason string) (*models.Payment, error) {
	d := models.Decision{Status: models.PaymentRejected, By: actor}
	if strings.TrimSpace(reason) != "" {
		r, err := sanitize.Required("reason", reason)
		if err != nil {
			return nil, err
		}
		d.Notes = &r
	}
	p, err := s.decide(ctx, id, d, models.ClientInactive)
	if err != nil {
		return nil, err
	}
	metrics.PaymentsProcessed.WithLabelValues(metrics.OutcomeRejected).Inc()
	return p, nil
}

// decide блокирует платёж, затем клиента, и фиксирует решение одной транзакцией.
func (s *PaymentService) decide(ctx context.Context, id int64, d models.Decision, clientStatus string) (*models.Payment, error) {
	const op = "services.payments.decide"
	log := s.log.With(slog.String("op", op), slog.Int64("payment_id", id), slog.String("decision", d.Status))

	var result *models.Payment
	err := s.repo.RunInTx(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetPaymentForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !p.IsPending() {
			return models.Errorf(models.ErrAlreadyProcessed, "payment %d is already %s", id, p.Status)
		}
		if _, err := s.repo.GetClientForUpdate(ctx, p.ClientDocument); err != nil {
			return err
		}

		d.At = s.now()
		if result, err = s.repo.SetPaymentDecision(ctx, id, d); err != nil {
			return err
		}
		return s.repo.SetClientStatus(ctx, p.ClientDocument, clientStatus)
	})
	if err != nil {
		log.Error("failed to process payment", sl.Err(err))
		return nil, err
	}

	cache.InvalidateReports(s.cache, log)
	log.Info("payment processed", slog.String("client", result.ClientDocument))
	return result, nil
}

// Get возвращает платёж.
func (s *PaymentService) Get(ctx context.Context, id int64) (*models.Payment, error) {
	return s.repo.GetPayment(ctx, id)
}

// List возвращает платежи, при необходимости по статусу.
func (s *PaymentService) List(ctx context.Context, filter models.PaymentFilter) ([]*models.Payment, error) {
	switch filter.Status {
	case "", models.PaymentPending, models.PaymentValidated, models.PaymentRejected, models.PaymentCancelled:
	default:
		return nil, models.Errorf(models.ErrValidation, "unknown payment status %q", filter.Status)
	}
	return s.repo.ListPayments(ctx, filter)
}

// Update меняет поля платежа, пока он ожидает проверки.
func (s *PaymentService) Update(ctx context.Context, id int64, upd models.PaymentUpdate) (*models.Payment, error) {
	upd.Concept = sanitize.Ptr(upd.Concept)
	upd.Receipt = sanitize.Ptr(upd.Receipt)
	upd.Notes = sanitize.Ptr(upd.Notes)

	p, err := s.repo.UpdatePayment(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	cache.InvalidateReports(s.cache, s.log)
	return p, nil
}

// Delete удаляет платёж, пока он ожидает проверки.
func (s *PaymentService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeletePayment(ctx, id); err != nil {
		return err
	}
	cache.InvalidateReports(s.cache, s.log)
	s.log.Info("payment deleted", slog.Int64("payment_id", id))
	return nil
}
