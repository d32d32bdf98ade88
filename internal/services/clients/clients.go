// Package services реализует жизненный цикл клиента: регистрацию, продление,
// регистрацию платежа и сверку статусов с датами абонемента.
package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/membership-manager/internal/cache"
	"github.com/magabrotheeeer/membership-manager/internal/lib/month"
	"github.com/magabrotheeeer/membership-manager/internal/lib/sanitize"
	"github.com/magabrotheeeer/membership-manager/internal/lib/sl"
	"github.com/magabrotheeeer/membership-manager/internal/metrics"
	"github.com/magabrotheeeer/membership-manager/internal/models"
)

// ClientRepository определяет методы хранилища, нужные жизненному циклу клиента.
type ClientRepository interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetPlan(ctx context.Context, id int64) (*models.Plan, error)
	CreateClient(ctx context.Context, c models.Client) (*models.Client, error)
	GetClient(ctx context.Context, document string) (*models.Client, error)
	GetClientForUpdate(ctx context.Context, document string) (*models.Client, error)
	SetMembershipWindow(ctx context.Context, document string, w models.MembershipWindow) (*models.Client, error)
	UpdateClient(ctx context.Context, document string, upd models.ClientUpdate) (*models.Client, error)
	DeleteClient(ctx context.Context, document string) error
	ListClients(ctx context.Context, filter models.ClientFilter) ([]*models.Client, error)
	RefreshStatuses(ctx context.Context, today time.Time) (models.SweepResult, error)
	CreateBonus(ctx context.Context, b models.Bonus) (*models.Bonus, error)
	CreatePayment(ctx context.Context, p models.Payment) (*models.Payment, error)
	AddHistory(ctx context.Context, h models.HistoryEntry) error
	ListHistory(ctx context.Context, document string) ([]*models.HistoryEntry, error)
	ListPaymentsByClient(ctx context.Context, document string) ([]*models.Payment, error)
	ListBonusesByClient(ctx context.Context, document string) ([]*models.Bonus, error)
}

// Notifier отправляет письма после регистрации и продления.
type Notifier interface {
	Welcome(ctx context.Context, c *models.Client, plan *models.Plan) error
	Renewal(ctx context.Context, c *models.Client, plan *models.Plan) error
}

// Options правила, задаваемые конфигурацией.
type Options struct {
	MinClientAge int
	MaxBonusDays int
	Location     *time.Location
}

// ClientService реализует операции над клиентами.
type ClientService struct {
	repo     ClientRepository
	notifier Notifier
	cache    cache.PrefixInvalidator
	log      *slog.Logger
	opts     Options
	today    func() time.Time
	now      func() time.Time
}

// NewClientService создает новый экземпляр ClientService.
func NewClientService(repo ClientRepository, notifier Notifier, c cache.PrefixInvalidator,
	log *slog.Logger, opts Options) *ClientService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.MaxBonusDays <= 0 || opts.MaxBonusDays > models.MaxBonusDays {
		opts.MaxBonusDays = models.MaxBonusDays
	}
	return &ClientService{
		repo:     repo,
		notifier: notifier,
		cache:    c,
		log:      log,
		opts:     opts,
		today:    func() time.Time { return month.Today(opts.Location) },
		now:      time.Now,
	}
}

func optional(s string) *string {
	s = sanitize.Text(s)
	if s == "" {
		return nil
	}
	return &s
}

func actorPtr(actor string) *string {
	if actor == "" {
		return nil
	}
	return &actor
}

// clampBonus ограничивает подарочные дни диапазоном [0, MaxBonusDays].
func (s *ClientService) clampBonus(days int) int {
	if days < 0 {
		return 0
	}
	if days > s.opts.MaxBonusDays {
		return s.opts.MaxBonusDays
	}
	return days
}

func (s *ClientService) checkAge(birth time.Time) error {
	if s.opts.MinClientAge <= 0 {
		return nil
	}
	if month.Age(birth, s.today()) < s.opts.MinClientAge {
		return models.Errorf(models.ErrValidation, "client must be at least %d years old", s.opts.MinClientAge)
	}
	return nil
}

// activePlan возвращает план, доступный для продажи.
func (s *ClientService) activePlan(ctx context.Context, id int64) (*models.Plan, error) {
	plan, err := s.repo.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	if !plan.Active {
		return nil, models.Errorf(models.ErrValidation, "plan %q is retired", plan.Name)
	}
	return plan, nil
}

// identity проверяет и очищает анкетные данные нового клиента.
// Документ обрезается до проверки, поэтому строка из пробелов не проходит.
func (s *ClientService) identity(req models.RegisterClientRequest) (models.Client, error) {
	document := strings.TrimSpace(req.Document)
	if document == "" {
		return models.Client{}, models.Errorf(models.ErrValidation, "field document must not be blank")
	}
	firstName, err := sanitize.Required("first_name", req.FirstName)
	if err != nil {
		return models.Client{}, err
	}
	lastName, err := sanitize.Required("last_name", req.LastName)
	if err != nil {
		return models.Client{}, err
	}

	var birth *time.Time
	if req.BirthDate != "" {
		d, err := month.Parse(req.BirthDate)
		if err != nil {
			return models.Client{}, models.Errorf(models.ErrValidation, "invalid birth date %q", req.BirthDate)
		}
		if err := s.checkAge(d); err != nil {
			return models.Client{}, err
		}
		birth = &d
	}
	docType := req.DocumentType
	if docType == "" {
		docType = "CC"
	}

	return models.Client{
		Document:     document,
		DocumentType: docType,
		FirstName:    firstName,
		LastName:     lastName,
		Weight:       req.Weight,
		BirthDate:    birth,
		Email:        optional(req.Email),
		Phone:        optional(req.Phone),
	}, nil
}

// enroll сохраняет клиента с окном абонемента по плану plan, начиная с сегодняшнего
// дня и с учётом подарочных дней, и пишет строку истории. Вызывается внутри транзакции.
func (s *ClientService) enroll(ctx context.Context, c models.Client, plan *models.Plan, bonusDays int) (*models.Client, error) {
	start := s.today()
	end := month.AddDays(month.AddDays(start, plan.DurationDays), bonusDays)
	c.PlanID = &plan.ID
	c.StartDate = &start
	c.EndDate = &end

	client, err := s.repo.CreateClient(ctx, c)
	if err != nil {
		return nil, err
	}
	if err := s.repo.AddHistory(ctx, models.HistoryEntry{
		ClientDocument: client.Document,
		PlanID:         &plan.ID,
		StartDate:      start,
		EndDate:        end,
		PricePaid:      plan.Price,
	}); err != nil {
		return nil, err
	}
	return client, nil
}

// Register регистрирует клиента. Клиент всегда создаётся в статусе pending,
// даже без первого платежа: активным его делает подтверждение платежа.
func (s *ClientService) Register(ctx context.Context, req models.RegisterClientRequest, actor string) (*models.RegisterResult, error) {
	const op = "services.clients.Register"
	log := s.log.With(slog.String("op", op), slog.String("document", req.Document))

	c, err := s.identity(req)
	if err != nil {
		return nil, err
	}
	c.Status = models.ClientPending

	res := &models.RegisterResult{}
	var plan *models.Plan
	err = s.repo.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if plan, err = s.activePlan(ctx, req.PlanID); err != nil {
			return err
		}

		bonusDays := s.clampBonus(req.BonusDays)
		if res.Client, err = s.enroll(ctx, c, plan, bonusDays); err != nil {
			return err
		}

		if bonusDays > 0 {
			now := s.now()
			res.Bonus, err = s.repo.CreateBonus(ctx, models.Bonus{
				ClientDocument: res.Client.Document,
				Kind:           models.BonusKind(bonusDays),
				DaysGift:       bonusDays,
				Reason:         "welcome gift",
				GrantedBy:      actorPtr(actor),
				Applied:        true,
				AppliedAt:      &now,
			})
			if err != nil {
				return err
			}
		}

		if req.Payment != nil {
			res.Payment, err = s.repo.CreatePayment(ctx, models.Payment{
				ClientDocument: res.Client.Document,
				PlanID:         &plan.ID,
				Concept:        "Initial payment - plan " + plan.Name,
				Purpose:        models.PurposeMembership,
				Amount:         req.Payment.Amount,
				Method:         req.Payment.Method,
				Status:         models.PaymentPending,
				Receipt:        sanitize.Text(req.Payment.Receipt),
				Notes:          sanitize.Text(req.Payment.Notes),
				RecordedBy:     actorPtr(actor),
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("failed to register client", sl.Err(err))
		return nil, err
	}

	metrics.ClientsRegistered.Inc()
	if res.Payment != nil {
		metrics.PaymentsProcessed.WithLabelValues(metrics.OutcomeRecorded).Inc()
	}
	if res.Bonus != nil {
		metrics.BonusesApplied.Inc()
	}
	cache.InvalidateReports(s.cache, log)
	log.Info("client registered")

	if res.Client.HasEmail() {
		if err := s.notifier.Welcome(ctx, res.Client, plan); err != nil {
			log.Warn("welcome notification failed", sl.Err(err))
			res.Warnings = append(res.Warnings, "welcome email could not be sent")
		}
	}
	return res, nil
}

// Import переносит уже действующих клиентов из внешнего списка. Каждая строка
// сохраняется отдельной транзакцией по тому же пути окна и истории, что и
// регистрация, но сразу в статусе active и без платежа и писем.
// Ошибка строки не прерывает импорт и попадает в итог.
func (s *ClientService) Import(ctx context.Context, rows []models.ImportClientRow) (*models.ImportResult, error) {
	const op = "services.clients.Import"
	log := s.log.With(slog.String("op", op))

	res := &models.ImportResult{Total: len(rows)}
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.importRow(ctx, row); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, models.ImportError{
				Row:      i + 1,
				Document: row.Document,
				Error:    importMessage(err),
			})
			log.Warn("client row not imported", slog.Int("row", i+1), sl.Err(err))
			continue
		}
		res.Imported++
	}

	if res.Imported > 0 {
		metrics.ClientsRegistered.Add(float64(res.Imported))
		cache.InvalidateReports(s.cache, log)
	}
	log.Info("clients imported",
		slog.Int("imported", res.Imported), slog.Int("failed", res.Failed), slog.Int("total", res.Total))
	return res, nil
}

func (s *ClientService) importRow(ctx context.Context, row models.ImportClientRow) error {
	c, err := s.identity(row.RegisterRequest())
	if err != nil {
		return err
	}
	c.Status = models.ClientActive

	return s.repo.RunInTx(ctx, func(ctx context.Context) error {
		plan, err := s.activePlan(ctx, row.PlanID)
		if err != nil {
			return err
		}
		_, err = s.enroll(ctx, c, plan, 0)
		return err
	})
}

// importMessage текст ошибки строки импорта; внутренние ошибки не раскрываются.
func importMessage(err error) string {
	var e *models.Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "internal error"
}

// Renew продлевает абонемент с сегодняшнего дня. Клиент сразу становится
// активным, не дожидаясь подтверждения платежа.
func (s *ClientService) Renew(ctx context.Context, document string, req models.RenewRequest, actor string) (*models.RenewResult, error) {
	const op = "services.clients.Renew"
	log := s.log.With(slog.String("op", op), slog.String("document", document))

	res := &models.RenewResult{}
	var plan *models.Plan
	err := s.repo.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetClientForUpdate(ctx, document); err != nil {
			return err
		}
		var err error
		if plan, err = s.activePlan(ctx, req.PlanID); err != nil {
			return err
		}

		start := s.today()
		end := month.AddDays(start, plan.DurationDays)
		if bonusDays := s.clampBonus(req.BonusDays); bonusDays > 0 {
			now := s.now()
			res.Bonus, err = s.repo.CreateBonus(ctx, models.Bonus{
				ClientDocument: document,
				Kind:           models.BonusKind(bonusDays),
				DaysGift:       bonusDays,
				Reason:         "renewal gift",
				GrantedBy:      actorPtr(actor),
				Applied:        true,
				AppliedAt:      &now,
			})
			if err != nil {
				return err
			}
			end = month.AddDays(end, bonusDays)
		}

		res.Client, err = s.repo.SetMembershipWindow(ctx, document, models.MembershipWindow{
			PlanID:    &plan.ID,
			StartDate: start,
			EndDate:   end,
			Status:    models.ClientActive,
		})
		if err != nil {
			return err
		}

		return s.repo.AddHistory(ctx, models.HistoryEntry{
			ClientDocument: document,
			PlanID:         &plan.ID,
			StartDate:      start,
			EndDate:        end,
			PricePaid:      plan.Price,
		})
	})
	if err != nil {
		log.Error("failed to renew membership", sl.Err(err))
		return nil, err
	}

	if res.Bonus != nil {
		metrics.BonusesApplied.Inc()
	}
	cache.InvalidateReports(s.cache, log)
	log.Info("membership renewed", slog.String("end_date", res.Client.EndDate.Format(month.Layout)))

	if res.Client.HasEmail() {
		if err := s.notifier.Renewal(ctx, res.Client, plan); err != nil {
			log.Warn("renewal notification failed", sl.Err(err))
			res.Warnings = append(res.Warnings, "renewal email could not be sent")
		}
	}
	return res, nil
}

// RecordPayment регистрирует платёж существующего клиента. Даты абонемента
// сдвигаются сразу, до проверки платежа: действующий абонемент продлевается
// на длительность плана, истёкший начинается заново с сегодняшнего дня.
// Клиент переводится в pending до решения по платежу. Отклонение платежа
// даты не откатывает.
func (s *ClientService) RecordPayment(ctx context.Context, document string, req models.RecordPaymentRequest, actor string) (*models.RecordPaymentResult, error) {
	const op = "services.clients.RecordPayment"
	log := s.log.With(slog.String("op", op), slog.String("document", document))

	res := &models.RecordPaymentResult{}
	err := s.repo.RunInTx(ctx, func(ctx context.Context) error {
		client, err := s.repo.GetClientForUpdate(ctx, document)
		if err != nil {
			return err
		}

		planID := req.PlanID
		if planID == nil {
			planID = client.PlanID
		}
		if planID == nil {
			return models.Errorf(models.ErrValidation, "client %s has no plan, plan_id is required", document)
		}
		plan, err := s.activePlan(ctx, *planID)
		if err != nil {
			return err
		}

		amount := plan.Price
		if req.Amount != nil {
			amount = *req.Amount
		}
		if amount <= 0 {
			return models.Errorf(models.ErrValidation, "payment amount must be positive")
		}
		purpose := req.Purpose
		if purpose == "" {
			purpose = models.PurposeMembership
		}
		concept := sanitize.Text(req.Concept)
		if concept == "" {
			concept = "Payment - plan " + plan.Name
		}

		today := s.today()
		w := models.MembershipWindow{PlanID: &plan.ID, Status: models.ClientPending}
		if client.EndDate != nil && client.EndDate.After(today) {
			w.StartDate = today
			if client.StartDate != nil {
				w.StartDate = *client.StartDate
			}
			w.EndDate = month.AddDays(*client.EndDate, plan.DurationDays)
		} else {
			w.StartDate = today
			w.EndDate = month.AddDays(today, plan.DurationDays)
		}

		res.Payment, err = s.repo.CreatePayment(ctx, models.Payment{
			ClientDocument: document,
			PlanID:         &plan.ID,
			Concept:        concept,
			Purpose:        purpose,
			Amount:         amount,
			Method:         req.Method,
			Status:         models.PaymentPending,
			Receipt:        sanitize.Text(req.Receipt),
			Notes:          sanitize.Text(req.Notes),
			RecordedBy:     actorPtr(actor),
		})
		if err != nil {
			return err
		}

		res.Client, err = s.repo.SetMembershipWindow(ctx, document, w)
		return err
	})
	if err != nil {
		log.Error("failed to record payment", sl.Err(err))
		return nil, err
	}

	metrics.PaymentsProcessed.WithLabelValues(metrics.OutcomeRecorded).Inc()
	cache.InvalidateReports(s.cache, log)
	log.Info("payment recorded", slog.Int64("payment_id", res.Payment.ID))
	return res, nil
}

// RefreshStatuses сверяет статусы active/inactive с датами окончания.
func (s *ClientService) RefreshStatuses(ctx context.Context) (models.SweepResult, error) {
	const op = "services.clients.RefreshStatuses"

	res, err := s.repo.RefreshStatuses(ctx, s.today())
	if err != nil {
		s.log.Error("status sweep failed", slog.String("op", op), sl.Err(err))
		return models.SweepResult{}, err
	}
	if res.Deactivated > 0 || res.Reactivated > 0 {
		metrics.StatusSweepChanges.WithLabelValues("deactivated").Add(float64(res.Deactivated))
		metrics.StatusSweepChanges.WithLabelValues("reactivated").Add(float64(res.Reactivated))
		cache.InvalidateReports(s.cache, s.log)
		s.log.Info("client statuses refreshed",
			slog.Int("deactivated", res.Deactivated), slog.Int("reactivated", res.Reactivated))
	}
	return res, nil
}

// List ищет клиентов.
func (s *ClientService) List(ctx context.Context, filter models.ClientFilter) ([]*models.Client, error) {
	switch filter.Status {
	case "", models.ClientPending, models.ClientActive, models.ClientInactive:
	default:
		return nil, models.Errorf(models.ErrValidation, "unknown status %q", filter.Status)
	}
	filter.Query = strings.TrimSpace(filter.Query)
	return s.repo.ListClients(ctx, filter)
}

// Get возвращает карточку клиента с историей, платежами и бонусами.
func (s *ClientService) Get(ctx context.Context, document string) (*models.ClientDetails, error) {
	client, err := s.repo.GetClient(ctx, document)
	if err != nil {
		return nil, err
	}
	details := &models.ClientDetails{Client: client, DaysLeft: client.DaysLeft(s.today())}
	if details.History, err = s.repo.ListHistory(ctx, document); err != nil {
		return nil, err
	}
	if details.Payments, err = s.repo.ListPaymentsByClient(ctx, document); err != nil {
		return nil, err
	}
	if details.Bonuses, err = s.repo.ListBonusesByClient(ctx, document); err != nil {
		return nil, err
	}
	return details, nil
}

// Update меняет анкетные данные клиента.
func (s *ClientService) Update(ctx context.Context, document string, upd models.ClientUpdate) (*models.Client, error) {
	if upd.BirthDate != nil {
		d, err := month.Parse(*upd.BirthDate)
		if err != nil {
			return nil, models.Errorf(models.ErrValidation, "invalid birth date %q", *upd.BirthDate)
		}
		if err := s.checkAge(d); err != nil {
			return nil, err
		}
		upd.BirthDateValue = &d
	}
	var err error
	if upd.FirstName, err = sanitize.RequiredPtr("first_name", upd.FirstName); err != nil {
		return nil, err
	}
	if upd.LastName, err = sanitize.RequiredPtr("last_name", upd.LastName); err != nil {
		return nil, err
	}
	upd.Phone = sanitize.Ptr(upd.Phone)

	client, err := s.repo.UpdateClient(ctx, document, upd)
	if err != nil {
		return nil, err
	}
	cache.InvalidateReports(s.cache, s.log)
	return client, nil
}

// Delete удаляет клиента со всеми связанными записями.
func (s *ClientService) Delete(ctx context.Context, document string) error {
	if err := s.repo.DeleteClient(ctx, document); err != nil {
		return err
	}
	cache.InvalidateReports(s.cache, s.log)
	s.log.Info("client deleted", slog.String("document", document))
	return nil
}
