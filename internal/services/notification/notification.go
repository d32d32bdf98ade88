// Package services публикует уведомления клиентам в очередь рассылки.
package services

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/membership-manager/internal/lib/month"
	"github.com/magabrotheeeer/membership-manager/internal/lib/sl"
	"github.com/magabrotheeeer/membership-manager/internal/metrics"
	"github.com/magabrotheeeer/membership-manager/internal/models"
	"github.com/magabrotheeeer/membership-manager/internal/rabbitmq"
)

// Виды индивидуальных уведомлений.
const (
	KindExpiry       = "expiry"
	KindRenewal      = "renewal"
	KindReactivation = "reactivation"
)

// Publisher публикует сообщение в брокер.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// ClientRepository методы хранилища, нужные для выбора адресатов.
type ClientRepository interface {
	GetClient(ctx context.Context, document string) (*models.Client, error)
	GetPlan(ctx context.Context, id int64) (*models.Plan, error)
	ListExpiring(ctx context.Context, from, to time.Time) ([]*models.Client, error)
	ListWithEmailByStatus(ctx context.Context, status string) ([]*models.Client, error)
}

// NotificationService формирует уведомления и отправляет их в очередь.
// Ошибка отправки никогда не откатывает операцию, которая её вызвала.
type NotificationService struct {
	repo        ClientRepository
	publisher   Publisher
	log         *slog.Logger
	warningDays int
	today       func() time.Time
}

// NewNotificationService создает новый экземпляр NotificationService.
// warningDays порог предупреждения об окончании абонемента.
func NewNotificationService(repo ClientRepository, publisher Publisher, log *slog.Logger,
	warningDays int, loc *time.Location) *NotificationService {
	return &NotificationService{
		repo:        repo,
		publisher:   publisher,
		log:         log,
		warningDays: warningDays,
		today:       func() time.Time { return month.Today(loc) },
	}
}

// Send публикует письмо по шаблону template.
func (s *NotificationService) Send(ctx context.Context, template, to, subject string, fields map[string]string) error {
	const op = "services.notification.Send"
	if to == "" {
		return models.Errorf(models.ErrValidation, "client has no email")
	}

	msg := models.Notification{
		ID:       uuid.NewString(),
		Template: template,
		To:       to,
		Subject:  subject,
		Fields:   fields,
	}
	if err := s.publisher.Publish(ctx, rabbitmq.EmailRoutingKey, msg); err != nil {
		metrics.Notifications.WithLabelValues(template, metrics.ResultFailed).Inc()
		s.log.Warn("failed to publish notification",
			slog.String("op", op), slog.String("template", template), sl.Err(err))
		return err
	}
	metrics.Notifications.WithLabelValues(template, metrics.ResultPublished).Inc()
	s.log.Info("notification published", slog.String("template", template), slog.String("id", msg.ID))
	return nil
}

func (s *NotificationService) fields(c *models.Client, plan *models.Plan) map[string]string {
	f := map[string]string{
		"name": c.FullName(),
	}
	if plan != nil {
		f["plan"] = plan.Name
	}
	if c.StartDate != nil {
		f["start_date"] = c.StartDate.Format(month.Layout)
	}
	if c.EndDate != nil {
		f["end_date"] = c.EndDate.Format(month.Layout)
		if days := c.DaysLeft(s.today()); days != nil {
			f["days_left"] = strconv.Itoa(*days)
		}
	}
	return f
}

func email(c *models.Client) string {
	if !c.HasEmail() {
		return ""
	}
	return *c.Email
}

// Welcome приветствие после регистрации.
func (s *NotificationService) Welcome(ctx context.Context, c *models.Client, plan *models.Plan) error {
	return s.Send(ctx, models.TemplateWelcome, email(c), "Welcome to the gym!", s.fields(c, plan))
}

// Renewal подтверждение продления абонемента.
func (s *NotificationService) Renewal(ctx context.Context, c *models.Client, plan *models.Plan) error {
	return s.Send(ctx, models.TemplateRenewal, email(c), "Your membership has been renewed", s.fields(c, plan))
}

// ExpiryWarning предупреждение о скором окончании абонемента.
func (s *NotificationService) ExpiryWarning(ctx context.Context, c *models.Client) error {
	return s.Send(ctx, models.TemplateExpiryWarning, email(c), "Your membership is about to expire", s.fields(c, s.planOf(ctx, c)))
}

// Reactivation приглашение вернуться для неактивного клиента.
func (s *NotificationService) Reactivation(ctx context.Context, c *models.Client) error {
	return s.Send(ctx, models.TemplateReactivation, email(c), "We miss you at the gym", s.fields(c, s.planOf(ctx, c)))
}

// planOf текущий план клиента; ошибка только логируется, письмо уходит без плана.
func (s *NotificationService) planOf(ctx context.Context, c *models.Client) *models.Plan {
	if c.PlanID == nil {
		return nil
	}
	plan, err := s.repo.GetPlan(ctx, *c.PlanID)
	if err != nil {
		s.log.Warn("failed to load plan for notification", slog.String("document", c.Document), sl.Err(err))
		return nil
	}
	return plan
}

// NotifyClient отправляет клиенту уведомление вида kind.
func (s *NotificationService) NotifyClient(ctx context.Context, document, kind string) error {
	c, err := s.repo.GetClient(ctx, document)
	if err != nil {
		return err
	}
	if !c.HasEmail() {
		return models.Errorf(models.ErrValidation, "client %s has no email", document)
	}

	switch kind {
	case KindExpiry:
		return s.ExpiryWarning(ctx, c)
	case KindRenewal:
		return s.Renewal(ctx, c, s.planOf(ctx, c))
	case KindReactivation:
		if c.Status != models.ClientInactive {
			return models.Errorf(models.ErrInvalidState, "client %s is not inactive", document)
		}
		return s.Reactivation(ctx, c)
	default:
		return models.Errorf(models.ErrValidation, "unknown notification kind %q", kind)
	}
}

// SendExpiryWarnings рассылает предупреждения активным клиентам, у которых
// абонемент заканчивается в ближайшие warningDays дней.
func (s *NotificationService) SendExpiryWarnings(ctx context.Context) (models.BulkResult, error) {
	today := s.today()
	clients, err := s.repo.ListExpiring(ctx, today, month.AddDays(today, s.warningDays))
	if err != nil {
		return models.BulkResult{}, err
	}
	return s.bulk(ctx, clients, s.ExpiryWarning), nil
}

// SendReactivations рассылает приглашения всем неактивным клиентам с почтой.
func (s *NotificationService) SendReactivations(ctx context.Context) (models.BulkResult, error) {
	clients, err := s.repo.ListWithEmailByStatus(ctx, models.ClientInactive)
	if err != nil {
		return models.BulkResult{}, err
	}
	return s.bulk(ctx, clients, s.Reactivation), nil
}

func (s *NotificationService) bulk(ctx context.Context, clients []*models.Client,
	send func(context.Context, *models.Client) error) models.BulkResult {
	var res models.BulkResult
	for _, c := range clients {
		if !c.HasEmail() {
			continue
		}
		res.Total++
		if err := send(ctx, c); err != nil {
			res.Failed++
			continue
		}
		res.Sent++
	}
	s.log.Info("bulk notification finished",
		slog.Int("sent", res.Sent), slog.Int("failed", res.Failed), slog.Int("total", res.Total))
	return res
}
