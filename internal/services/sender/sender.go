// Package services доставляет уведомления клиентам по электронной почте.
package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"text/template"

	"github.com/magabrotheeeer/membership-manager/internal/lib/sl"
	"github.com/magabrotheeeer/membership-manager/internal/lib/smtp"
	"github.com/magabrotheeeer/membership-manager/internal/metrics"
	"github.com/magabrotheeeer/membership-manager/internal/models"
)

var templates = template.Must(template.New("mail").Option("missingkey=zero").Parse(`
{{define "welcome"}}Hello, {{.name}}!

Welcome to the gym. Your membership{{with .plan}} "{{.}}"{{end}} is registered
{{- with .end_date}} and is valid until {{.}}{{end}}.
It becomes active as soon as your payment is validated at the front desk.

See you at training!{{end}}

{{define "renewal"}}Hello, {{.name}}!

Your membership{{with .plan}} "{{.}}"{{end}} has been renewed
{{- with .start_date}} from {{.}}{{end}}{{with .end_date}} until {{.}}{{end}}.

Thank you for staying with us!{{end}}

{{define "expiry_warning"}}Hello, {{.name}}!

Your membership{{with .plan}} "{{.}}"{{end}} expires on {{.end_date}}
{{- with .days_left}} ({{.}} days left){{end}}.
Renew it at the front desk to keep training without interruption.{{end}}

{{define "reactivation"}}Hello, {{.name}}!

We have not seen you for a while and your membership is no longer active.
Come back: our plans are waiting for you at the front desk.{{end}}
`))

// errPermanent сообщение, которое нельзя доставить повторной попыткой.
var errPermanent = errors.New("permanent delivery failure")

// SenderService отрисовывает письма и отправляет их через SMTP.
type SenderService struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(transport smtp.TransportInterface, log *slog.Logger) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// HandleMessage обрабатывает тело сообщения из очереди. Ошибка SMTP возвращается
// и приводит к повторной доставке; повреждённое сообщение или неизвестный
// шаблон только логируются, чтобы не зацикливать очередь.
func (s *SenderService) HandleMessage(body []byte) error {
	err := s.deliver(body)
	if errors.Is(err, errPermanent) {
		s.log.Error("dropping undeliverable notification", sl.Err(err))
		return nil
	}
	return err
}

func (s *SenderService) deliver(body []byte) error {
	const op = "services.sender.deliver"

	var n models.Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return fmt.Errorf("%s: %w: %w", op, errPermanent, err)
	}
	log := s.log.With(slog.String("id", n.ID), slog.String("template", n.Template))
	if n.To == "" {
		return fmt.Errorf("%s: %w: empty recipient", op, errPermanent)
	}

	text, err := Render(n.Template, n.Fields)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, errPermanent, err)
	}

	from := s.transport.GetSMTPUser()
	client, err := s.transport.Connect()
	if err != nil {
		metrics.Notifications.WithLabelValues(n.Template, metrics.ResultFailed).Inc()
		log.Error("failed to connect to SMTP server", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = client.Close()
	}()

	if err := smtp.Send(client, from, n.To, smtp.BuildMessage(from, n.To, n.Subject, text)); err != nil {
		metrics.Notifications.WithLabelValues(n.Template, metrics.ResultFailed).Inc()
		log.Error("failed to send email", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	metrics.Notifications.WithLabelValues(n.Template, metrics.ResultSent).Inc()
	log.Info("email sent successfully")
	return nil
}

// Render возвращает текст письма по имени шаблона.
func Render(name string, fields map[string]string) (string, error) {
	if templates.Lookup(name) == nil {
		return "", fmt.Errorf("unknown template %q", name)
	}
	if fields == nil {
		fields = map[string]string{}
	}
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, fields); err != nil {
		return "", err
	}
	return buf.String(), nil
}
