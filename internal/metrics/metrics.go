// Package metrics счётчики Prometheus для операций с абонементами.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ClientsRegistered число зарегистрированных клиентов.
	ClientsRegistered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "membership_clients_registered_total",
		Help: "Number of registered clients.",
	})

	// PaymentsProcessed решения по платежам, outcome: recorded, validated, rejected.
	PaymentsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "membership_payments_processed_total",
		Help: "Number of recorded and decided payments.",
	}, []string{"outcome"})

	// BonusesApplied число применённых бонусных дней.
	BonusesApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "membership_bonuses_applied_total",
		Help: "Number of applied bonuses.",
	})

	// Notifications уведомления по шаблону и результату: published, failed, sent.
	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "membership_notifications_total",
		Help: "Notifications by template and result.",
	}, []string{"template", "result"})

	// StatusSweepChanges изменения статусов при сверке, direction: deactivated, reactivated.
	StatusSweepChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "membership_status_sweep_changes_total",
		Help: "Client status changes made by the status sweep.",
	}, []string{"direction"})
)

// Outcome значения метки outcome.
const (
	OutcomeRecorded  = "recorded"
	OutcomeValidated = "validated"
	OutcomeRejected  = "rejected"
)

// Result значения метки result.
const (
	ResultPublished = "published"
	ResultFailed    = "failed"
	ResultSent      = "sent"
)
