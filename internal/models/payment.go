package models

import "time"

// Статусы платежа. Допустимы только переходы pending -> validated и pending -> rejected.
const (
	PaymentPending   = "pending"
	PaymentValidated = "validated"
	PaymentRejected  = "rejected"
	PaymentCancelled = "cancelled"
)

// Назначение платежа.
const (
	PurposeMembership = "membership"
	PurposeRenewal    = "renewal"
)

// Способы оплаты.
const (
	MethodCash      = "cash"
	MethodCard      = "card"
	MethodTransfer  = "transfer"
	MethodNequi     = "nequi"
	MethodDaviplata = "daviplata"
)

// Payment представляет платёж клиента.
type Payment struct {
	ID             int64      `json:"id"`
	ClientDocument string     `json:"client_document"`
	PlanID         *int64     `json:"plan_id,omitempty"`
	Concept        string     `json:"concept"`
	Purpose        string     `json:"purpose"`
	Amount         float64    `json:"amount"`
	Method         string     `json:"method"`
	Status         string     `json:"status"`
	Receipt        string     `json:"receipt,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	PaidAt         time.Time  `json:"paid_at"`
	ValidatedAt    *time.Time `json:"validated_at,omitempty"`
	RecordedBy     *string    `json:"recorded_by,omitempty"`
	ValidatedBy    *string    `json:"validated_by,omitempty"`
}

// IsPending сообщает, ожидает ли платёж проверки.
func (p *Payment) IsPending() bool {
	return p.Status == PaymentPending
}

// PaymentUpdate перечисляет поля платежа, которые можно менять пока он pending.
type PaymentUpdate struct {
	Concept *string  `json:"concept" validate:"omitempty,max=200"`
	Purpose *string  `json:"purpose" validate:"omitempty,oneof=membership renewal"`
	Amount  *float64 `json:"amount" validate:"omitempty,gt=0"`
	Method  *string  `json:"method" validate:"omitempty,oneof=cash card transfer nequi daviplata"`
	Receipt *string  `json:"receipt" validate:"omitempty,max=100"`
	Notes   *string  `json:"notes" validate:"omitempty,max=1000"`
	PlanID  *int64   `json:"plan_id" validate:"omitempty,gt=0"`
}

// Decision итог проверки платежа.
type Decision struct {
	Status string
	At     time.Time
	By     string
	Notes  *string
}

// RejectRequest причина отклонения платежа.
type RejectRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

// PaymentFilter параметры выборки платежей.
type PaymentFilter struct {
	Status string
	Limit  int
	Offset int
}
