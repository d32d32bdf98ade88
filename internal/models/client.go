package models

import "time"

// Статусы клиента.
const (
	ClientPending  = "pending"
	ClientActive   = "active"
	ClientInactive = "inactive"
)

// DateLayout формат дат в запросах API.
const DateLayout = "2006-01-02"

// Client представляет клиента спортзала. Документ является первичным ключом.
// Пока платёж ожидает проверки, статус принудительно pending вне зависимости от дат.
type Client struct {
	Document     string     `json:"document"`
	DocumentType string     `json:"document_type"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Weight       *float64   `json:"weight,omitempty"`
	BirthDate    *time.Time `json:"birth_date,omitempty"`
	Email        *string    `json:"email,omitempty"`
	Phone        *string    `json:"phone,omitempty"`
	PlanID       *int64     `json:"plan_id,omitempty"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	Status       string     `json:"status"`
	RegisteredAt time.Time  `json:"registered_at"`
}

// FullName возвращает имя и фамилию клиента.
func (c *Client) FullName() string {
	return c.FirstName + " " + c.LastName
}

// HasEmail сообщает, указан ли у клиента адрес почты.
func (c *Client) HasEmail() bool {
	return c.Email != nil && *c.Email != ""
}

// DaysLeft возвращает количество дней до окончания абонемента относительно today.
// Для клиента без даты окончания возвращает nil.
func (c *Client) DaysLeft(today time.Time) *int {
	if c.EndDate == nil {
		return nil
	}
	days := int(c.EndDate.Sub(today).Hours() / 24)
	return &days
}

// MembershipWindow новое окно абонемента, которое записывается в клиента целиком.
type MembershipWindow struct {
	PlanID    *int64
	StartDate time.Time
	EndDate   time.Time
	Status    string
}

// PaymentInput необязательный первый платёж при регистрации клиента.
type PaymentInput struct {
	Method  string  `json:"method" validate:"required,oneof=cash card transfer nequi daviplata"`
	Amount  float64 `json:"amount" validate:"required,gt=0"`
	Receipt string  `json:"receipt" validate:"max=100"`
	Notes   string  `json:"notes" validate:"max=1000"`
}

// RegisterClientRequest данные для регистрации нового клиента.
type RegisterClientRequest struct {
	DocumentType string        `json:"document_type" validate:"omitempty,oneof=CC CE TI"`
	Document     string        `json:"document" validate:"required,max=20"`
	FirstName    string        `json:"first_name" validate:"required,max=100"`
	LastName     string        `json:"last_name" validate:"required,max=100"`
	Weight       *float64      `json:"weight" validate:"omitempty,gt=0"`
	BirthDate    string        `json:"birth_date" validate:"omitempty,isodate"`
	Email        string        `json:"email" validate:"omitempty,email"`
	Phone        string        `json:"phone" validate:"omitempty,max=15"`
	PlanID       int64         `json:"plan_id" validate:"required,gt=0"`
	BonusDays    int           `json:"bonus_days" validate:"gte=0"`
	Payment      *PaymentInput `json:"payment"`
}

// RenewRequest данные для продления абонемента.
type RenewRequest struct {
	PlanID    int64 `json:"plan_id" validate:"required,gt=0"`
	BonusDays int   `json:"bonus_days" validate:"gte=0"`
}

// RecordPaymentRequest данные для регистрации платежа существующего клиента.
// Пустые PlanID и Amount берутся из текущего плана клиента.
type RecordPaymentRequest struct {
	PlanID  *int64   `json:"plan_id" validate:"omitempty,gt=0"`
	Amount  *float64 `json:"amount" validate:"omitempty,gt=0"`
	Method  string   `json:"method" validate:"required,oneof=cash card transfer nequi daviplata"`
	Purpose string   `json:"purpose" validate:"omitempty,oneof=membership renewal"`
	Concept string   `json:"concept" validate:"max=200"`
	Receipt string   `json:"receipt" validate:"max=100"`
	Notes   string   `json:"notes" validate:"max=1000"`
}

// ClientUpdate перечисляет редактируемые поля клиента.
// Статус и даты абонемента здесь не меняются.
type ClientUpdate struct {
	DocumentType *string  `json:"document_type" validate:"omitempty,oneof=CC CE TI"`
	FirstName    *string  `json:"first_name" validate:"omitempty,max=100"`
	LastName     *string  `json:"last_name" validate:"omitempty,max=100"`
	Weight       *float64 `json:"weight" validate:"omitempty,gt=0"`
	BirthDate    *string  `json:"birth_date" validate:"omitempty,isodate"`
	Email        *string  `json:"email" validate:"omitempty,email"`
	Phone        *string  `json:"phone" validate:"omitempty,max=15"`

	BirthDateValue *time.Time `json:"-"`
}

// ClientFilter параметры поиска клиентов.
type ClientFilter struct {
	Query  string
	Status string
	Limit  int
	Offset int
}

// ClientDetails карточка клиента со связанными записями.
type ClientDetails struct {
	Client   *Client         `json:"client"`
	DaysLeft *int            `json:"days_left,omitempty"`
	History  []*HistoryEntry `json:"history"`
	Payments []*Payment      `json:"payments"`
	Bonuses  []*Bonus        `json:"bonuses"`
}

// RegisterResult результат регистрации клиента.
type RegisterResult struct {
	Client   *Client  `json:"client"`
	Payment  *Payment `json:"payment,omitempty"`
	Bonus    *Bonus   `json:"bonus,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// RenewResult результат продления абонемента.
type RenewResult struct {
	Client   *Client  `json:"client"`
	Bonus    *Bonus   `json:"bonus,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// RecordPaymentResult результат регистрации платежа.
type RecordPaymentResult struct {
	Client  *Client  `json:"client"`
	Payment *Payment `json:"payment"`
}

// SweepResult результат пересчёта статусов.
type SweepResult struct {
	Deactivated int `json:"deactivated"`
	Reactivated int `json:"reactivated"`
}

// ImportClientRow строка импорта уже действующего клиента.
type ImportClientRow struct {
	DocumentType string   `json:"document_type" validate:"omitempty,oneof=CC CE TI"`
	Document     string   `json:"document" validate:"required,max=20"`
	FirstName    string   `json:"first_name" validate:"required,max=100"`
	LastName     string   `json:"last_name" validate:"required,max=100"`
	Weight       *float64 `json:"weight" validate:"omitempty,gt=0"`
	BirthDate    string   `json:"birth_date" validate:"omitempty,isodate"`
	Email        string   `json:"email" validate:"omitempty,email"`
	Phone        string   `json:"phone" validate:"omitempty,max=15"`
	PlanID       int64    `json:"plan_id" validate:"required,gt=0"`
}

// RegisterRequest анкетные данные строки в виде запроса регистрации без бонуса и платежа.
func (r ImportClientRow) RegisterRequest() RegisterClientRequest {
	return RegisterClientRequest{
		DocumentType: r.DocumentType,
		Document:     r.Document,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Weight:       r.Weight,
		BirthDate:    r.BirthDate,
		Email:        r.Email,
		Phone:        r.Phone,
		PlanID:       r.PlanID,
	}
}

// ImportClientsRequest пакет строк импорта.
type ImportClientsRequest struct {
	Clients []ImportClientRow `json:"clients" validate:"required,min=1,max=500,dive"`
}

// ImportError ошибка одной строки импорта; Row считается с единицы.
type ImportError struct {
	Row      int    `json:"row"`
	Document string `json:"document"`
	Error    string `json:"error"`
}

// ImportResult итог импорта клиентов.
type ImportResult struct {
	Imported int           `json:"imported"`
	Failed   int           `json:"failed"`
	Total    int           `json:"total"`
	Errors   []ImportError `json:"errors,omitempty"`
}
