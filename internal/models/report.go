package models

import "time"

// GroupCount количество записей в группе.
type GroupCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// GroupSum количество и сумма платежей в группе.
type GroupSum struct {
	Key   string  `json:"key"`
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

// SeriesPoint точка временного ряда.
type SeriesPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// PaymentStats агрегаты по платежам. Суммы равны 0 при отсутствии строк,
// группировки пустые списки.
type PaymentStats struct {
	ValidatedCount int        `json:"validated_count"`
	TotalIncome    float64    `json:"total_income"`
	PendingCount   int        `json:"pending_count"`
	RejectedCount  int        `json:"rejected_count"`
	TodayCount     int        `json:"today_count"`
	TodayIncome    float64    `json:"today_income"`
	MonthIncome    float64    `json:"month_income"`
	ByMethod       []GroupSum `json:"by_method"`
	ByPurpose      []GroupSum `json:"by_purpose"`
}

// PaymentReport статистика и список подтверждённых платежей за период.
type PaymentReport struct {
	Stats    PaymentStats `json:"stats"`
	Payments []*Payment   `json:"payments"`
}

// ClientStats агрегаты по клиентам.
type ClientStats struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
	Pending  int `json:"pending"`
	Expiring int `json:"expiring"`
	Expired  int `json:"expired"`
}

// AttendanceStats агрегаты по посещениям.
type AttendanceStats struct {
	Today int `json:"today"`
	Month int `json:"month"`
	Total int `json:"total"`
}

// TopClient клиент с суммой подтверждённых платежей.
type TopClient struct {
	Document string  `json:"document"`
	Name     string  `json:"name"`
	Payments int     `json:"payments"`
	Total    float64 `json:"total"`
}

// Dashboard сводка для главной страницы.
type Dashboard struct {
	ActivePlans       int           `json:"active_plans"`
	TotalClients      int           `json:"total_clients"`
	TotalUsers        int           `json:"total_users"`
	AttendanceToday   int           `json:"attendance_today"`
	ExpiringClients   []*Client     `json:"expiring_clients"`
	InactiveClients   int           `json:"inactive_clients"`
	ActiveClients     int           `json:"active_clients"`
	PendingPayments   int           `json:"pending_payments"`
	IncomeToday       float64       `json:"income_today"`
	IncomeMonth       float64       `json:"income_month"`
	MonthlyIncome     []SeriesPoint `json:"monthly_income"`
	DailyAttendance   []SeriesPoint `json:"daily_attendance"`
	PlanDistribution  []GroupCount  `json:"plan_distribution"`
	PaymentsByMethod  []GroupSum    `json:"payments_by_method"`
	ExpiryWarningDays int           `json:"expiry_warning_days"`
}

// TimeRange полуинтервал времени [From, To). Нулевой диапазон означает "за всё время".
type TimeRange struct {
	From time.Time
	To   time.Time
}

// IsZero сообщает, что диапазон не задан.
func (r TimeRange) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}
