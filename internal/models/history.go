package models

import "time"

// HistoryEntry запись журнала абонементов. Только добавляется.
type HistoryEntry struct {
	ID             int64     `json:"id"`
	ClientDocument string    `json:"client_document"`
	PlanID         *int64    `json:"plan_id,omitempty"`
	PlanName       string    `json:"plan_name,omitempty"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	PricePaid      float64   `json:"price_paid"`
	RecordedAt     time.Time `json:"recorded_at"`
}
