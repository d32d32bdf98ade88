package models

import "time"

// Plan описывает план абонемента: длительность в днях и цену.
// Выведенный из продажи план не удаляется, а получает Active=false.
type Plan struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	DurationDays int       `json:"duration_days"`
	Price        float64   `json:"price"`
	Description  string    `json:"description,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreatePlanRequest данные для создания плана.
type CreatePlanRequest struct {
	Name         string  `json:"name" validate:"required,max=100"`
	DurationDays int     `json:"duration_days" validate:"required,gt=0"`
	Price        float64 `json:"price" validate:"gte=0"`
	Description  string  `json:"description" validate:"max=1000"`
}

// PlanUpdate перечисляет изменяемые поля плана.
type PlanUpdate struct {
	Name         *string  `json:"name" validate:"omitempty,max=100"`
	DurationDays *int     `json:"duration_days" validate:"omitempty,gt=0"`
	Price        *float64 `json:"price" validate:"omitempty,gte=0"`
	Description  *string  `json:"description" validate:"omitempty,max=1000"`
}

// PlanStats агрегаты по активным планам.
type PlanStats struct {
	ActivePlans      int     `json:"active_plans"`
	AveragePrice     float64 `json:"average_price"`
	AverageDuration  float64 `json:"average_duration"`
	PotentialRevenue float64 `json:"potential_revenue"`
}
