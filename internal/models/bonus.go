package models

import (
	"fmt"
	"time"
)

// MaxBonusDays верхняя граница подарочных дней.
const MaxBonusDays = 3

// Bonus подарок клиенту в 1-3 дня абонемента. После применения не меняется,
// удалить можно только неприменённый бонус.
type Bonus struct {
	ID             int64      `json:"id"`
	ClientDocument string     `json:"client_document"`
	Kind           string     `json:"kind"`
	DaysGift       int        `json:"days_gift"`
	Reason         string     `json:"reason"`
	GrantedBy      *string    `json:"granted_by,omitempty"`
	Applied        bool       `json:"applied"`
	AppliedAt      *time.Time `json:"applied_at,omitempty"`
	GrantedAt      time.Time  `json:"granted_at"`
}

// BonusKind возвращает тип бонуса по количеству дней: 1_day, 2_days, 3_days.
func BonusKind(days int) string {
	if days == 1 {
		return "1_day"
	}
	return fmt.Sprintf("%d_days", days)
}

// BonusResult выданный бонус и клиент после применения, если оно было.
type BonusResult struct {
	Bonus  *Bonus  `json:"bonus"`
	Client *Client `json:"client,omitempty"`
}

// CreateBonusRequest данные для выдачи бонуса.
type CreateBonusRequest struct {
	ClientDocument string `json:"client_document" validate:"required"`
	Days           int    `json:"days" validate:"required,min=1,max=3"`
	Reason         string `json:"reason" validate:"required,max=200"`
	ApplyNow       bool   `json:"apply_now"`
}

// BonusStats агрегаты по бонусам.
type BonusStats struct {
	Total         int          `json:"total"`
	Applied       int          `json:"applied"`
	Pending       int          `json:"pending"`
	TotalDaysGift int          `json:"total_days_gift"`
	ByKind        []GroupCount `json:"by_kind"`
}
