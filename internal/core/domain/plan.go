package domain

import (
	"time"

	"github.com/google/uuid"
)

// InvestmentPlan is a catalog entry describing the terms of an
// investment product. Plans are read-only to users.
type InvestmentPlan struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Badge        string    `json:"badge,omitempty"`
	Description  string    `json:"description,omitempty"`
	DailyRateBps int64     `json:"daily_rate_bps"` // 250 = 2.5%/day
	MinAmount    int64     `json:"min_amount"`
	MaxAmount    int64     `json:"max_amount"`
	DurationDays int       `json:"duration_days"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AmountInRange reports whether amount satisfies the plan's limits.
func (p *InvestmentPlan) AmountInRange(amount int64) bool {
	return amount >= p.MinAmount && amount <= p.MaxAmount
}
