package domain

import (
	"time"

	"github.com/google/uuid"
)

// InvestmentStatus represents the lifecycle state of an investment.
type InvestmentStatus string

const (
	InvestmentStatusActive    InvestmentStatus = "ACTIVE"
	InvestmentStatusCompleted InvestmentStatus = "COMPLETED"
	InvestmentStatusCancelled InvestmentStatus = "CANCELLED"
)

// Investment represents a user's position in an investment plan.
// DailyRateBps is frozen from the plan at creation time, so later
// plan edits never change accrual for existing positions.
type Investment struct {
	ID              uuid.UUID        `json:"id"`
	UserID          uuid.UUID        `json:"user_id"`
	PlanID          uuid.UUID        `json:"plan_id"`
	Amount          int64            `json:"amount"` // In smallest unit (cents)
	DailyRateBps    int64            `json:"daily_rate_bps"`
	TotalEarned     int64            `json:"total_earned"`
	Status          InvestmentStatus `json:"status"`
	StartDate       time.Time        `json:"start_date"`
	EndDate         time.Time        `json:"end_date"`
	LastEarningDate time.Time        `json:"last_earning_date"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// DailyEarning returns the earning credited per accrued day.
func (i *Investment) DailyEarning() int64 {
	return i.Amount * i.DailyRateBps / 10000
}

// AccruableDays returns the number of whole days to credit as of now:
// full days elapsed since LastEarningDate, clamped so accrual never
// runs past EndDate. Zero when nothing is due.
func (i *Investment) AccruableDays(now time.Time) int64 {
	if i.Status != InvestmentStatusActive {
		return 0
	}
	until := now
	if until.After(i.EndDate) {
		until = i.EndDate
	}
	elapsed := until.Sub(i.LastEarningDate)
	if elapsed < 24*time.Hour {
		return 0
	}
	return int64(elapsed / (24 * time.Hour))
}

// IsExpired reports whether the term has ended as of now.
func (i *Investment) IsExpired(now time.Time) bool {
	return !now.Before(i.EndDate)
}
