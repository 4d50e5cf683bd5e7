package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReferralStatus represents the state of a referral relationship.
type ReferralStatus string

const (
	ReferralStatusPending ReferralStatus = "PENDING"
	ReferralStatusActive  ReferralStatus = "ACTIVE"
)

// Referral links a referrer to a referred user. One row per referred
// user; BonusEarned accumulates across the referred user's deposits.
type Referral struct {
	ID             uuid.UUID      `json:"id"`
	ReferrerID     uuid.UUID      `json:"referrer_id"`
	ReferredUserID uuid.UUID      `json:"referred_user_id"`
	BonusEarned    int64          `json:"bonus_earned"`
	Status         ReferralStatus `json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}
