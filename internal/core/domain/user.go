package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered platform member.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Never expose
	Country      string     `json:"country"`
	CountryCode  string     `json:"country_code"`
	Phone        string     `json:"phone"`
	ReferralCode string     `json:"referral_code"`
	ReferredBy   *uuid.UUID `json:"referred_by,omitempty"`
	IsAdmin      bool       `json:"is_admin"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// WasReferred returns true if the user signed up with a referral code.
func (u *User) WasReferred() bool {
	return u.ReferredBy != nil
}
