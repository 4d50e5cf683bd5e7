package domain

import (
	"time"

	"github.com/google/uuid"
)

// Wallet holds a user's balances. All amounts are in the smallest
// currency unit (cents) and must never go negative.
type Wallet struct {
	ID                 uuid.UUID `json:"id"`
	UserID             uuid.UUID `json:"user_id"`
	Balance            int64     `json:"balance"`
	PendingDeposits    int64     `json:"pending_deposits"`
	PendingWithdrawals int64     `json:"pending_withdrawals"`
	TotalEarnings      int64     `json:"total_earnings"`
	TotalDeposits      int64     `json:"total_deposits"`
	TotalWithdrawals   int64     `json:"total_withdrawals"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// CanDebit reports whether the spendable balance covers amount.
// Escrowed (pending withdrawal) funds are already excluded from Balance.
func (w *Wallet) CanDebit(amount int64) bool {
	return amount > 0 && w.Balance >= amount
}
