package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType represents the kind of money movement.
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTypeEarning    TransactionType = "EARNING"
	TransactionTypeReferral   TransactionType = "REFERRAL"
	TransactionTypeInvestment TransactionType = "INVESTMENT"
)

// PaymentMethod represents the channel used to fund or pay out a transaction.
type PaymentMethod string

const (
	PaymentMethodBitcoin      PaymentMethod = "BITCOIN"
	PaymentMethodEthereum     PaymentMethod = "ETHEREUM"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentMethodSystem       PaymentMethod = "SYSTEM"
)

// TransactionStatus represents the lifecycle state of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// transitions is the allowed status transition table. Terminal states
// have no outgoing edges.
var transitions = map[TransactionStatus][]TransactionStatus{
	TransactionStatusPending: {
		TransactionStatusCompleted,
		TransactionStatusCancelled,
		TransactionStatusFailed,
	},
}

// Transaction represents an immutable ledger entry for money movement.
type Transaction struct {
	ID            uuid.UUID         `json:"id"`
	UserID        uuid.UUID         `json:"user_id"`
	Type          TransactionType   `json:"type"`
	Amount        int64             `json:"amount"` // In smallest unit (cents)
	Method        PaymentMethod     `json:"method"`
	Status        TransactionStatus `json:"status"`
	Reference     *string           `json:"reference,omitempty"`
	WalletAddress *string           `json:"-"` // AES-256 encrypted at rest, never expose
	Description   string            `json:"description,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	ProcessedAt   *time.Time        `json:"processed_at,omitempty"`
}

// IsTerminal returns true if the transaction is in a final state.
func (t *Transaction) IsTerminal() bool {
	return t.Status != TransactionStatusPending
}

// CanTransitionTo reports whether the status change is permitted.
func (t *Transaction) CanTransitionTo(next TransactionStatus) bool {
	for _, s := range transitions[t.Status] {
		if s == next {
			return true
		}
	}
	return false
}

// RequiresDecision returns true if the transaction waits for an
// admin approve/reject decision.
func (t *Transaction) RequiresDecision() bool {
	return t.Status == TransactionStatusPending &&
		(t.Type == TransactionTypeDeposit || t.Type == TransactionTypeWithdrawal)
}

// IsCryptoMethod reports whether the payment method needs a wallet address.
func IsCryptoMethod(m PaymentMethod) bool {
	return m == PaymentMethodBitcoin || m == PaymentMethodEthereum
}

// ValidMethod reports whether m is one of the supported payment methods.
func ValidMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodBitcoin, PaymentMethodEthereum,
		PaymentMethodBankTransfer, PaymentMethodCreditCard, PaymentMethodSystem:
		return true
	}
	return false
}
