package ports

import (
	"context"
	"time"

	"invest-platform/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, tx pgx.Tx, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByReferralCode(ctx context.Context, code string) (*domain.User, error)
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, params UserListParams) ([]domain.User, int64, error)
}

// UserListParams holds filter + pagination for the admin user list.
// Search matches username or email, case-insensitive.
type UserListParams struct {
	Search   string
	Page     int
	PageSize int
}

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx are used inside transaction blocks for pessimistic locking.
type WalletRepository interface {
	Create(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	GetByUserIDForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.Wallet, error)
	// Update persists all balance columns of the locked wallet row.
	Update(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet) error
}

// TransactionRepository defines persistence operations for ledger transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Transaction, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.TransactionStatus, processedAt time.Time) error
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	PendingTotals(ctx context.Context) (*PendingTotals, error)
}

// TransactionListParams holds filter + pagination for listing transactions.
type TransactionListParams struct {
	UserID   *uuid.UUID
	Status   *domain.TransactionStatus
	Type     *domain.TransactionType
	From     *int64 // Unix timestamp
	To       *int64 // Unix timestamp
	Page     int
	PageSize int
}

// PendingTotals aggregates transactions awaiting an admin decision.
type PendingTotals struct {
	DepositCount    int64
	DepositAmount   int64
	WithdrawalCount int64
	WithdrawalSum   int64
}

// InvestmentRepository defines persistence operations for investments.
type InvestmentRepository interface {
	Create(ctx context.Context, tx pgx.Tx, investment *domain.Investment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Investment, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Investment, error)
	// Update persists earned totals, status and the accrual cursor.
	Update(ctx context.Context, tx pgx.Tx, investment *domain.Investment) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Investment, error)
	// ListDue returns ACTIVE investments whose last accrual is at least
	// one whole day before the cutoff.
	ListDue(ctx context.Context, cutoff time.Time) ([]domain.Investment, error)
	ListAll(ctx context.Context, params InvestmentListParams) ([]domain.Investment, int64, error)
	ActiveTotals(ctx context.Context) (*ActiveInvestmentTotals, error)
}

// InvestmentListParams holds filter + pagination for the admin investment list.
type InvestmentListParams struct {
	Status   *domain.InvestmentStatus
	Page     int
	PageSize int
}

// ActiveInvestmentTotals aggregates currently running investments.
type ActiveInvestmentTotals struct {
	Count    int64
	Invested int64
	Earned   int64
}

// PlanRepository defines read operations for the investment plan catalog.
type PlanRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.InvestmentPlan, error)
	ListActive(ctx context.Context) ([]domain.InvestmentPlan, error)
}

// ReferralRepository defines persistence operations for referral relationships.
type ReferralRepository interface {
	Create(ctx context.Context, tx pgx.Tx, referral *domain.Referral) error
	GetByReferredUserID(ctx context.Context, referredUserID uuid.UUID) (*domain.Referral, error)
	// AddBonus accumulates a bonus payout and activates the referral.
	AddBonus(ctx context.Context, tx pgx.Tx, id uuid.UUID, bonus int64) error
	ListByReferrer(ctx context.Context, referrerID uuid.UUID) ([]domain.Referral, error)
}

// AuditRepository persists audit log entries.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
