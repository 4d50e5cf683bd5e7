package ports

import (
	"context"
	"time"

	"invest-platform/internal/core/domain"

	"github.com/google/uuid"
)

// EncryptionService handles AES-256-GCM encryption/decryption.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(userID uuid.UUID, isAdmin bool) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID  uuid.UUID
	IsAdmin bool
}

// AccrualLockStore serializes accrual across worker replicas.
type AccrualLockStore interface {
	// Acquire atomically takes a short-lived lease for one investment.
	// Returns true if the lease is ours, false if another holder has it.
	Acquire(ctx context.Context, investmentID string, ttl time.Duration) (bool, error)
	// Release drops the lease early so the next run does not wait out the TTL.
	Release(ctx context.Context, investmentID string) error
}

// --- Service Ports (Business Logic) ---

// LedgerService defines wallet and transaction lifecycle logic.
type LedgerService interface {
	RequestDeposit(ctx context.Context, req DepositRequest) (*domain.Transaction, error)
	RequestWithdrawal(ctx context.Context, req WithdrawalRequest) (*domain.Transaction, error)
	ApproveTransaction(ctx context.Context, transactionID uuid.UUID) (*domain.Transaction, error)
	RejectTransaction(ctx context.Context, transactionID uuid.UUID) (*domain.Transaction, error)
	GetWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
}

// DepositRequest holds validated input for a deposit request.
type DepositRequest struct {
	UserID    uuid.UUID
	Amount    int64
	Method    domain.PaymentMethod
	Reference *string
}

// WithdrawalRequest holds validated input for a withdrawal request.
type WithdrawalRequest struct {
	UserID        uuid.UUID
	Amount        int64
	Method        domain.PaymentMethod
	WalletAddress *string // Required for crypto methods
}

// InvestmentService defines investment creation and earnings accrual.
type InvestmentService interface {
	CreateInvestment(ctx context.Context, req InvestmentRequest) (*domain.Investment, error)
	// AccrueDaily credits earnings for every investment with at least one
	// whole day outstanding. Idempotent within a day.
	AccrueDaily(ctx context.Context) (*AccrualReport, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Investment, error)
	ListPlans(ctx context.Context) ([]domain.InvestmentPlan, error)
}

// InvestmentRequest holds validated input for opening an investment.
type InvestmentRequest struct {
	UserID uuid.UUID
	PlanID uuid.UUID
	Amount int64
}

// AccrualReport summarizes one accrual sweep.
type AccrualReport struct {
	Due       int   `json:"due"`
	Credited  int   `json:"credited"`
	Completed int   `json:"completed"`
	Skipped   int   `json:"skipped"` // Lease held elsewhere, or settled by another sweep
	Failed    int   `json:"failed"`
	TotalPaid int64 `json:"total_paid"`
}

// AuthService defines authentication business logic.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// RegisterRequest holds input for user registration.
type RegisterRequest struct {
	Username     string
	Email        string
	Password     string
	Country      string
	CountryCode  string
	Phone        string
	ReferralCode *string
}

// AuthResult pairs the authenticated user with a fresh token.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// ReportingService defines dashboard/reporting business logic.
type ReportingService interface {
	GetWalletOverview(ctx context.Context, userID uuid.UUID) (*WalletOverview, error)
	ListTransactions(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	ListReferrals(ctx context.Context, referrerID uuid.UUID) (*ReferralSummary, error)
	GetAdminStats(ctx context.Context) (*AdminStats, error)
	ListUsers(ctx context.Context, params UserListParams) ([]AdminUser, int64, error)
	ListInvestments(ctx context.Context, params InvestmentListParams) ([]domain.Investment, int64, error)
}

// AdminUser pairs a user with their wallet for the admin console.
type AdminUser struct {
	User   *domain.User   `json:"user"`
	Wallet *domain.Wallet `json:"wallet"`
}

// WalletOverview combines balances with recent activity.
type WalletOverview struct {
	Wallet             *domain.Wallet       `json:"wallet"`
	RecentTransactions []domain.Transaction `json:"recent_transactions"`
}

// ReferralSummary lists a referrer's rows plus totals.
type ReferralSummary struct {
	Referrals   []domain.Referral `json:"referrals"`
	TotalActive int64             `json:"total_active"`
	TotalBonus  int64             `json:"total_bonus"`
}

// AdminStats aggregates platform-wide figures for the admin dashboard.
type AdminStats struct {
	TotalUsers         int64 `json:"total_users"`
	PendingDeposits    int64 `json:"pending_deposits"`
	PendingDepositSum  int64 `json:"pending_deposit_sum"`
	PendingWithdrawals int64 `json:"pending_withdrawals"`
	PendingWithdrawSum int64 `json:"pending_withdraw_sum"`
	ActiveInvestments  int64 `json:"active_investments"`
	TotalInvested      int64 `json:"total_invested"`
	TotalEarningsPaid  int64 `json:"total_earnings_paid"`
}

// AuditService records audited actions.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}
