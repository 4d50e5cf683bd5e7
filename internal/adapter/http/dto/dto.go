package dto

import (
	"time"

	"invest-platform/internal/core/domain"
)

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Username     string  `json:"username" binding:"required,min=3,max=50,safe_id"`
	Email        string  `json:"email" binding:"required,email,max=255"`
	Password     string  `json:"password" binding:"required,min=8,max=128"`
	Country      string  `json:"country" binding:"required,min=2,max=100"`
	CountryCode  string  `json:"country_code" binding:"required,min=2,max=5"`
	Phone        string  `json:"phone" binding:"required,min=5,max=20"`
	ReferralCode *string `json:"referral_code,omitempty" binding:"omitempty,safe_id,max=16"`
}

// LoginRequest is the request body for user login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is the response body for register/login.
type AuthResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt int64        `json:"expires_at"` // Unix timestamp
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Country      string `json:"country"`
	CountryCode  string `json:"country_code"`
	Phone        string `json:"phone"`
	ReferralCode string `json:"referral_code"`
	IsAdmin      bool   `json:"is_admin"`
	CreatedAt    string `json:"created_at"`
}

// DepositRequest is the request body for a deposit request.
type DepositRequest struct {
	Amount    int64   `json:"amount" binding:"required,gt=0"`
	Method    string  `json:"method" binding:"required"`
	Reference *string `json:"reference,omitempty" binding:"omitempty,max=100"`
}

// WithdrawRequest is the request body for a withdrawal request.
type WithdrawRequest struct {
	Amount        int64   `json:"amount" binding:"required,gt=0"`
	Method        string  `json:"method" binding:"required"`
	WalletAddress *string `json:"wallet_address,omitempty" binding:"omitempty,max=128"`
}

// InvestRequest is the request body for opening an investment.
type InvestRequest struct {
	PlanID string `json:"plan_id" binding:"required,uuid"`
	Amount int64  `json:"amount" binding:"required,gt=0"`
}

// TransactionResponse is the public view of a ledger transaction.
type TransactionResponse struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	Type        string  `json:"type"`
	Amount      int64   `json:"amount"`
	Method      string  `json:"method"`
	Status      string  `json:"status"`
	Reference   *string `json:"reference,omitempty"`
	Description string  `json:"description,omitempty"`
	CreatedAt   string  `json:"created_at"`
	ProcessedAt *string `json:"processed_at,omitempty"`
}

// TransactionListResponse wraps a paginated transaction list.
type TransactionListResponse struct {
	Items      []TransactionResponse `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

// AdminUserResponse pairs a user with their wallet for the admin console.
type AdminUserResponse struct {
	User   UserResponse   `json:"user"`
	Wallet *domain.Wallet `json:"wallet"`
}

// UserListResponse wraps the paginated admin user list.
type UserListResponse struct {
	Items      []AdminUserResponse `json:"items"`
	Total      int64               `json:"total"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
	TotalPages int                 `json:"total_pages"`
}

// InvestmentListResponse wraps the paginated admin investment list.
type InvestmentListResponse struct {
	Items      []domain.Investment `json:"items"`
	Total      int64               `json:"total"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
	TotalPages int                 `json:"total_pages"`
}

// FromUser maps a domain user to its public view.
func FromUser(u *domain.User) UserResponse {
	return UserResponse{
		ID:           u.ID.String(),
		Username:     u.Username,
		Email:        u.Email,
		Country:      u.Country,
		CountryCode:  u.CountryCode,
		Phone:        u.Phone,
		ReferralCode: u.ReferralCode,
		IsAdmin:      u.IsAdmin,
		CreatedAt:    u.CreatedAt.Format(time.RFC3339),
	}
}

// FromTransaction maps a domain transaction to its public view.
// The encrypted wallet address never leaves the server.
func FromTransaction(t *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:          t.ID.String(),
		UserID:      t.UserID.String(),
		Type:        string(t.Type),
		Amount:      t.Amount,
		Method:      string(t.Method),
		Status:      string(t.Status),
		Reference:   t.Reference,
		Description: t.Description,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
	}
	if t.ProcessedAt != nil {
		s := t.ProcessedAt.Format(time.RFC3339)
		resp.ProcessedAt = &s
	}
	return resp
}

// FromTransactions maps a slice of domain transactions.
func FromTransactions(txns []domain.Transaction) []TransactionResponse {
	items := make([]TransactionResponse, len(txns))
	for i := range txns {
		items[i] = FromTransaction(&txns[i])
	}
	return items
}
