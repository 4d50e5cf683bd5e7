package service

import (
	"context"

	"invest-platform/internal/core/domain"
	"invest-platform/internal/core/ports"
	"invest-platform/pkg/apperror"

	"github.com/google/uuid"
)

// reportingService implements ports.ReportingService.
type reportingService struct {
	walletRepo     ports.WalletRepository
	txRepo         ports.TransactionRepository
	investmentRepo ports.InvestmentRepository
	referralRepo   ports.ReferralRepository
	userRepo       ports.UserRepository
}

// NewReportingService creates a new reporting service.
func NewReportingService(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	investmentRepo ports.InvestmentRepository,
	referralRepo ports.ReferralRepository,
	userRepo ports.UserRepository,
) ports.ReportingService {
	return &reportingService{
		walletRepo:     walletRepo,
		txRepo:         txRepo,
		investmentRepo: investmentRepo,
		referralRepo:   referralRepo,
		userRepo:       userRepo,
	}
}

// GetWalletOverview returns the wallet with its most recent activity.
func (s *reportingService) GetWalletOverview(ctx context.Context, userID uuid.UUID) (*ports.WalletOverview, error) {
	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}

	recent, _, err := s.txRepo.List(ctx, ports.TransactionListParams{
		UserID:   &userID,
		Page:     1,
		PageSize: 10,
	})
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	return &ports.WalletOverview{
		Wallet:             wallet,
		RecentTransactions: recent,
	}, nil
}

// ListTransactions returns a paginated list of transactions.
func (s *reportingService) ListTransactions(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	txns, total, err := s.txRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(err)
	}
	return txns, total, nil
}

// ListReferrals returns a referrer's rows plus totals.
func (s *reportingService) ListReferrals(ctx context.Context, referrerID uuid.UUID) (*ports.ReferralSummary, error) {
	referrals, err := s.referralRepo.ListByReferrer(ctx, referrerID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	summary := &ports.ReferralSummary{Referrals: referrals}
	for _, r := range referrals {
		if r.Status == domain.ReferralStatusActive {
			summary.TotalActive++
		}
		summary.TotalBonus += r.BonusEarned
	}
	return summary, nil
}

// ListUsers returns a page of users with their wallets for the admin console.
func (s *reportingService) ListUsers(ctx context.Context, params ports.UserListParams) ([]ports.AdminUser, int64, error) {
	users, total, err := s.userRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(err)
	}

	result := make([]ports.AdminUser, 0, len(users))
	for i := range users {
		// Wallet may be nil for rows created before wallet provisioning;
		// the console renders those without balances.
		wallet, err := s.walletRepo.GetByUserID(ctx, users[i].ID)
		if err != nil {
			return nil, 0, apperror.InternalError(err)
		}
		result = append(result, ports.AdminUser{User: &users[i], Wallet: wallet})
	}
	return result, total, nil
}

// ListInvestments returns a page of every user's investments.
func (s *reportingService) ListInvestments(ctx context.Context, params ports.InvestmentListParams) ([]domain.Investment, int64, error) {
	invs, total, err := s.investmentRepo.ListAll(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(err)
	}
	return invs, total, nil
}

// GetAdminStats aggregates platform-wide figures for the admin dashboard.
func (s *reportingService) GetAdminStats(ctx context.Context) (*ports.AdminStats, error) {
	userCount, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	pending, err := s.txRepo.PendingTotals(ctx)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	active, err := s.investmentRepo.ActiveTotals(ctx)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	return &ports.AdminStats{
		TotalUsers:         userCount,
		PendingDeposits:    pending.DepositCount,
		PendingDepositSum:  pending.DepositAmount,
		PendingWithdrawals: pending.WithdrawalCount,
		PendingWithdrawSum: pending.WithdrawalSum,
		ActiveInvestments:  active.Count,
		TotalInvested:      active.Invested,
		TotalEarningsPaid:  active.Earned,
	}, nil
}
