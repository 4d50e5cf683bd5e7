package service

import (
	"context"
	"fmt"
	"time"

	"invest-platform/config"
	"invest-platform/internal/core/domain"
	"invest-platform/internal/core/ports"
	"invest-platform/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// InvestmentServiceImpl implements ports.InvestmentService.
type InvestmentServiceImpl struct {
	investmentRepo ports.InvestmentRepository
	planRepo       ports.PlanRepository
	walletRepo     ports.WalletRepository
	txRepo         ports.TransactionRepository
	lockStore      ports.AccrualLockStore
	transactor     ports.DBTransactor
	cfg            config.AccrualConfig
	log            zerolog.Logger
	now            func() time.Time
}

// NewInvestmentService creates a new InvestmentServiceImpl.
func NewInvestmentService(
	investmentRepo ports.InvestmentRepository,
	planRepo ports.PlanRepository,
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	lockStore ports.AccrualLockStore,
	transactor ports.DBTransactor,
	cfg config.AccrualConfig,
	log zerolog.Logger,
) *InvestmentServiceImpl {
	return &InvestmentServiceImpl{
		investmentRepo: investmentRepo,
		planRepo:       planRepo,
		walletRepo:     walletRepo,
		txRepo:         txRepo,
		lockStore:      lockStore,
		transactor:     transactor,
		cfg:            cfg,
		log:            log,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// CreateInvestment debits the wallet and opens a position in a plan.
// The plan's daily rate is frozen onto the investment so later plan
// edits never change accrual for existing positions.
func (s *InvestmentServiceImpl) CreateInvestment(ctx context.Context, req ports.InvestmentRequest) (*domain.Investment, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	plan, err := s.planRepo.GetByID(ctx, req.PlanID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get plan: %w", err))
	}
	if plan == nil || !plan.IsActive {
		return nil, apperror.ErrPlanNotActive()
	}
	if !plan.AmountInRange(req.Amount) {
		return nil, apperror.ErrAmountOutOfPlanRange(plan.MinAmount, plan.MaxAmount)
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByUserIDForUpdate(ctx, dbTx, req.UserID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}

	if !wallet.CanDebit(req.Amount) {
		return nil, apperror.ErrInsufficientFunds()
	}

	wallet.Balance -= req.Amount
	if err := s.walletRepo.Update(ctx, dbTx, wallet); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update wallet: %w", err))
	}

	now := s.now()
	investment := &domain.Investment{
		ID:              uuid.New(),
		UserID:          req.UserID,
		PlanID:          plan.ID,
		Amount:          req.Amount,
		DailyRateBps:    plan.DailyRateBps,
		Status:          domain.InvestmentStatusActive,
		StartDate:       now,
		EndDate:         now.AddDate(0, 0, plan.DurationDays),
		LastEarningDate: now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.investmentRepo.Create(ctx, dbTx, investment); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create investment: %w", err))
	}

	txn := &domain.Transaction{
		ID:          uuid.New(),
		UserID:      req.UserID,
		Type:        domain.TransactionTypeInvestment,
		Amount:      req.Amount,
		Method:      domain.PaymentMethodSystem,
		Status:      domain.TransactionStatusCompleted,
		Description: fmt.Sprintf("Investment in plan %s", plan.Name),
		CreatedAt:   now,
		ProcessedAt: &now,
	}
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create investment tx: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("investment_id", investment.ID.String()).
		Str("user_id", req.UserID.String()).
		Str("plan", plan.Name).
		Int64("amount", req.Amount).
		Msg("investment created")

	return investment, nil
}

// AccrueDaily credits earnings for every investment with at least one
// whole day outstanding. Safe to call from multiple replicas: each
// investment is covered by a Redis lease, and the locked row is
// re-read so a sweep that lost the race credits nothing twice.
func (s *InvestmentServiceImpl) AccrueDaily(ctx context.Context) (*ports.AccrualReport, error) {
	now := s.now()

	due, err := s.investmentRepo.ListDue(ctx, now)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list due investments: %w", err))
	}

	report := &ports.AccrualReport{Due: len(due)}
	for i := range due {
		inv := &due[i]

		acquired, err := s.lockStore.Acquire(ctx, inv.ID.String(), s.cfg.LockTTL)
		if err != nil {
			s.log.Error().Err(err).Str("investment_id", inv.ID.String()).Msg("accrual lease acquire failed")
			report.Failed++
			continue
		}
		if !acquired {
			report.Skipped++
			continue
		}

		if err := s.accrueOne(ctx, inv.ID, now, report); err != nil {
			s.log.Error().Err(err).Str("investment_id", inv.ID.String()).Msg("accrual failed for investment")
			report.Failed++
		}

		if err := s.lockStore.Release(ctx, inv.ID.String()); err != nil {
			s.log.Warn().Err(err).Str("investment_id", inv.ID.String()).Msg("accrual lease release failed")
		}
	}

	s.log.Info().
		Int("due", report.Due).
		Int("credited", report.Credited).
		Int("completed", report.Completed).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Int64("total_paid", report.TotalPaid).
		Msg("accrual sweep finished")

	return report, nil
}

// accrueOne settles all outstanding whole days for a single investment
// inside its own database transaction. The FOR UPDATE re-read is the
// real idempotence guard: AccruableDays on the fresh row is zero when
// another sweep got there first.
func (s *InvestmentServiceImpl) accrueOne(ctx context.Context, investmentID uuid.UUID, now time.Time, report *ports.AccrualReport) error {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	inv, err := s.investmentRepo.GetByIDForUpdate(ctx, dbTx, investmentID)
	if err != nil {
		return fmt.Errorf("lock investment: %w", err)
	}
	if inv == nil {
		return fmt.Errorf("investment %s not found", investmentID)
	}

	days := inv.AccruableDays(now)
	expired := inv.Status == domain.InvestmentStatusActive && inv.IsExpired(now)
	if days == 0 && !expired {
		// Another sweep already settled this day
		report.Skipped++
		return nil
	}

	wallet, err := s.walletRepo.GetByUserIDForUpdate(ctx, dbTx, inv.UserID)
	if err != nil {
		return fmt.Errorf("lock wallet: %w", err)
	}
	if wallet == nil {
		return fmt.Errorf("wallet for user %s not found", inv.UserID)
	}

	if days > 0 {
		earning := days * inv.DailyEarning()

		wallet.Balance += earning
		wallet.TotalEarnings += earning
		inv.TotalEarned += earning
		inv.LastEarningDate = inv.LastEarningDate.Add(time.Duration(days) * 24 * time.Hour)

		txn := &domain.Transaction{
			ID:          uuid.New(),
			UserID:      inv.UserID,
			Type:        domain.TransactionTypeEarning,
			Amount:      earning,
			Method:      domain.PaymentMethodSystem,
			Status:      domain.TransactionStatusCompleted,
			Description: fmt.Sprintf("Daily earnings (%d day(s))", days),
			CreatedAt:   now,
			ProcessedAt: &now,
		}
		if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
			return fmt.Errorf("create earning tx: %w", err)
		}

		report.Credited++
		report.TotalPaid += earning
	}

	if expired {
		// Term is over: return the principal and close the position
		inv.Status = domain.InvestmentStatusCompleted
		wallet.Balance += inv.Amount
		report.Completed++
	}

	inv.UpdatedAt = now
	if err := s.investmentRepo.Update(ctx, dbTx, inv); err != nil {
		return fmt.Errorf("update investment: %w", err)
	}
	if err := s.walletRepo.Update(ctx, dbTx, wallet); err != nil {
		return fmt.Errorf("update wallet: %w", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// ListByUser returns all investments owned by a user.
func (s *InvestmentServiceImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Investment, error) {
	investments, err := s.investmentRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list investments: %w", err))
	}
	return investments, nil
}

// ListPlans returns the active plan catalog.
func (s *InvestmentServiceImpl) ListPlans(ctx context.Context) ([]domain.InvestmentPlan, error) {
	plans, err := s.planRepo.ListActive(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list plans: %w", err))
	}
	return plans, nil
}
