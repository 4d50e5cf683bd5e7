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
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// LedgerServiceImpl implements ports.LedgerService.
type LedgerServiceImpl struct {
	walletRepo   ports.WalletRepository
	txRepo       ports.TransactionRepository
	referralRepo ports.ReferralRepository
	encSvc       ports.EncryptionService
	transactor   ports.DBTransactor
	cfg          config.LedgerConfig
	log          zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	referralRepo ports.ReferralRepository,
	encSvc ports.EncryptionService,
	transactor ports.DBTransactor,
	cfg config.LedgerConfig,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		walletRepo:   walletRepo,
		txRepo:       txRepo,
		referralRepo: referralRepo,
		encSvc:       encSvc,
		transactor:   transactor,
		cfg:          cfg,
		log:          log,
	}
}

// RequestDeposit records a pending deposit. Funds are not spendable
// until an admin approves the transaction.
func (s *LedgerServiceImpl) RequestDeposit(ctx context.Context, req ports.DepositRequest) (*domain.Transaction, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.Amount < s.cfg.MinDeposit {
		return nil, apperror.Validation(fmt.Sprintf("Minimum deposit is %d", s.cfg.MinDeposit))
	}
	if !domain.ValidMethod(req.Method) || req.Method == domain.PaymentMethodSystem {
		return nil, apperror.Validation("Unsupported payment method")
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

	wallet.PendingDeposits += req.Amount
	if err := s.walletRepo.Update(ctx, dbTx, wallet); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update wallet: %w", err))
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:          uuid.New(),
		UserID:      req.UserID,
		Type:        domain.TransactionTypeDeposit,
		Amount:      req.Amount,
		Method:      req.Method,
		Status:      domain.TransactionStatusPending,
		Reference:   req.Reference,
		Description: "Deposit request",
		CreatedAt:   now,
	}
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("user_id", req.UserID.String()).
		Int64("amount", req.Amount).
		Msg("deposit requested")

	return txn, nil
}

// RequestWithdrawal escrows funds for a pending withdrawal: the amount
// moves out of the spendable balance immediately so it cannot be spent
// twice while the request awaits review.
func (s *LedgerServiceImpl) RequestWithdrawal(ctx context.Context, req ports.WithdrawalRequest) (*domain.Transaction, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.Amount < s.cfg.MinWithdrawal {
		return nil, apperror.Validation(fmt.Sprintf("Minimum withdrawal is %d", s.cfg.MinWithdrawal))
	}
	if !domain.ValidMethod(req.Method) || req.Method == domain.PaymentMethodSystem {
		return nil, apperror.Validation("Unsupported payment method")
	}

	var encryptedAddr *string
	if domain.IsCryptoMethod(req.Method) {
		if req.WalletAddress == nil || *req.WalletAddress == "" {
			return nil, apperror.ErrWalletAddressRequired()
		}
		enc, err := s.encSvc.Encrypt(*req.WalletAddress)
		if err != nil {
			return nil, apperror.ErrEncryptionFailure(fmt.Errorf("encrypt wallet address: %w", err))
		}
		encryptedAddr = &enc
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
	wallet.PendingWithdrawals += req.Amount
	if err := s.walletRepo.Update(ctx, dbTx, wallet); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update wallet: %w", err))
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:            uuid.New(),
		UserID:        req.UserID,
		Type:          domain.TransactionTypeWithdrawal,
		Amount:        req.Amount,
		Method:        req.Method,
		Status:        domain.TransactionStatusPending,
		WalletAddress: encryptedAddr,
		Description:   "Withdrawal request",
		CreatedAt:     now,
	}
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("user_id", req.UserID.String()).
		Int64("amount", req.Amount).
		Msg("withdrawal requested")

	return txn, nil
}

// ApproveTransaction settles a pending deposit or withdrawal. The
// transaction row is locked first so two admins deciding at once
// cannot both succeed.
func (s *LedgerServiceImpl) ApproveTransaction(ctx context.Context, transactionID uuid.UUID) (*domain.Transaction, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	txn, err := s.lockDecidableTransaction(ctx, dbTx, transactionID)
	if err != nil {
		return nil, err
	}

	wallet, err := s.walletRepo.GetByUserIDForUpdate(ctx, dbTx, txn.UserID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}

	switch txn.Type {
	case domain.TransactionTypeDeposit:
		wallet.Balance += txn.Amount
		wallet.TotalDeposits += txn.Amount
		wallet.PendingDeposits -= txn.Amount
	case domain.TransactionTypeWithdrawal:
		wallet.PendingWithdrawals -= txn.Amount
		wallet.TotalWithdrawals += txn.Amount
	}
	if err := s.walletRepo.Update(ctx, dbTx, wallet); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update wallet: %w", err))
	}

	if txn.Type == domain.TransactionTypeDeposit {
		if err := s.creditReferralBonus(ctx, dbTx, txn); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	if err := s.txRepo.UpdateStatus(ctx, dbTx, txn.ID, domain.TransactionStatusCompleted, now); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update status: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	txn.Status = domain.TransactionStatusCompleted
	txn.ProcessedAt = &now

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("type", string(txn.Type)).
		Int64("amount", txn.Amount).
		Msg("transaction approved")

	return txn, nil
}

// RejectTransaction cancels a pending deposit or withdrawal. Escrowed
// withdrawal funds are returned to the spendable balance.
func (s *LedgerServiceImpl) RejectTransaction(ctx context.Context, transactionID uuid.UUID) (*domain.Transaction, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	txn, err := s.lockDecidableTransaction(ctx, dbTx, transactionID)
	if err != nil {
		return nil, err
	}

	wallet, err := s.walletRepo.GetByUserIDForUpdate(ctx, dbTx, txn.UserID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}

	switch txn.Type {
	case domain.TransactionTypeDeposit:
		wallet.PendingDeposits -= txn.Amount
	case domain.TransactionTypeWithdrawal:
		wallet.Balance += txn.Amount
		wallet.PendingWithdrawals -= txn.Amount
	}
	if err := s.walletRepo.Update(ctx, dbTx, wallet); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update wallet: %w", err))
	}

	now := time.Now().UTC()
	if err := s.txRepo.UpdateStatus(ctx, dbTx, txn.ID, domain.TransactionStatusCancelled, now); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update status: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	txn.Status = domain.TransactionStatusCancelled
	txn.ProcessedAt = &now

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("type", string(txn.Type)).
		Int64("amount", txn.Amount).
		Msg("transaction rejected")

	return txn, nil
}

// GetWallet returns the wallet for a user.
func (s *LedgerServiceImpl) GetWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	return wallet, nil
}

// lockDecidableTransaction loads the transaction row FOR UPDATE and
// verifies it still awaits an admin decision.
func (s *LedgerServiceImpl) lockDecidableTransaction(ctx context.Context, dbTx pgx.Tx, id uuid.UUID) (*domain.Transaction, error) {
	txn, err := s.txRepo.GetByIDForUpdate(ctx, dbTx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock transaction: %w", err))
	}
	if txn == nil {
		return nil, apperror.ErrNotFound("transaction")
	}
	if txn.IsTerminal() {
		return nil, apperror.ErrTransactionAlreadyProcessed()
	}
	if !txn.RequiresDecision() {
		return nil, apperror.ErrInvalidState("Transaction does not require a decision")
	}
	return txn, nil
}

// creditReferralBonus pays the referrer when a referred user's deposit
// is approved. Runs inside the caller's database transaction so the
// bonus settles or rolls back together with the deposit.
func (s *LedgerServiceImpl) creditReferralBonus(ctx context.Context, dbTx pgx.Tx, depositTx *domain.Transaction) error {
	if s.cfg.ReferralBonusBps <= 0 {
		return nil
	}

	referral, err := s.referralRepo.GetByReferredUserID(ctx, depositTx.UserID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("find referral: %w", err))
	}
	if referral == nil {
		return nil
	}

	bonus := depositTx.Amount * s.cfg.ReferralBonusBps / 10000
	if bonus <= 0 {
		return nil
	}

	referrerWallet, err := s.walletRepo.GetByUserIDForUpdate(ctx, dbTx, referral.ReferrerID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("lock referrer wallet: %w", err))
	}
	if referrerWallet == nil {
		return apperror.ErrNotFound("referrer wallet")
	}

	referrerWallet.Balance += bonus
	referrerWallet.TotalEarnings += bonus
	if err := s.walletRepo.Update(ctx, dbTx, referrerWallet); err != nil {
		return apperror.InternalError(fmt.Errorf("update referrer wallet: %w", err))
	}

	if err := s.referralRepo.AddBonus(ctx, dbTx, referral.ID, bonus); err != nil {
		return apperror.InternalError(fmt.Errorf("add referral bonus: %w", err))
	}

	now := time.Now().UTC()
	bonusTx := &domain.Transaction{
		ID:          uuid.New(),
		UserID:      referral.ReferrerID,
		Type:        domain.TransactionTypeReferral,
		Amount:      bonus,
		Method:      domain.PaymentMethodSystem,
		Status:      domain.TransactionStatusCompleted,
		Description: "Referral bonus",
		CreatedAt:   now,
		ProcessedAt: &now,
	}
	if err := s.txRepo.Create(ctx, dbTx, bonusTx); err != nil {
		return apperror.InternalError(fmt.Errorf("create referral bonus tx: %w", err))
	}

	s.log.Info().
		Str("referrer_id", referral.ReferrerID.String()).
		Str("referred_user_id", referral.ReferredUserID.String()).
		Int64("bonus", bonus).
		Msg("referral bonus credited")

	return nil
}
