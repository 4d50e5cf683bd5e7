package integration

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"invest-platform/internal/core/domain"
	"invest-platform/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory User Repo ---

type inMemoryUserRepo struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*domain.User
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *inMemoryUserRepo) Create(ctx context.Context, tx pgx.Tx, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return fmt.Errorf("email already exists")
		}
	}
	r.users[u.ID] = u
	return nil
}

func (r *inMemoryUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return u, nil
}

func (r *inMemoryUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *inMemoryUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (r *inMemoryUserRepo) GetByReferralCode(ctx context.Context, code string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.ReferralCode == code {
			return u, nil
		}
	}
	return nil, nil
}

func (r *inMemoryUserRepo) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.users)), nil
}

func (r *inMemoryUserRepo) List(ctx context.Context, params ports.UserListParams) ([]domain.User, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []domain.User
	for _, u := range r.users {
		if params.Search != "" {
			needle := strings.ToLower(params.Search)
			if !strings.Contains(strings.ToLower(u.Username), needle) &&
				!strings.Contains(strings.ToLower(u.Email), needle) {
				continue
			}
		}
		matched = append(matched, *u)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := int64(len(matched))
	start := (params.Page - 1) * params.PageSize
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + params.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[uuid.UUID]*domain.Wallet // keyed by user ID
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[uuid.UUID]*domain.Wallet)}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wallets[w.UserID] = w
	return nil
}

func (r *inMemoryWalletRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[userID]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *inMemoryWalletRepo) GetByUserIDForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.Wallet, error) {
	return r.GetByUserID(ctx, userID)
}

func (r *inMemoryWalletRepo) Update(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.wallets[w.UserID]; !ok {
		return fmt.Errorf("wallet not found")
	}
	cp := *w
	r.wallets[w.UserID] = &cp
	return nil
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu           sync.RWMutex
	transactions map[uuid.UUID]*domain.Transaction
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{transactions: make(map[uuid.UUID]*domain.Transaction)}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.transactions[t.ID] = &cp
	return nil
}

func (r *inMemoryTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transactions[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *inMemoryTransactionRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Transaction, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryTransactionRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.TransactionStatus, processedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transactions[id]
	if !ok {
		return fmt.Errorf("transaction not found")
	}
	t.Status = status
	t.ProcessedAt = &processedAt
	return nil
}

func (r *inMemoryTransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Transaction
	for _, t := range r.transactions {
		if params.UserID != nil && t.UserID != *params.UserID {
			continue
		}
		if params.Status != nil && t.Status != *params.Status {
			continue
		}
		if params.Type != nil && t.Type != *params.Type {
			continue
		}
		if params.From != nil && t.CreatedAt.Unix() < *params.From {
			continue
		}
		if params.To != nil && t.CreatedAt.Unix() > *params.To {
			continue
		}
		result = append(result, *t)
	}
	total := int64(len(result))

	// Simple pagination
	start := (params.Page - 1) * params.PageSize
	if start >= len(result) {
		return []domain.Transaction{}, total, nil
	}
	end := start + params.PageSize
	if end > len(result) {
		end = len(result)
	}
	return result[start:end], total, nil
}

func (r *inMemoryTransactionRepo) PendingTotals(ctx context.Context) (*ports.PendingTotals, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	totals := &ports.PendingTotals{}
	for _, t := range r.transactions {
		if t.Status != domain.TransactionStatusPending {
			continue
		}
		switch t.Type {
		case domain.TransactionTypeDeposit:
			totals.DepositCount++
			totals.DepositAmount += t.Amount
		case domain.TransactionTypeWithdrawal:
			totals.WithdrawalCount++
			totals.WithdrawalSum += t.Amount
		}
	}
	return totals, nil
}

// --- In-Memory Investment Repo ---

type inMemoryInvestmentRepo struct {
	mu          sync.RWMutex
	investments map[uuid.UUID]*domain.Investment
}

func newInMemoryInvestmentRepo() *inMemoryInvestmentRepo {
	return &inMemoryInvestmentRepo{investments: make(map[uuid.UUID]*domain.Investment)}
}

func (r *inMemoryInvestmentRepo) Create(ctx context.Context, tx pgx.Tx, inv *domain.Investment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *inv
	r.investments[inv.ID] = &cp
	return nil
}

func (r *inMemoryInvestmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Investment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.investments[id]
	if !ok {
		return nil, nil
	}
	cp := *inv
	return &cp, nil
}

func (r *inMemoryInvestmentRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Investment, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryInvestmentRepo) Update(ctx context.Context, tx pgx.Tx, inv *domain.Investment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.investments[inv.ID]; !ok {
		return fmt.Errorf("investment not found")
	}
	cp := *inv
	r.investments[inv.ID] = &cp
	return nil
}

func (r *inMemoryInvestmentRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Investment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Investment
	for _, inv := range r.investments {
		if inv.UserID == userID {
			result = append(result, *inv)
		}
	}
	return result, nil
}

func (r *inMemoryInvestmentRepo) ListDue(ctx context.Context, cutoff time.Time) ([]domain.Investment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Investment
	for _, inv := range r.investments {
		if inv.Status != domain.InvestmentStatusActive {
			continue
		}
		if inv.AccruableDays(cutoff) > 0 || inv.IsExpired(cutoff) {
			result = append(result, *inv)
		}
	}
	return result, nil
}

func (r *inMemoryInvestmentRepo) ListAll(ctx context.Context, params ports.InvestmentListParams) ([]domain.Investment, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []domain.Investment
	for _, inv := range r.investments {
		if params.Status != nil && inv.Status != *params.Status {
			continue
		}
		matched = append(matched, *inv)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].StartDate.After(matched[j].StartDate)
	})
	total := int64(len(matched))
	start := (params.Page - 1) * params.PageSize
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + params.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *inMemoryInvestmentRepo) ActiveTotals(ctx context.Context) (*ports.ActiveInvestmentTotals, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	totals := &ports.ActiveInvestmentTotals{}
	for _, inv := range r.investments {
		if inv.Status != domain.InvestmentStatusActive {
			continue
		}
		totals.Count++
		totals.Invested += inv.Amount
		totals.Earned += inv.TotalEarned
	}
	return totals, nil
}

// --- In-Memory Plan Repo ---

type inMemoryPlanRepo struct {
	mu    sync.RWMutex
	plans map[uuid.UUID]*domain.InvestmentPlan
}

func newInMemoryPlanRepo(plans ...*domain.InvestmentPlan) *inMemoryPlanRepo {
	r := &inMemoryPlanRepo{plans: make(map[uuid.UUID]*domain.InvestmentPlan)}
	for _, p := range plans {
		r.plans[p.ID] = p
	}
	return r
}

func (r *inMemoryPlanRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.InvestmentPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plans[id]
	if !ok {
		return nil, nil
	}
	return p, nil
}

func (r *inMemoryPlanRepo) ListActive(ctx context.Context) ([]domain.InvestmentPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.InvestmentPlan
	for _, p := range r.plans {
		if p.IsActive {
			result = append(result, *p)
		}
	}
	return result, nil
}

// --- In-Memory Referral Repo ---

type inMemoryReferralRepo struct {
	mu        sync.RWMutex
	referrals map[uuid.UUID]*domain.Referral
}

func newInMemoryReferralRepo() *inMemoryReferralRepo {
	return &inMemoryReferralRepo{referrals: make(map[uuid.UUID]*domain.Referral)}
}

func (r *inMemoryReferralRepo) Create(ctx context.Context, tx pgx.Tx, ref *domain.Referral) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *ref
	r.referrals[ref.ID] = &cp
	return nil
}

func (r *inMemoryReferralRepo) GetByReferredUserID(ctx context.Context, referredUserID uuid.UUID) (*domain.Referral, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ref := range r.referrals {
		if ref.ReferredUserID == referredUserID {
			cp := *ref
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryReferralRepo) AddBonus(ctx context.Context, tx pgx.Tx, id uuid.UUID, bonus int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref, ok := r.referrals[id]
	if !ok {
		return fmt.Errorf("referral not found")
	}
	ref.BonusEarned += bonus
	ref.Status = domain.ReferralStatusActive
	return nil
}

func (r *inMemoryReferralRepo) ListByReferrer(ctx context.Context, referrerID uuid.UUID) ([]domain.Referral, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Referral
	for _, ref := range r.referrals {
		if ref.ReferrerID == referrerID {
			result = append(result, *ref)
		}
	}
	return result, nil
}

// --- In-Memory Transactor ---

// inMemoryTransactor serializes transaction blocks with a single mutex,
// approximating the row locks the real adapter takes FOR UPDATE.
type inMemoryTransactor struct {
	mu sync.Mutex
}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	return &noopTx{release: &t.mu}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
// Commit and Rollback both release the transactor mutex; the sync.Once
// guard tolerates the deferred-Rollback-after-Commit pattern.
type noopTx struct {
	release *sync.Mutex
	once    sync.Once
}

func (t *noopTx) finish() {
	t.once.Do(func() {
		if t.release != nil {
			t.release.Unlock()
		}
	})
}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { t.finish(); return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { t.finish(); return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
