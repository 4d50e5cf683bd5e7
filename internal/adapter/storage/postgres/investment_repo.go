package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"invest-platform/internal/core/domain"
	"invest-platform/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// InvestmentRepo implements ports.InvestmentRepository.
type InvestmentRepo struct {
	pool Pool
}

// NewInvestmentRepo creates a new InvestmentRepo.
func NewInvestmentRepo(pool Pool) *InvestmentRepo {
	return &InvestmentRepo{pool: pool}
}

const investmentSelectColumns = `id, user_id, plan_id, amount, daily_rate_bps, total_earned,
	status, start_date, end_date, last_earning_date, created_at, updated_at`

// Create inserts a new investment within a database transaction.
func (r *InvestmentRepo) Create(ctx context.Context, tx pgx.Tx, inv *domain.Investment) error {
	query := `INSERT INTO investments (id, user_id, plan_id, amount, daily_rate_bps, total_earned,
		status, start_date, end_date, last_earning_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := tx.Exec(ctx, query,
		inv.ID, inv.UserID, inv.PlanID, inv.Amount, inv.DailyRateBps, inv.TotalEarned,
		inv.Status, inv.StartDate, inv.EndDate, inv.LastEarningDate,
		inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert investment: %w", err)
	}
	return nil
}

// GetByID fetches an investment by UUID.
func (r *InvestmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Investment, error) {
	query := `SELECT ` + investmentSelectColumns + ` FROM investments WHERE id = $1`
	return r.scanInvestment(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate fetches an investment with pessimistic locking, so
// concurrent accrual runs serialize on the row.
// This MUST be called within a transaction.
func (r *InvestmentRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Investment, error) {
	query := `SELECT ` + investmentSelectColumns + ` FROM investments WHERE id = $1 FOR UPDATE`
	return r.scanInvestment(tx.QueryRow(ctx, query, id))
}

// Update persists earned totals, status and the accrual cursor within a transaction.
func (r *InvestmentRepo) Update(ctx context.Context, tx pgx.Tx, inv *domain.Investment) error {
	query := `UPDATE investments SET total_earned = $1, status = $2, last_earning_date = $3, updated_at = NOW()
		WHERE id = $4`

	tag, err := tx.Exec(ctx, query, inv.TotalEarned, inv.Status, inv.LastEarningDate, inv.ID)
	if err != nil {
		return fmt.Errorf("update investment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("investment not found: %s", inv.ID)
	}
	return nil
}

// ListByUser fetches all investments of one user, newest first.
func (r *InvestmentRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Investment, error) {
	query := `SELECT ` + investmentSelectColumns + ` FROM investments
		WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list investments: %w", err)
	}
	defer rows.Close()

	return r.collectInvestments(rows)
}

// ListDue returns ACTIVE investments with at least one whole day of
// earnings outstanding as of the cutoff, plus any whose term has ended
// so the sweep can complete them even when the cursor looks fresh.
func (r *InvestmentRepo) ListDue(ctx context.Context, cutoff time.Time) ([]domain.Investment, error) {
	query := `SELECT ` + investmentSelectColumns + ` FROM investments
		WHERE status = 'ACTIVE' AND (last_earning_date <= $1 OR end_date <= $2)
		ORDER BY last_earning_date ASC`

	rows, err := r.pool.Query(ctx, query, cutoff.Add(-24*time.Hour), cutoff)
	if err != nil {
		return nil, fmt.Errorf("list due investments: %w", err)
	}
	defer rows.Close()

	return r.collectInvestments(rows)
}

// ListAll returns a page of every user's investments, newest start first,
// optionally filtered by status.
func (r *InvestmentRepo) ListAll(ctx context.Context, params ports.InvestmentListParams) ([]domain.Investment, int64, error) {
	where := ""
	var args []any
	argIdx := 1

	if params.Status != nil {
		where = fmt.Sprintf("WHERE status = $%d", argIdx)
		args = append(args, *params.Status)
		argIdx++
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM investments %s", where)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count investments: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT `+investmentSelectColumns+`
		FROM investments %s ORDER BY start_date DESC LIMIT $%d OFFSET $%d`, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list all investments: %w", err)
	}
	defer rows.Close()

	invs, err := r.collectInvestments(rows)
	if err != nil {
		return nil, 0, err
	}
	return invs, total, nil
}

// ActiveTotals aggregates currently running investments.
func (r *InvestmentRepo) ActiveTotals(ctx context.Context) (*ports.ActiveInvestmentTotals, error) {
	query := `SELECT COUNT(*), COALESCE(SUM(amount), 0), COALESCE(SUM(total_earned), 0)
		FROM investments WHERE status = 'ACTIVE'`

	totals := &ports.ActiveInvestmentTotals{}
	err := r.pool.QueryRow(ctx, query).Scan(&totals.Count, &totals.Invested, &totals.Earned)
	if err != nil {
		return nil, fmt.Errorf("active investment totals: %w", err)
	}
	return totals, nil
}

func (r *InvestmentRepo) collectInvestments(rows pgx.Rows) ([]domain.Investment, error) {
	var invs []domain.Investment
	for rows.Next() {
		inv := domain.Investment{}
		err := rows.Scan(
			&inv.ID, &inv.UserID, &inv.PlanID, &inv.Amount, &inv.DailyRateBps, &inv.TotalEarned,
			&inv.Status, &inv.StartDate, &inv.EndDate, &inv.LastEarningDate,
			&inv.CreatedAt, &inv.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan investment row: %w", err)
		}
		invs = append(invs, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate investment rows: %w", err)
	}
	return invs, nil
}

func (r *InvestmentRepo) scanInvestment(row pgx.Row) (*domain.Investment, error) {
	inv := &domain.Investment{}
	err := row.Scan(
		&inv.ID, &inv.UserID, &inv.PlanID, &inv.Amount, &inv.DailyRateBps, &inv.TotalEarned,
		&inv.Status, &inv.StartDate, &inv.EndDate, &inv.LastEarningDate,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan investment: %w", err)
	}
	return inv, nil
}
