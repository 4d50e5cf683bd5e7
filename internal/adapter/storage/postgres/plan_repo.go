package postgres

import (
	"context"
	"errors"
	"fmt"

	"invest-platform/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PlanRepo implements ports.PlanRepository.
type PlanRepo struct {
	pool Pool
}

// NewPlanRepo creates a new PlanRepo.
func NewPlanRepo(pool Pool) *PlanRepo {
	return &PlanRepo{pool: pool}
}

const planSelectColumns = `id, name, badge, description, daily_rate_bps,
	min_amount, max_amount, duration_days, is_active, created_at, updated_at`

// GetByID fetches a plan by UUID.
func (r *PlanRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.InvestmentPlan, error) {
	query := `SELECT ` + planSelectColumns + ` FROM investment_plans WHERE id = $1`

	p := &domain.InvestmentPlan{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Badge, &p.Description, &p.DailyRateBps,
		&p.MinAmount, &p.MaxAmount, &p.DurationDays, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get plan by id: %w", err)
	}
	return p, nil
}

// ListActive fetches the catalog of available plans, cheapest first.
func (r *PlanRepo) ListActive(ctx context.Context) ([]domain.InvestmentPlan, error) {
	query := `SELECT ` + planSelectColumns + ` FROM investment_plans
		WHERE is_active = TRUE ORDER BY min_amount ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active plans: %w", err)
	}
	defer rows.Close()

	var plans []domain.InvestmentPlan
	for rows.Next() {
		p := domain.InvestmentPlan{}
		err := rows.Scan(
			&p.ID, &p.Name, &p.Badge, &p.Description, &p.DailyRateBps,
			&p.MinAmount, &p.MaxAmount, &p.DurationDays, &p.IsActive,
			&p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan plan row: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plan rows: %w", err)
	}
	return plans, nil
}
