package postgres

import (
	"context"
	"errors"
	"fmt"

	"invest-platform/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ReferralRepo implements ports.ReferralRepository.
type ReferralRepo struct {
	pool Pool
}

// NewReferralRepo creates a new ReferralRepo.
func NewReferralRepo(pool Pool) *ReferralRepo {
	return &ReferralRepo{pool: pool}
}

const referralSelectColumns = `id, referrer_id, referred_user_id, bonus_earned, status, created_at, updated_at`

// Create inserts a new referral row within a database transaction.
func (r *ReferralRepo) Create(ctx context.Context, tx pgx.Tx, ref *domain.Referral) error {
	query := `INSERT INTO referrals (id, referrer_id, referred_user_id, bonus_earned, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := tx.Exec(ctx, query,
		ref.ID, ref.ReferrerID, ref.ReferredUserID, ref.BonusEarned, ref.Status,
		ref.CreatedAt, ref.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert referral: %w", err)
	}
	return nil
}

// GetByReferredUserID fetches the referral row for a referred user.
func (r *ReferralRepo) GetByReferredUserID(ctx context.Context, referredUserID uuid.UUID) (*domain.Referral, error) {
	query := `SELECT ` + referralSelectColumns + ` FROM referrals WHERE referred_user_id = $1`

	ref := &domain.Referral{}
	err := r.pool.QueryRow(ctx, query, referredUserID).Scan(
		&ref.ID, &ref.ReferrerID, &ref.ReferredUserID, &ref.BonusEarned, &ref.Status,
		&ref.CreatedAt, &ref.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get referral by referred user: %w", err)
	}
	return ref, nil
}

// AddBonus accumulates a bonus payout and activates the referral
// within a database transaction.
func (r *ReferralRepo) AddBonus(ctx context.Context, tx pgx.Tx, id uuid.UUID, bonus int64) error {
	query := `UPDATE referrals SET bonus_earned = bonus_earned + $1, status = 'ACTIVE', updated_at = NOW()
		WHERE id = $2`

	tag, err := tx.Exec(ctx, query, bonus, id)
	if err != nil {
		return fmt.Errorf("add referral bonus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("referral not found: %s", id)
	}
	return nil
}

// ListByReferrer fetches all referrals made by one user, newest first.
func (r *ReferralRepo) ListByReferrer(ctx context.Context, referrerID uuid.UUID) ([]domain.Referral, error) {
	query := `SELECT ` + referralSelectColumns + ` FROM referrals
		WHERE referrer_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, referrerID)
	if err != nil {
		return nil, fmt.Errorf("list referrals: %w", err)
	}
	defer rows.Close()

	var refs []domain.Referral
	for rows.Next() {
		ref := domain.Referral{}
		err := rows.Scan(
			&ref.ID, &ref.ReferrerID, &ref.ReferredUserID, &ref.BonusEarned, &ref.Status,
			&ref.CreatedAt, &ref.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan referral row: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate referral rows: %w", err)
	}
	return refs, nil
}
