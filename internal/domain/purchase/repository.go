package purchase

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, p *Purchase) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO purchases (id, user_id, course_id, amount, status, referral_code, code_applied, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
	`, p.ID, p.UserID, p.CourseID, p.Amount, string(p.Status), p.ReferralCode, p.CodeApplied)
	return err
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Purchase, error) {
	var p Purchase
	err := r.db.GetContext(ctx, &p, `
		SELECT id, user_id, course_id, amount, status, referral_code, code_applied,
		       gateway_payment_id, created_at, completed_at
		FROM purchases WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Purchase, error) {
	rows := []Purchase{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, course_id, amount, status, referral_code, code_applied,
		       gateway_payment_id, created_at, completed_at
		FROM purchases
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return rows, err
}

// MarkCompleted flips a pending purchase to completed. The status guard in the
// WHERE clause makes the transition happen at most once; a repeat confirmation
// affects zero rows and is reported as changed=false.
func (r *Repository) MarkCompleted(ctx context.Context, id uuid.UUID, gatewayPaymentID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE purchases
		SET status = $1, gateway_payment_id = $2, completed_at = now()
		WHERE id = $3 AND status = $4
	`, string(StatusCompleted), gatewayPaymentID, id, string(StatusPending))
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// MarkFailed flips a pending purchase to failed.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE purchases
		SET status = $1
		WHERE id = $2 AND status = $3
	`, string(StatusFailed), id, string(StatusPending))
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
