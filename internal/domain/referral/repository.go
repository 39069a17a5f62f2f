package referral

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// TxLedger is the slice of the wallet ledger the referral store needs: a
// credit that joins the store's own database transaction.
type TxLedger interface {
	CreditTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, description, referenceID string) error
}

// Repository stores commission records. The referral insert and the wallet
// credit are committed as one transaction; neither is observable without the
// other.
type Repository struct {
	db     *sqlx.DB
	ledger TxLedger
}

func NewRepository(db *sqlx.DB, ledger TxLedger) *Repository {
	return &Repository{db: db, ledger: ledger}
}

func (r *Repository) ExistsForPurchase(ctx context.Context, purchaseID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS (SELECT 1 FROM referrals WHERE purchase_id = $1)
	`, purchaseID)
	return exists, err
}

// CreateCompletedWithCredit inserts the referral record and credits the
// referrer's wallet atomically. The unique constraint on purchase_id makes a
// duplicate grant fail at the storage layer: ON CONFLICT DO NOTHING inserts
// zero rows and the whole transaction is abandoned with ErrAlreadyGranted.
func (r *Repository) CreateCompletedWithCredit(ctx context.Context, rec *Referral) error {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO referrals (id, referrer_id, referred_id, course_id, purchase_id, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (purchase_id) DO NOTHING
	`, rec.ID, rec.ReferrerID, rec.ReferredID, rec.CourseID, rec.PurchaseID, rec.Amount, string(StatusCompleted))
	if err != nil {
		return err
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if inserted == 0 {
		return ErrAlreadyGranted
	}

	if err := r.ledger.CreditTx(ctx, tx, rec.ReferrerID, rec.Amount, "referral commission", rec.PurchaseID.String()); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *Repository) ListByReferrer(ctx context.Context, referrerID uuid.UUID, limit, offset int) ([]Referral, error) {
	rows := []Referral{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, referrer_id, referred_id, course_id, purchase_id, amount, status, created_at
		FROM referrals
		WHERE referrer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, referrerID, limit, offset)
	return rows, err
}
