package payout

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const sqlStateUniqueViolation = "23505"

// TxLedger is the slice of the wallet ledger the payout flow needs. Each
// method joins the repository's own database transaction so the request-row
// write and the wallet mutation commit or roll back together.
type TxLedger interface {
	HoldForWithdrawalTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, referenceID string) error
	ReleaseHoldTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, referenceID string) error
	SettleWithdrawalTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, referenceID string) error
}

type Repository struct {
	db     *sqlx.DB
	ledger TxLedger
}

func NewRepository(db *sqlx.DB, ledger TxLedger) *Repository {
	return &Repository{db: db, ledger: ledger}
}

// --- Methods ---

func (r *Repository) CreateMethod(ctx context.Context, m *Method) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payout_methods (id, user_id, type, label, details, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
	`, m.ID, m.UserID, m.Type, m.Label, m.Details)
	return err
}

func (r *Repository) GetMethod(ctx context.Context, id, userID uuid.UUID) (*Method, error) {
	var m Method
	err := r.db.GetContext(ctx, &m, `
		SELECT id, user_id, type, label, details, created_at
		FROM payout_methods
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMethodNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *Repository) ListMethods(ctx context.Context, userID uuid.UUID) ([]Method, error) {
	rows := []Method{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, type, label, details, created_at
		FROM payout_methods
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	return rows, err
}

// --- Requests ---

// CreateRequest inserts the request row and places the wallet hold in one
// transaction. The partial unique index on (user_id) WHERE status='pending'
// turns a concurrent second request into ErrRequestAlreadyPending; an
// insufficient balance surfaces from the ledger and aborts the insert.
func (r *Repository) CreateRequest(ctx context.Context, req *Request) error {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payout_requests (id, user_id, method_id, amount, status, requested_at)
		VALUES ($1, $2, $3, $4, $5, now())
	`, req.ID, req.UserID, req.MethodID, req.Amount, string(StatusPending))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == sqlStateUniqueViolation {
			return ErrRequestAlreadyPending
		}
		return err
	}

	if err := r.ledger.HoldForWithdrawalTx(ctx, tx, req.UserID, req.Amount, req.ID.String()); err != nil {
		return err
	}

	return tx.Commit()
}

// lockRequest loads the request under FOR UPDATE so concurrent approve/reject
// calls serialize on the row.
func (r *Repository) lockRequest(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Request, error) {
	var req Request
	err := tx.GetContext(ctx, &req, `
		SELECT id, user_id, method_id, amount, status, notes, requested_at, processed_at
		FROM payout_requests
		WHERE id = $1 FOR UPDATE
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Approve transitions pending -> processed and settles the held amount.
func (r *Repository) Approve(ctx context.Context, id uuid.UUID, notes string) (*Request, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	req, err := r.lockRequest(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, ErrNotPending
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE payout_requests
		SET status = $1, notes = $2, processed_at = now()
		WHERE id = $3
	`, string(StatusProcessed), nullableString(notes), id); err != nil {
		return nil, err
	}

	if err := r.ledger.SettleWithdrawalTx(ctx, tx, req.UserID, req.Amount, req.ID.String()); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return r.GetRequest(ctx, id)
}

// Reject transitions pending -> rejected and returns the held amount to
// balance.
func (r *Repository) Reject(ctx context.Context, id uuid.UUID, notes string) (*Request, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	req, err := r.lockRequest(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, ErrNotPending
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE payout_requests
		SET status = $1, notes = $2, processed_at = now()
		WHERE id = $3
	`, string(StatusRejected), nullableString(notes), id); err != nil {
		return nil, err
	}

	if err := r.ledger.ReleaseHoldTx(ctx, tx, req.UserID, req.Amount, req.ID.String()); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return r.GetRequest(ctx, id)
}

func (r *Repository) GetRequest(ctx context.Context, id uuid.UUID) (*Request, error) {
	var req Request
	err := r.db.GetContext(ctx, &req, `
		SELECT id, user_id, method_id, amount, status, notes, requested_at, processed_at
		FROM payout_requests WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Request, error) {
	rows := []Request{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, method_id, amount, status, notes, requested_at, processed_at
		FROM payout_requests
		WHERE user_id = $1
		ORDER BY requested_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return rows, err
}

func (r *Repository) ListAll(ctx context.Context, status string, limit, offset int) ([]Request, error) {
	rows := []Request{}
	if status != "" {
		err := r.db.SelectContext(ctx, &rows, `
			SELECT id, user_id, method_id, amount, status, notes, requested_at, processed_at
			FROM payout_requests
			WHERE status = $1
			ORDER BY requested_at DESC
			LIMIT $2 OFFSET $3
		`, status, limit, offset)
		return rows, err
	}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, method_id, amount, status, notes, requested_at, processed_at
		FROM payout_requests
		ORDER BY requested_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return rows, err
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
