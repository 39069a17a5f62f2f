package wallet

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const sqlStateUniqueViolation = "23505"

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) EnsureWallet(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_wallets (user_id, balance, total_earned, total_withdrawn)
		VALUES ($1, 0, 0, 0)
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	return err
}

func (r *Repository) GetSummary(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	if err := r.EnsureWallet(ctx, userID); err != nil {
		return nil, err
	}

	var w Wallet
	err := r.db.GetContext(ctx, &w, `
		SELECT user_id, balance, total_earned, total_withdrawn, updated_at
		FROM user_wallets WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *Repository) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Transaction, error) {
	rows := []Transaction{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, type, amount, status, description, reference_id, created_at
		FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return rows, err
}

func (r *Repository) beginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

// lockWallet takes the row lock that serializes every ledger operation on one
// user's wallet. The row is created on first use.
func (r *Repository) lockWallet(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) (*Wallet, error) {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_wallets (user_id, balance, total_earned, total_withdrawn)
		VALUES ($1, 0, 0, 0)
		ON CONFLICT (user_id) DO NOTHING
	`, userID); err != nil {
		return nil, err
	}

	var w Wallet
	err := tx.GetContext(ctx, &w, `
		SELECT user_id, balance, total_earned, total_withdrawn, updated_at
		FROM user_wallets WHERE user_id = $1 FOR UPDATE
	`, userID)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *Repository) updateCounters(ctx context.Context, tx *sqlx.Tx, w *Wallet) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE user_wallets
		SET balance = $1, total_earned = $2, total_withdrawn = $3, updated_at = now()
		WHERE user_id = $4
	`, w.Balance, w.TotalEarned, w.TotalWithdrawn, w.UserID)
	return err
}

func (r *Repository) insertTransaction(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, txType TransactionType, amount int64, status TransactionStatus, description, referenceID string) (uuid.UUID, error) {
	var ref interface{}
	if referenceID == "" {
		ref = nil
	} else {
		ref = referenceID
	}

	id := uuid.New()
	_, err := tx.ExecContext(ctx, `
		INSERT INTO wallet_transactions (id, user_id, type, amount, status, description, reference_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, userID, string(txType), amount, string(status), description, ref)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == sqlStateUniqueViolation {
			return uuid.Nil, ErrDuplicateReference
		}
		return uuid.Nil, err
	}
	return id, nil
}

func (r *Repository) getTransactionAmountByRef(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, txType TransactionType, referenceID string) (int64, bool, error) {
	if referenceID == "" {
		return 0, false, nil
	}

	var amount int64
	err := tx.GetContext(ctx, &amount, `
		SELECT amount
		FROM wallet_transactions
		WHERE user_id = $1 AND type = $2 AND reference_id = $3
		LIMIT 1
	`, userID, string(txType), referenceID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return amount, true, nil
}

// CreditTx increases balance and total_earned inside the caller's transaction.
// A repeated call with the same reference is a no-op; the same reference with a
// different amount is a conflict.
func (r *Repository) CreditTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, description, referenceID string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	w, err := r.lockWallet(ctx, tx, userID)
	if err != nil {
		return err
	}

	existing, exists, err := r.getTransactionAmountByRef(ctx, tx, userID, TransactionTypeCredit, referenceID)
	if err != nil {
		return err
	}
	if exists {
		if existing != amount {
			return ErrReferenceConflict
		}
		return nil
	}

	w.Balance += amount
	w.TotalEarned += amount
	if err := r.updateCounters(ctx, tx, w); err != nil {
		return err
	}

	_, err = r.insertTransaction(ctx, tx, userID, TransactionTypeCredit, amount, TransactionStatusCompleted, description, referenceID)
	if errors.Is(err, ErrDuplicateReference) {
		return ErrReferenceConflict
	}
	return err
}

// Credit runs CreditTx in its own transaction.
func (r *Repository) Credit(ctx context.Context, userID uuid.UUID, amount int64, description, referenceID string) error {
	tx, err := r.beginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := r.CreditTx(ctx, tx, userID, amount, description, referenceID); err != nil {
		return err
	}
	return tx.Commit()
}

// HoldForWithdrawalTx reserves amount for a payout request: balance is reduced
// and one pending debit row is written. The balance check and the write happen
// under the wallet row lock.
func (r *Repository) HoldForWithdrawalTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, referenceID string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	w, err := r.lockWallet(ctx, tx, userID)
	if err != nil {
		return err
	}

	if w.Balance < amount {
		return ErrInsufficientBalance
	}

	w.Balance -= amount
	if err := r.updateCounters(ctx, tx, w); err != nil {
		return err
	}

	_, err = r.insertTransaction(ctx, tx, userID, TransactionTypeDebit, amount, TransactionStatusPending, "payout hold", referenceID)
	return err
}

// HoldForWithdrawal runs HoldForWithdrawalTx in its own transaction.
func (r *Repository) HoldForWithdrawal(ctx context.Context, userID uuid.UUID, amount int64, referenceID string) error {
	tx, err := r.beginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := r.HoldForWithdrawalTx(ctx, tx, userID, amount, referenceID); err != nil {
		return err
	}
	return tx.Commit()
}

// ReleaseHoldTx reverses a payout hold: balance is restored and the pending
// debit row is marked reversed.
func (r *Repository) ReleaseHoldTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, referenceID string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	w, err := r.lockWallet(ctx, tx, userID)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE wallet_transactions
		SET status = $1
		WHERE user_id = $2 AND type = $3 AND reference_id = $4 AND status = $5
	`, string(TransactionStatusReversed), userID, string(TransactionTypeDebit), referenceID, string(TransactionStatusPending))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrHoldNotFound
	}

	w.Balance += amount
	return r.updateCounters(ctx, tx, w)
}

// ReleaseHold runs ReleaseHoldTx in its own transaction.
func (r *Repository) ReleaseHold(ctx context.Context, userID uuid.UUID, amount int64, referenceID string) error {
	tx, err := r.beginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := r.ReleaseHoldTx(ctx, tx, userID, amount, referenceID); err != nil {
		return err
	}
	return tx.Commit()
}

// SettleWithdrawalTx finalizes a payout: total_withdrawn grows and the pending
// debit row is marked completed. Balance was already reduced at hold time.
func (r *Repository) SettleWithdrawalTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, referenceID string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	w, err := r.lockWallet(ctx, tx, userID)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE wallet_transactions
		SET status = $1
		WHERE user_id = $2 AND type = $3 AND reference_id = $4 AND status = $5
	`, string(TransactionStatusCompleted), userID, string(TransactionTypeDebit), referenceID, string(TransactionStatusPending))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrHoldNotFound
	}

	w.TotalWithdrawn += amount
	return r.updateCounters(ctx, tx, w)
}

// SettleWithdrawal runs SettleWithdrawalTx in its own transaction.
func (r *Repository) SettleWithdrawal(ctx context.Context, userID uuid.UUID, amount int64, referenceID string) error {
	tx, err := r.beginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := r.SettleWithdrawalTx(ctx, tx, userID, amount, referenceID); err != nil {
		return err
	}
	return tx.Commit()
}
