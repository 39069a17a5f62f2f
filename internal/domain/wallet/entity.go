package wallet

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusReversed  TransactionStatus = "reversed"
)

// Wallet holds the three counters tracked per user. Balance is withdrawable
// now; a pending payout hold is already subtracted from Balance but not yet
// added to TotalWithdrawn. All amounts are minor currency units.
type Wallet struct {
	UserID         uuid.UUID `db:"user_id" json:"user_id"`
	Balance        int64     `db:"balance" json:"balance"`
	TotalEarned    int64     `db:"total_earned" json:"total_earned"`
	TotalWithdrawn int64     `db:"total_withdrawn" json:"total_withdrawn"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Transaction is an append-only ledger row. Every balance mutation writes
// exactly one row in the same database transaction.
type Transaction struct {
	ID          uuid.UUID         `db:"id" json:"id"`
	UserID      uuid.UUID         `db:"user_id" json:"user_id"`
	Type        TransactionType   `db:"type" json:"type"`
	Amount      int64             `db:"amount" json:"amount"`
	Status      TransactionStatus `db:"status" json:"status"`
	Description string            `db:"description" json:"description"`
	ReferenceID *string           `db:"reference_id" json:"reference_id,omitempty"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
}
