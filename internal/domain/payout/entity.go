package payout

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusProcessed RequestStatus = "processed"
	StatusRejected  RequestStatus = "rejected"
)

// Method is a payout destination owned by a user (bank account, UPI id, ...).
type Method struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Type      string    `db:"type" json:"type"`
	Label     string    `db:"label" json:"label"`
	Details   string    `db:"details" json:"details"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Request is a withdrawal request. The amount is held (debited from wallet
// balance) the moment the row is created; rejection returns the hold,
// approval settles it into total_withdrawn. At most one pending request
// exists per user, enforced by a partial unique index.
type Request struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	UserID      uuid.UUID      `db:"user_id" json:"user_id"`
	MethodID    uuid.UUID      `db:"method_id" json:"method_id"`
	Amount      int64          `db:"amount" json:"amount"`
	Status      RequestStatus  `db:"status" json:"status"`
	Notes       sql.NullString `db:"notes" json:"-"`
	RequestedAt time.Time      `db:"requested_at" json:"requested_at"`
	ProcessedAt sql.NullTime   `db:"processed_at" json:"-"`
}
