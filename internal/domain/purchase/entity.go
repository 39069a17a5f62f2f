package purchase

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Purchase is one checkout of a course. It is created pending when checkout
// begins and transitions to completed exactly once, on the gateway's
// confirmation. Amount snapshots the course price at checkout time.
type Purchase struct {
	ID               uuid.UUID      `db:"id" json:"id"`
	UserID           uuid.UUID      `db:"user_id" json:"user_id"`
	CourseID         uuid.UUID      `db:"course_id" json:"course_id"`
	Amount           int64          `db:"amount" json:"amount"`
	Status           Status         `db:"status" json:"status"`
	ReferralCode     sql.NullString `db:"referral_code" json:"-"`
	CodeApplied      bool           `db:"code_applied" json:"code_applied"`
	GatewayPaymentID sql.NullString `db:"gateway_payment_id" json:"-"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	CompletedAt      sql.NullTime   `db:"completed_at" json:"-"`
}
