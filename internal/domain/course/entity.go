package course

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// CommissionType selects how a course's referral commission is computed.
type CommissionType string

const (
	CommissionPercent CommissionType = "percent"
	CommissionFixed   CommissionType = "fixed"
)

// Course is a sellable PDF course. Price is minor currency units. The
// commission policy is optional; when unset the program default (a percent of
// price) applies.
type Course struct {
	ID              uuid.UUID      `db:"id" json:"id"`
	Title           string         `db:"title" json:"title"`
	Description     string         `db:"description" json:"description"`
	Price           int64          `db:"price" json:"price"`
	CommissionType  sql.NullString `db:"commission_type" json:"-"`
	CommissionValue sql.NullInt64  `db:"commission_value" json:"-"`
	IsActive        bool           `db:"is_active" json:"is_active"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// Commission computes the referral commission for this course, clamped to
// [0, price]. defaultPercent applies when no per-course policy is configured.
func (c *Course) Commission(defaultPercent int64) int64 {
	if c.Price <= 0 {
		return 0
	}

	var amount int64
	switch CommissionType(c.CommissionType.String) {
	case CommissionFixed:
		amount = c.CommissionValue.Int64
	case CommissionPercent:
		amount = c.Price * c.CommissionValue.Int64 / 100
	default:
		amount = c.Price * defaultPercent / 100
	}

	if amount < 0 {
		return 0
	}
	if amount > c.Price {
		return c.Price
	}
	return amount
}
