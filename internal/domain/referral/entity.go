package referral

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Referral is the commission record: at most one exists per purchase, enforced
// by a unique constraint on purchase_id. Rows are append-only.
type Referral struct {
	ID         uuid.UUID `db:"id" json:"id"`
	ReferrerID uuid.UUID `db:"referrer_id" json:"referrer_id"`
	ReferredID uuid.UUID `db:"referred_id" json:"referred_id"`
	CourseID   uuid.UUID `db:"course_id" json:"course_id"`
	PurchaseID uuid.UUID `db:"purchase_id" json:"purchase_id"`
	Amount     int64     `db:"amount" json:"amount"`
	Status     Status    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// CourseCode is a referral code scoped to one course. One exists per
// (user, course) pair, created lazily and immutable afterwards.
type CourseCode struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	CourseID  uuid.UUID `db:"course_id" json:"course_id"`
	Code      string    `db:"code" json:"code"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ResolutionKind tags the outcome of resolving a referral code string.
type ResolutionKind string

const (
	ResolutionCourseCode   ResolutionKind = "course_code"
	ResolutionGeneralCode  ResolutionKind = "general_code"
	ResolutionNone         ResolutionKind = "none"
	ResolutionSelfReferral ResolutionKind = "self_referral"
)

// Resolution is the tagged result of a code lookup. ReferrerID is set only for
// the course_code and general_code kinds.
type Resolution struct {
	Kind       ResolutionKind
	ReferrerID uuid.UUID
}
