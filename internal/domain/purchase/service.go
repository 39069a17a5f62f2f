package purchase

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/coursely/coursely-api/internal/domain/course"
	"github.com/coursely/coursely-api/internal/domain/referral"
	"github.com/coursely/coursely-api/internal/pkg/gateway"
)

// CourseSource supplies courses during checkout.
type CourseSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*course.Course, error)
}

// Granter runs the commission flow for a completed purchase.
type Granter interface {
	Grant(ctx context.Context, in referral.GrantInput) error
}

// Store is the purchase persistence surface the service needs.
type Store interface {
	Create(ctx context.Context, p *Purchase) error
	GetByID(ctx context.Context, id uuid.UUID) (*Purchase, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Purchase, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, gatewayPaymentID string) (bool, error)
	MarkFailed(ctx context.Context, id uuid.UUID) (bool, error)
}

type Service struct {
	store   Store
	courses CourseSource
	granter Granter
}

func NewService(store Store, courses CourseSource, granter Granter) *Service {
	return &Service{store: store, courses: courses, granter: granter}
}

// Begin starts checkout: the purchase row is created pending with the course
// price snapshotted and the referral code string recorded as supplied.
func (s *Service) Begin(ctx context.Context, userID, courseID uuid.UUID, referralCode string) (*Purchase, error) {
	c, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !c.IsActive {
		return nil, course.ErrInactive
	}

	p := &Purchase{
		ID:          uuid.New(),
		UserID:      userID,
		CourseID:    courseID,
		Amount:      c.Price,
		Status:      StatusPending,
		CodeApplied: referralCode != "",
	}
	if referralCode != "" {
		p.ReferralCode = sql.NullString{String: referralCode, Valid: true}
	}

	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}

	log.Info().
		Str("purchase_id", p.ID.String()).
		Str("course_id", courseID.String()).
		Bool("code_applied", p.CodeApplied).
		Msg("checkout started")
	return p, nil
}

// Confirm handles the gateway's purchase-completed event. The completion
// transition happens at most once; the commission grant runs on every
// delivery and is itself idempotent, so webhook retries are safe end to end.
func (s *Service) Confirm(ctx context.Context, conf *gateway.Confirmation) (*Purchase, error) {
	id, err := uuid.Parse(conf.PurchaseID)
	if err != nil {
		return nil, ErrNotFound
	}

	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if conf.Amount != p.Amount {
		log.Error().
			Str("purchase_id", p.ID.String()).
			Int64("purchase_amount", p.Amount).
			Int64("confirmed_amount", conf.Amount).
			Msg("gateway confirmation amount mismatch")
		return nil, ErrAmountMismatch
	}

	changed, err := s.store.MarkCompleted(ctx, p.ID, conf.GatewayPaymentID)
	if err != nil {
		return nil, err
	}
	if !changed {
		if p.Status == StatusFailed {
			return nil, ErrAlreadyFailed
		}
		log.Debug().Str("purchase_id", p.ID.String()).Msg("duplicate confirmation for completed purchase")
	} else {
		p.Status = StatusCompleted
		log.Info().
			Str("purchase_id", p.ID.String()).
			Str("gateway_payment_id", conf.GatewayPaymentID).
			Msg("purchase completed")
	}

	in := referral.GrantInput{
		PurchaseID: p.ID,
		BuyerID:    p.UserID,
		CourseID:   p.CourseID,
	}
	if p.ReferralCode.Valid {
		in.ReferralCode = p.ReferralCode.String
	}
	if err := s.granter.Grant(ctx, in); err != nil {
		// The purchase stays completed; the next confirmation retry re-runs
		// the grant from scratch behind its idempotency guard.
		return nil, err
	}

	return p, nil
}

// Fail marks a pending purchase failed (gateway decline path).
func (s *Service) Fail(ctx context.Context, id uuid.UUID) error {
	changed, err := s.store.MarkFailed(ctx, id)
	if err != nil {
		return err
	}
	if !changed {
		p, err := s.store.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if p.Status == StatusFailed {
			return nil
		}
		return ErrNotPending
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Purchase, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Purchase, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListByUser(ctx, userID, limit, offset)
}
