package referral

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/coursely/coursely-api/internal/domain/course"
)

// CourseSource supplies course price and commission policy.
type CourseSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*course.Course, error)
}

// Store persists commission records together with their wallet credit.
type Store interface {
	ExistsForPurchase(ctx context.Context, purchaseID uuid.UUID) (bool, error)
	CreateCompletedWithCredit(ctx context.Context, rec *Referral) error
}

// Notifier delivers a fire-and-forget message; failures are swallowed upstream.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, message string)
}

// GrantInput carries the completed purchase's attribution data.
type GrantInput struct {
	PurchaseID   uuid.UUID
	BuyerID      uuid.UUID
	CourseID     uuid.UUID
	ReferralCode string
}

// GrantService grants a referral commission exactly once per completed
// purchase. Safe to invoke any number of times for the same purchase: the
// pre-check short-circuits retries cheaply, and the unique constraint behind
// Store.CreateCompletedWithCredit decides races.
type GrantService struct {
	resolver       *Resolver
	courses        CourseSource
	store          Store
	notifier       Notifier
	defaultPercent int64
}

func NewGrantService(resolver *Resolver, courses CourseSource, store Store, notifier Notifier, defaultPercent int64) *GrantService {
	return &GrantService{
		resolver:       resolver,
		courses:        courses,
		store:          store,
		notifier:       notifier,
		defaultPercent: defaultPercent,
	}
}

// Grant runs the commission flow for one purchase-completed event. A nil
// return means the event was fully handled, including every case where no
// commission is owed.
func (s *GrantService) Grant(ctx context.Context, in GrantInput) error {
	granted, err := s.store.ExistsForPurchase(ctx, in.PurchaseID)
	if err != nil {
		return err
	}
	if granted {
		log.Debug().Str("purchase_id", in.PurchaseID.String()).Msg("commission already granted, skipping")
		return nil
	}

	if in.ReferralCode == "" {
		return nil
	}

	res, err := s.resolver.Resolve(ctx, in.ReferralCode, in.CourseID, in.BuyerID)
	if err != nil {
		return err
	}
	switch res.Kind {
	case ResolutionSelfReferral:
		log.Warn().
			Str("purchase_id", in.PurchaseID.String()).
			Str("buyer_id", in.BuyerID.String()).
			Msg("self-referral blocked, no commission granted")
		return nil
	case ResolutionNone:
		log.Warn().
			Str("purchase_id", in.PurchaseID.String()).
			Str("code", in.ReferralCode).
			Msg("invalid referral code, purchase proceeds without commission")
		return nil
	}

	c, err := s.courses.GetByID(ctx, in.CourseID)
	if err != nil {
		return err
	}

	amount := c.Commission(s.defaultPercent)
	if amount == 0 {
		log.Debug().Str("purchase_id", in.PurchaseID.String()).Msg("zero commission, no record created")
		return nil
	}

	rec := &Referral{
		ID:         uuid.New(),
		ReferrerID: res.ReferrerID,
		ReferredID: in.BuyerID,
		CourseID:   in.CourseID,
		PurchaseID: in.PurchaseID,
		Amount:     amount,
		Status:     StatusCompleted,
	}

	if err := s.store.CreateCompletedWithCredit(ctx, rec); err != nil {
		if errors.Is(err, ErrAlreadyGranted) {
			return nil
		}
		return err
	}

	log.Info().
		Str("purchase_id", in.PurchaseID.String()).
		Str("referrer_id", res.ReferrerID.String()).
		Int64("amount", amount).
		Str("code_kind", string(res.Kind)).
		Msg("referral commission granted")

	if s.notifier != nil {
		s.notifier.Notify(ctx, res.ReferrerID, "Commission earned",
			"A purchase using your referral code earned you commission.")
	}

	return nil
}
