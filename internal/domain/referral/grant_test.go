package referral

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"

	"github.com/coursely/coursely-api/internal/domain/course"
)

type fakeCourseSource struct {
	course *course.Course
}

func (f *fakeCourseSource) GetByID(ctx context.Context, id uuid.UUID) (*course.Course, error) {
	return f.course, nil
}

type fakeStore struct {
	created  []*Referral
	existing map[uuid.UUID]bool
	raceErr  error
}

func (f *fakeStore) ExistsForPurchase(ctx context.Context, purchaseID uuid.UUID) (bool, error) {
	return f.existing[purchaseID], nil
}

func (f *fakeStore) CreateCompletedWithCredit(ctx context.Context, rec *Referral) error {
	if f.raceErr != nil {
		return f.raceErr
	}
	if f.existing == nil {
		f.existing = map[uuid.UUID]bool{}
	}
	if f.existing[rec.PurchaseID] {
		return ErrAlreadyGranted
	}
	f.existing[rec.PurchaseID] = true
	f.created = append(f.created, rec)
	return nil
}

type fakeNotifier struct {
	delivered int
	lastUser  uuid.UUID
}

func (f *fakeNotifier) Notify(ctx context.Context, userID uuid.UUID, title, message string) {
	f.delivered++
	f.lastUser = userID
}

func newGrantFixture(referrer uuid.UUID, c *course.Course) (*GrantService, *fakeStore, *fakeNotifier) {
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	resolver := NewResolver(&fakeCodeLookup{generalOwner: referrer, generalFound: true})
	svc := NewGrantService(resolver, &fakeCourseSource{course: c}, store, notifier, 50)
	return svc, store, notifier
}

func TestGrantCreditsReferrer(t *testing.T) {
	referrer := uuid.New()
	svc, store, notifier := newGrantFixture(referrer, &course.Course{ID: uuid.New(), Price: 100000})

	in := GrantInput{
		PurchaseID:   uuid.New(),
		BuyerID:      uuid.New(),
		CourseID:     uuid.New(),
		ReferralCode: "FRIEND01",
	}
	if err := svc.Grant(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.created) != 1 {
		t.Fatalf("expected 1 commission record, got %d", len(store.created))
	}
	rec := store.created[0]
	if rec.Amount != 50000 {
		t.Fatalf("expected commission 50000, got %d", rec.Amount)
	}
	if rec.ReferrerID != referrer {
		t.Fatalf("wrong referrer: %s", rec.ReferrerID)
	}
	if rec.Status != StatusCompleted {
		t.Fatalf("expected completed status, got %s", rec.Status)
	}
	if notifier.delivered != 1 || notifier.lastUser != referrer {
		t.Fatalf("expected one notification to the referrer")
	}
}

func TestGrantIdempotentAcrossRetries(t *testing.T) {
	svc, store, notifier := newGrantFixture(uuid.New(), &course.Course{ID: uuid.New(), Price: 100000})

	in := GrantInput{
		PurchaseID:   uuid.New(),
		BuyerID:      uuid.New(),
		CourseID:     uuid.New(),
		ReferralCode: "FRIEND01",
	}
	for i := 0; i < 5; i++ {
		if err := svc.Grant(context.Background(), in); err != nil {
			t.Fatalf("retry %d: unexpected error: %v", i, err)
		}
	}

	if len(store.created) != 1 {
		t.Fatalf("expected exactly 1 commission record after retries, got %d", len(store.created))
	}
	if notifier.delivered != 1 {
		t.Fatalf("expected exactly 1 notification, got %d", notifier.delivered)
	}
}

func TestGrantLostRaceIsNotAnError(t *testing.T) {
	svc, store, notifier := newGrantFixture(uuid.New(), &course.Course{ID: uuid.New(), Price: 100000})
	store.raceErr = ErrAlreadyGranted

	in := GrantInput{
		PurchaseID:   uuid.New(),
		BuyerID:      uuid.New(),
		CourseID:     uuid.New(),
		ReferralCode: "FRIEND01",
	}
	if err := svc.Grant(context.Background(), in); err != nil {
		t.Fatalf("losing the insert race must not fail the event: %v", err)
	}
	if notifier.delivered != 0 {
		t.Fatalf("loser of the race must not notify")
	}
}

func TestGrantSkipsWithoutCode(t *testing.T) {
	svc, store, _ := newGrantFixture(uuid.New(), &course.Course{ID: uuid.New(), Price: 100000})

	in := GrantInput{PurchaseID: uuid.New(), BuyerID: uuid.New(), CourseID: uuid.New()}
	if err := svc.Grant(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.created) != 0 {
		t.Fatalf("expected no commission without a code")
	}
}

func TestGrantSkipsInvalidCode(t *testing.T) {
	store := &fakeStore{}
	resolver := NewResolver(&fakeCodeLookup{})
	svc := NewGrantService(resolver, &fakeCourseSource{course: &course.Course{Price: 100000}}, store, nil, 50)

	in := GrantInput{
		PurchaseID:   uuid.New(),
		BuyerID:      uuid.New(),
		CourseID:     uuid.New(),
		ReferralCode: "NOSUCH",
	}
	if err := svc.Grant(context.Background(), in); err != nil {
		t.Fatalf("an invalid code must not fail the purchase: %v", err)
	}
	if len(store.created) != 0 {
		t.Fatalf("expected no commission for an unknown code")
	}
}

func TestGrantBlocksSelfReferral(t *testing.T) {
	buyer := uuid.New()
	store := &fakeStore{}
	resolver := NewResolver(&fakeCodeLookup{generalOwner: buyer, generalFound: true})
	svc := NewGrantService(resolver, &fakeCourseSource{course: &course.Course{Price: 100000}}, store, nil, 50)

	in := GrantInput{
		PurchaseID:   uuid.New(),
		BuyerID:      buyer,
		CourseID:     uuid.New(),
		ReferralCode: "MYOWNCODE",
	}
	if err := svc.Grant(context.Background(), in); err != nil {
		t.Fatalf("self-referral must not fail the purchase: %v", err)
	}
	if len(store.created) != 0 {
		t.Fatalf("expected no commission for a self-referral")
	}
}

func TestGrantSkipsZeroCommission(t *testing.T) {
	free := &course.Course{ID: uuid.New(), Price: 0}
	svc, store, notifier := newGrantFixture(uuid.New(), free)

	in := GrantInput{
		PurchaseID:   uuid.New(),
		BuyerID:      uuid.New(),
		CourseID:     free.ID,
		ReferralCode: "FRIEND01",
	}
	if err := svc.Grant(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.created) != 0 {
		t.Fatalf("expected no record for a zero commission")
	}
	if notifier.delivered != 0 {
		t.Fatalf("expected no notification for a zero commission")
	}
}

func TestGrantUsesCourseCommissionOverride(t *testing.T) {
	c := &course.Course{
		ID:              uuid.New(),
		Price:           100000,
		CommissionType:  sql.NullString{String: "fixed", Valid: true},
		CommissionValue: sql.NullInt64{Int64: 2500, Valid: true},
	}
	svc, store, _ := newGrantFixture(uuid.New(), c)

	in := GrantInput{
		PurchaseID:   uuid.New(),
		BuyerID:      uuid.New(),
		CourseID:     c.ID,
		ReferralCode: "FRIEND01",
	}
	if err := svc.Grant(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.created) != 1 || store.created[0].Amount != 2500 {
		t.Fatalf("expected fixed commission 2500")
	}
}
