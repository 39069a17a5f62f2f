package referral

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

type fakeCodeLookup struct {
	courseOwner  uuid.UUID
	courseFound  bool
	generalOwner uuid.UUID
	generalFound bool
}

func (f *fakeCodeLookup) FindCourseCode(ctx context.Context, code string, courseID uuid.UUID) (uuid.UUID, bool, error) {
	return f.courseOwner, f.courseFound, nil
}

func (f *fakeCodeLookup) FindGeneralCode(ctx context.Context, code string) (uuid.UUID, bool, error) {
	return f.generalOwner, f.generalFound, nil
}

func TestResolveEmptyCode(t *testing.T) {
	r := NewResolver(&fakeCodeLookup{})

	res, err := r.Resolve(context.Background(), "", uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Kind != ResolutionNone {
		t.Fatalf("expected none, got %s", res.Kind)
	}
}

func TestResolveCourseCodeWinsOverGeneral(t *testing.T) {
	courseOwner := uuid.New()
	generalOwner := uuid.New()
	r := NewResolver(&fakeCodeLookup{
		courseOwner:  courseOwner,
		courseFound:  true,
		generalOwner: generalOwner,
		generalFound: true,
	})

	res, err := r.Resolve(context.Background(), "SHARED", uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Kind != ResolutionCourseCode {
		t.Fatalf("expected course_code, got %s", res.Kind)
	}
	if res.ReferrerID != courseOwner {
		t.Fatalf("expected course code owner, got %s", res.ReferrerID)
	}
}

func TestResolveFallsBackToGeneralCode(t *testing.T) {
	owner := uuid.New()
	r := NewResolver(&fakeCodeLookup{generalOwner: owner, generalFound: true})

	res, err := r.Resolve(context.Background(), "GENERAL1", uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Kind != ResolutionGeneralCode {
		t.Fatalf("expected general_code, got %s", res.Kind)
	}
	if res.ReferrerID != owner {
		t.Fatalf("expected general code owner, got %s", res.ReferrerID)
	}
}

func TestResolveSelfReferral(t *testing.T) {
	buyer := uuid.New()

	for _, lookup := range []*fakeCodeLookup{
		{courseOwner: buyer, courseFound: true},
		{generalOwner: buyer, generalFound: true},
	} {
		r := NewResolver(lookup)

		res, err := r.Resolve(context.Background(), "MINE", uuid.New(), buyer)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Kind != ResolutionSelfReferral {
			t.Fatalf("expected self_referral, got %s", res.Kind)
		}
		if res.ReferrerID != uuid.Nil {
			t.Fatalf("self-referral must not carry a referrer, got %s", res.ReferrerID)
		}
	}
}

func TestResolveUnknownCode(t *testing.T) {
	r := NewResolver(&fakeCodeLookup{})

	res, err := r.Resolve(context.Background(), "NOSUCH", uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Kind != ResolutionNone {
		t.Fatalf("expected none, got %s", res.Kind)
	}
}
