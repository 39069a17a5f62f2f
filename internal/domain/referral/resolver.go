package referral

import (
	"context"

	"github.com/google/uuid"
)

// CodeLookup resolves code strings to their owners.
type CodeLookup interface {
	FindCourseCode(ctx context.Context, code string, courseID uuid.UUID) (uuid.UUID, bool, error)
	FindGeneralCode(ctx context.Context, code string) (uuid.UUID, bool, error)
}

// Resolver determines which referrer, if any, a code string attributes a
// purchase to. A course-scoped code takes priority over a general code; the
// first match wins. Pure lookup, no side effects.
type Resolver struct {
	codes CodeLookup
}

func NewResolver(codes CodeLookup) *Resolver {
	return &Resolver{codes: codes}
}

// Resolve returns a tagged resolution. A code owned by the buyer resolves to
// the self_referral kind regardless of which table matched; an empty or
// unmatched code resolves to none.
func (r *Resolver) Resolve(ctx context.Context, code string, courseID, buyerID uuid.UUID) (Resolution, error) {
	if code == "" {
		return Resolution{Kind: ResolutionNone}, nil
	}

	owner, found, err := r.codes.FindCourseCode(ctx, code, courseID)
	if err != nil {
		return Resolution{}, err
	}
	if found {
		if owner == buyerID {
			return Resolution{Kind: ResolutionSelfReferral}, nil
		}
		return Resolution{Kind: ResolutionCourseCode, ReferrerID: owner}, nil
	}

	owner, found, err = r.codes.FindGeneralCode(ctx, code)
	if err != nil {
		return Resolution{}, err
	}
	if found {
		if owner == buyerID {
			return Resolution{Kind: ResolutionSelfReferral}, nil
		}
		return Resolution{Kind: ResolutionGeneralCode, ReferrerID: owner}, nil
	}

	return Resolution{Kind: ResolutionNone}, nil
}
