package payout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Notifier delivers best-effort messages on request resolution.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, message string)
}

type Service struct {
	repo      *Repository
	notifier  Notifier
	minAmount int64
}

func NewService(repo *Repository, notifier Notifier, minAmount int64) *Service {
	return &Service{repo: repo, notifier: notifier, minAmount: minAmount}
}

// Request creates a withdrawal request and places the hold. Validation order:
// threshold, method ownership, then the atomic insert+hold (which reports
// RequestAlreadyPending and InsufficientBalance).
func (s *Service) Request(ctx context.Context, userID uuid.UUID, amount int64, methodID uuid.UUID) (*Request, error) {
	if amount < s.minAmount {
		return nil, ErrBelowMinimum
	}

	if _, err := s.repo.GetMethod(ctx, methodID, userID); err != nil {
		return nil, err
	}

	req := &Request{
		ID:       uuid.New(),
		UserID:   userID,
		MethodID: methodID,
		Amount:   amount,
		Status:   StatusPending,
	}
	if err := s.repo.CreateRequest(ctx, req); err != nil {
		return nil, err
	}

	log.Info().
		Str("request_id", req.ID.String()).
		Str("user_id", userID.String()).
		Int64("amount", amount).
		Msg("payout requested, hold placed")
	return s.repo.GetRequest(ctx, req.ID)
}

// Approve settles a pending request. Caller authorization is the admin
// middleware's job.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, notes string) (*Request, error) {
	req, err := s.repo.Approve(ctx, id, notes)
	if err != nil {
		return nil, err
	}

	log.Info().Str("request_id", id.String()).Int64("amount", req.Amount).Msg("payout approved")
	if s.notifier != nil {
		s.notifier.Notify(ctx, req.UserID, "Payout processed",
			fmt.Sprintf("Your payout request for %d was processed.", req.Amount))
	}
	return req, nil
}

// Reject returns a pending request's hold to balance and records the notes.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, notes string) (*Request, error) {
	req, err := s.repo.Reject(ctx, id, notes)
	if err != nil {
		return nil, err
	}

	log.Info().Str("request_id", id.String()).Int64("amount", req.Amount).Msg("payout rejected, hold released")
	if s.notifier != nil {
		s.notifier.Notify(ctx, req.UserID, "Payout rejected",
			"Your payout request was rejected; the amount has been returned to your balance.")
	}
	return req, nil
}

func (s *Service) CreateMethod(ctx context.Context, userID uuid.UUID, methodType, label, details string) (*Method, error) {
	m := &Method{
		ID:      uuid.New(),
		UserID:  userID,
		Type:    methodType,
		Label:   label,
		Details: details,
	}
	if err := s.repo.CreateMethod(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) ListMethods(ctx context.Context, userID uuid.UUID) ([]Method, error) {
	return s.repo.ListMethods(ctx, userID)
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Request, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

func (s *Service) ListAll(ctx context.Context, status string, limit, offset int) ([]Request, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListAll(ctx, status, limit, offset)
}
