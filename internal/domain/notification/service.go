package notification

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Service persists in-app notifications. Delivery is fire-and-forget: a
// storage failure is logged and swallowed so it never rolls back the
// operation that triggered it.
type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Notify stores a notification, best-effort.
func (s *Service) Notify(ctx context.Context, userID uuid.UUID, title, message string) {
	n := &Notification{
		ID:     uuid.New(),
		UserID: userID,
		Title:  title,
		Body:   message,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("notification delivery failed")
	}
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

func (s *Service) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, id, userID)
}
