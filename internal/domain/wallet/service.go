package wallet

import (
	"context"

	"github.com/google/uuid"
)

// Service is the read surface of the wallet. Mutations go through the
// Repository ledger methods, joined to the transaction of whichever domain
// operation triggers them.
type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetSummary(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	return s.repo.GetSummary(ctx, userID)
}

func (s *Service) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListTransactions(ctx, userID, limit, offset)
}
