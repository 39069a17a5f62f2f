package user

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/coursely/coursely-api/internal/pkg/jwt"
	"github.com/coursely/coursely-api/internal/pkg/password"
)

// maxCodeAttempts bounds retries on referral-code collisions at signup.
const maxCodeAttempts = 5

type Service struct {
	repo Repository
	jwt  *jwt.Service
}

func NewService(repo Repository, jwtService *jwt.Service) *Service {
	return &Service{repo: repo, jwt: jwtService}
}

// Register creates an account and its general referral code. The code is
// generated once here and immutable afterwards.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Role:         RoleMember,
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		u.ReferralCode = generateReferralCode()
		err = s.repo.Create(ctx, u)
		if err == nil {
			break
		}
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		// The only other unique column is referral_code; regenerate and retry.
	}
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", u.ID.String()).Str("referral_code", u.ReferralCode).Msg("user registered")

	return s.issueTokens(u)
}

func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !password.Verify(req.Password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(u)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	u, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	return s.issueTokens(u)
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) issueTokens(u *User) (*AuthResponse, error) {
	access, err := s.jwt.GenerateAccessToken(u.ID, string(u.Role))
	if err != nil {
		return nil, err
	}
	refresh, err := s.jwt.GenerateRefreshToken(u.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		User:         UserResponseFromEntity(u),
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}
