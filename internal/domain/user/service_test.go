package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/coursely/coursely-api/internal/pkg/jwt"
	"github.com/coursely/coursely-api/internal/pkg/password"
)

type fakeUserRepo struct {
	byEmail map[string]*User
	byCode  map[string]*User
	byID    map[uuid.UUID]*User

	codeCollisions int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byEmail: map[string]*User{},
		byCode:  map[string]*User{},
		byID:    map[uuid.UUID]*User{},
	}
}

var errCodeCollision = errors.New("duplicate key value violates unique constraint \"users_referral_code_key\"")

func (f *fakeUserRepo) Create(ctx context.Context, u *User) error {
	if _, ok := f.byEmail[u.Email]; ok {
		return ErrEmailTaken
	}
	if f.codeCollisions > 0 {
		f.codeCollisions--
		return errCodeCollision
	}
	if _, ok := f.byCode[u.ReferralCode]; ok {
		return errCodeCollision
	}
	f.byEmail[u.Email] = u
	f.byCode[u.ReferralCode] = u
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByReferralCode(ctx context.Context, code string) (*User, error) {
	u, ok := f.byCode[code]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func newTestService(repo Repository) *Service {
	return NewService(repo, jwt.NewService("test-secret", 15*time.Minute, 168*time.Hour))
}

func TestRegisterIssuesReferralCode(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)

	resp, err := svc.Register(context.Background(), &RegisterRequest{
		Email:    "Alice@Example.com",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.User.Email != "alice@example.com" {
		t.Fatalf("expected lowercased email, got %s", resp.User.Email)
	}
	if len(resp.User.ReferralCode) != 8 {
		t.Fatalf("expected an 8 character referral code, got %q", resp.User.ReferralCode)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}

	stored := repo.byEmail["alice@example.com"]
	if stored.PasswordHash == "correct horse" {
		t.Fatal("password stored in plain text")
	}
	if !password.Verify("correct horse", stored.PasswordHash) {
		t.Fatal("stored hash does not verify the password")
	}
}

func TestRegisterRetriesCodeCollision(t *testing.T) {
	repo := newFakeUserRepo()
	repo.codeCollisions = 2
	svc := newTestService(repo)

	resp, err := svc.Register(context.Background(), &RegisterRequest{
		Email:    "bob@example.com",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("expected collision retries to succeed: %v", err)
	}
	if resp.User.ReferralCode == "" {
		t.Fatal("expected a referral code after retries")
	}
}

func TestRegisterEmailTaken(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)

	req := &RegisterRequest{Email: "carol@example.com", Password: "correct horse"}
	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err := svc.Register(context.Background(), req)
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)

	if _, err := svc.Register(context.Background(), &RegisterRequest{
		Email:    "dave@example.com",
		Password: "correct horse",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "dave@example.com",
		Password: "correct horse",
	}); err != nil {
		t.Fatalf("login: %v", err)
	}

	_, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "dave@example.com",
		Password: "wrong",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	_, err = svc.Login(context.Background(), &LoginRequest{
		Email:    "nobody@example.com",
		Password: "correct horse",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email must not be distinguishable, got %v", err)
	}
}

func TestRefresh(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)

	resp, err := svc.Register(context.Background(), &RegisterRequest{
		Email:    "erin@example.com",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), resp.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.User.ID != resp.User.ID {
		t.Fatal("refresh returned a different user")
	}

	if _, err := svc.Refresh(context.Background(), "not-a-token"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for a bad token, got %v", err)
	}
}
