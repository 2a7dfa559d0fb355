package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Service manages the registry of ledger identities. It doubles as the
// account-existence oracle consulted by the token ledger.
type Service struct {
	repo Repository
}

// NewService creates a new identity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates a new actor with a hashed PIN.
func (s *Service) Register(ctx context.Context, creds Credentials) (Actor, error) {
	if !ValidName(creds.Name) {
		return Actor{}, errors.New("invalid account name")
	}
	if len(creds.PIN) < 4 {
		return Actor{}, errors.New("PIN must be at least 4 digits")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.PIN), bcrypt.DefaultCost)
	if err != nil {
		return Actor{}, err
	}

	actor := Actor{
		ID:        uuid.New().String(),
		Name:      creds.Name,
		PINHash:   hash,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, actor); err != nil {
		return Actor{}, err
	}

	return actor, nil
}

// Authenticate verifies an actor's PIN and returns the actor on success.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (Actor, error) {
	actor, err := s.repo.FindByName(ctx, creds.Name)
	if err != nil {
		return Actor{}, errors.New("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(actor.PINHash, []byte(creds.PIN)); err != nil {
		return Actor{}, errors.New("invalid credentials")
	}
	return actor, nil
}

// IsAccount reports whether a name belongs to a registered actor.
func (s *Service) IsAccount(ctx context.Context, name string) (bool, error) {
	return s.repo.Exists(ctx, name)
}

// Bootstrap ensures a system identity (e.g. the ledger owner) exists,
// registering it with the given PIN when absent so operators can log in as
// it. Intended for dev mode where nobody registered the owner up front; a
// missing PIN falls back to a random one, leaving the identity present but
// unusable for login.
func (s *Service) Bootstrap(ctx context.Context, name, pin string) (Actor, error) {
	if actor, err := s.repo.FindByName(ctx, name); err == nil {
		return actor, nil
	}
	if pin == "" {
		pin = uuid.NewString()
	}
	return s.Register(ctx, Credentials{Name: name, PIN: pin})
}
