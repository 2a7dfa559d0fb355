package auth

import (
	"context"
	"errors"
	"time"

	"github.com/lodecoin/lodecoin/internal/config"
	"github.com/lodecoin/lodecoin/internal/identity"
)

// Service issues and refreshes signing tokens for registered actors.
type Service struct {
	cfg  config.Config
	repo identity.Repository
}

// NewService builds the auth service.
func NewService(cfg config.Config, repo identity.Repository) *Service {
	return &Service{cfg: cfg, repo: repo}
}

// TokenPair bundles the access and refresh tokens issued at login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Login issues a token pair for an already-authenticated actor.
func (s *Service) Login(actor identity.Actor) (TokenPair, error) {
	access, accessExp, err := s.sign(actor, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, _, err := s.sign(actor, s.cfg.RefreshSecret, s.cfg.RefreshTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(time.Until(accessExp).Seconds()),
	}, nil
}

func (s *Service) sign(actor identity.Actor, secret string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)
	claims := map[string]any{
		"sub":  actor.ID,
		"name": actor.Name,
		"ver":  actor.TokenVersion,
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}
	signed, err := SignHS256(claims, []byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Refresh verifies the refresh token and returns a new access token if valid.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, int64, error) {
	claims, err := ParseAndVerifyHS256(refreshToken, []byte(s.cfg.RefreshSecret))
	if err != nil {
		return "", 0, errors.New("invalid refresh token")
	}
	sub, _ := claims["sub"].(string)
	verFloat, _ := claims["ver"].(float64)
	ver := int(verFloat)

	actor, err := s.repo.FindByID(ctx, sub)
	if err != nil {
		return "", 0, errors.New("actor not found")
	}
	if actor.TokenVersion != ver {
		return "", 0, errors.New("token version invalidated")
	}

	signed, _, err := s.sign(actor, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return "", 0, err
	}
	return signed, int64(s.cfg.AccessTokenTTL.Seconds()), nil
}

// Logout increments token version so older tokens become invalid.
func (s *Service) Logout(ctx context.Context, actorID string) error {
	actor, err := s.repo.FindByID(ctx, actorID)
	if err != nil {
		return err
	}
	return s.repo.UpdateTokenVersion(ctx, actor.ID, actor.TokenVersion+1)
}
