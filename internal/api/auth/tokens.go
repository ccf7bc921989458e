package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/good-yellow-bee/synergy/internal/models"
	"github.com/good-yellow-bee/synergy/internal/storage"
)

// ErrInvalidRefreshToken covers unknown, expired and revoked refresh tokens.
var ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")

// TokenService manages refresh tokens. Only their SHA-256 hashes are stored.
type TokenService struct {
	storage storage.Storage
	ttl     time.Duration
	now     func() time.Time
}

// NewTokenService creates a token service.
func NewTokenService(store storage.Storage, ttl time.Duration) *TokenService {
	return &TokenService{
		storage: store,
		ttl:     ttl,
		now:     time.Now,
	}
}

// CreateRefreshToken stores a new refresh token for userID and returns the
// plaintext to hand to the client.
func (s *TokenService) CreateRefreshToken(ctx context.Context, userID string) (string, error) {
	token, plain, err := models.NewRefreshToken(userID, s.ttl)
	if err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	now := s.now()
	token.CreatedAt, token.ExpiresAt = now, now.Add(s.ttl)

	if err := s.storage.Tokens().Create(ctx, token); err != nil {
		return "", fmt.Errorf("store refresh token: %w", err)
	}
	return plain, nil
}

func (s *TokenService) lookup(ctx context.Context, plain string) (*models.RefreshToken, error) {
	token, err := s.storage.Tokens().GetByTokenHash(ctx, models.HashToken(plain))
	if err != nil {
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}
	if token == nil || !token.IsValid(s.now()) {
		return nil, ErrInvalidRefreshToken
	}
	return token, nil
}

// ValidateRefreshToken returns the user a live refresh token belongs to.
func (s *TokenService) ValidateRefreshToken(ctx context.Context, plain string) (*models.User, error) {
	token, err := s.lookup(ctx, plain)
	if err != nil {
		return nil, err
	}

	user, err := s.storage.Users().GetByID(ctx, token.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidRefreshToken
	}
	return user, nil
}

// RevokeRefreshToken revokes a live token. Unknown or already revoked tokens
// are ignored.
func (s *TokenService) RevokeRefreshToken(ctx context.Context, plain string) error {
	token, err := s.lookup(ctx, plain)
	if errors.Is(err, ErrInvalidRefreshToken) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.storage.Tokens().Revoke(ctx, token.ID, s.now())
}

// RotateRefreshToken revokes old and issues a replacement for userID.
func (s *TokenService) RotateRefreshToken(ctx context.Context, old, userID string) (string, error) {
	if err := s.RevokeRefreshToken(ctx, old); err != nil {
		return "", fmt.Errorf("revoke old refresh token: %w", err)
	}
	return s.CreateRefreshToken(ctx, userID)
}

// CleanupExpiredTokens deletes tokens that expired before now.
func (s *TokenService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	return s.storage.Tokens().DeleteExpired(ctx, s.now())
}
