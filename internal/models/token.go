package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"time"

	"github.com/google/uuid"
)

// RefreshToken is a hashed session refresh token. The plaintext is only ever
// held by the client.
type RefreshToken struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	TokenHash string     `json:"-"`
	ExpiresAt time.Time  `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// NewRefreshToken returns the stored form of a fresh token and its plaintext.
func NewRefreshToken(userID string, ttl time.Duration) (*RefreshToken, string, error) {
	plain, err := RandomToken(32)
	if err != nil {
		return nil, "", err
	}

	now := time.Now()
	return &RefreshToken{
		ID:        uuid.New().String(),
		UserID:    userID,
		TokenHash: HashToken(plain),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}, plain, nil
}

// RandomToken returns n random bytes encoded as base64url.
func RandomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashToken returns the SHA-256 lookup hash of a plaintext token.
func HashToken(plain string) string {
	hash := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// Revoked reports whether the token has been revoked.
func (t *RefreshToken) Revoked() bool {
	return t.RevokedAt != nil
}

// IsValid reports whether the token is neither revoked nor expired at now.
func (t *RefreshToken) IsValid(now time.Time) bool {
	return !t.Revoked() && now.Before(t.ExpiresAt)
}
