package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/good-yellow-bee/synergy/internal/api/auth"
	"github.com/good-yellow-bee/synergy/internal/api/render"
)

type contextKey string

const (
	userIDKey contextKey = "user_id"
	emailKey  contextKey = "email"
	claimsKey contextKey = "claims"
)

// JWTAuth rejects requests without a valid Bearer access token and stores
// the caller's identity in the request context.
func JWTAuth(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				render.JSONError(w, render.ErrInvalidToken)
				return
			}

			claims, err := jwtService.ValidateToken(token)
			if err != nil {
				LoggerFrom(r.Context()).WithError(err).Debug("jwt auth failed")
				render.JSONError(w, render.ErrInvalidToken)
				return
			}

			ctx := WithIdentity(r.Context(), claims.UserID, claims.Email)
			ctx = context.WithValue(ctx, claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithIdentity returns ctx carrying the caller's user id and email.
func WithIdentity(ctx context.Context, userID, email string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, emailKey, email)
}

// GetUserID returns the authenticated user id, or "".
func GetUserID(ctx context.Context) string {
	if s, ok := ctx.Value(userIDKey).(string); ok {
		return s
	}
	return ""
}

// GetEmail returns the authenticated user's email, or "".
func GetEmail(ctx context.Context) string {
	if s, ok := ctx.Value(emailKey).(string); ok {
		return s
	}
	return ""
}

// GetClaims returns the JWT claims from context.
func GetClaims(ctx context.Context) *auth.Claims {
	if c, ok := ctx.Value(claimsKey).(*auth.Claims); ok {
		return c
	}
	return nil
}
