package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/good-yellow-bee/synergy/internal/api/auth"
	"github.com/good-yellow-bee/synergy/internal/models"
)

var testSecret = []byte("test-secret-key-32-bytes-long!!")

func TestJWTAuth_ValidToken(t *testing.T) {
	jwtService := auth.NewJWTService(testSecret, 15*time.Minute)
	user := &models.User{ID: "user-123", Email: "pat@example.com"}

	token, err := jwtService.GenerateToken(user)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	var gotUserID, gotEmail string
	var gotClaims *auth.Claims
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = GetUserID(r.Context())
		gotEmail = GetEmail(r.Context())
		gotClaims = GetClaims(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	JWTAuth(jwtService)(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotUserID != user.ID {
		t.Errorf("UserID = %q, want %q", gotUserID, user.ID)
	}
	if gotEmail != user.Email {
		t.Errorf("Email = %q, want %q", gotEmail, user.Email)
	}
	if gotClaims == nil || gotClaims.Subject != user.ID {
		t.Errorf("claims = %+v", gotClaims)
	}
}

func TestJWTAuth_Rejects(t *testing.T) {
	jwtService := auth.NewJWTService(testSecret, 15*time.Minute)
	other := auth.NewJWTService([]byte("another-secret-32-bytes-long!!!"), 15*time.Minute)
	foreign, err := other.GenerateToken(&models.User{ID: "user-123"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"no scheme", "abc"},
		{"basic scheme", "Basic dXNlcjpwYXNz"},
		{"empty bearer", "Bearer "},
		{"garbage", "Bearer not-a-token"},
		{"foreign signature", "Bearer " + foreign},
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	})

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			JWTAuth(jwtService)(handler).ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestContextHelpers_Empty(t *testing.T) {
	ctx := context.Background()
	if GetUserID(ctx) != "" || GetEmail(ctx) != "" || GetClaims(ctx) != nil {
		t.Error("empty context should yield zero values")
	}
}

func TestWithIdentity(t *testing.T) {
	ctx := WithIdentity(context.Background(), "user-1", "pat@example.com")
	if GetUserID(ctx) != "user-1" || GetEmail(ctx) != "pat@example.com" {
		t.Errorf("identity = %q %q", GetUserID(ctx), GetEmail(ctx))
	}
	if GetClaims(ctx) != nil {
		t.Error("claims set without a token")
	}
}
