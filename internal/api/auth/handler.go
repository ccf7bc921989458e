package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/good-yellow-bee/synergy/internal/api/render"
	"github.com/good-yellow-bee/synergy/internal/logging"
	"github.com/good-yellow-bee/synergy/internal/metrics"
	"github.com/good-yellow-bee/synergy/internal/models"
	"github.com/good-yellow-bee/synergy/internal/service"
	"github.com/good-yellow-bee/synergy/internal/storage"
)

// Handler serves the /auth endpoints.
type Handler struct {
	svc     *service.Service
	jwt     *JWTService
	tokens  *TokenService
	lockout *LockoutTracker
	log     *logrus.Logger
}

// NewHandler creates an auth handler.
func NewHandler(svc *service.Service, store storage.Storage, jwt *JWTService, lockout *LockoutTracker, refreshTTL time.Duration) *Handler {
	return &Handler{
		svc:     svc,
		jwt:     jwt,
		tokens:  NewTokenService(store, refreshTTL),
		lockout: lockout,
		log:     logging.Logger,
	}
}

// LoginResponse is returned on successful login and refresh.
type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the request body for refresh and logout.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Register creates an account.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if !render.Decode(w, r, &req) {
		return
	}

	user, err := h.svc.Register(r.Context(), req)
	if err != nil {
		render.ServiceError(w, r, err)
		return
	}
	render.Created(w, user)
}

// Login exchanges email and password for an access and refresh token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !render.Decode(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		render.JSONError(w, render.NewBadRequest("email and password required"))
		return
	}

	key := models.NormalizeEmail(req.Email)
	if h.lockout.IsLocked(key) {
		metrics.AuthAttemptsTotal.WithLabelValues("locked").Inc()
		h.log.WithFields(logrus.Fields{
			"email":     key,
			"remaining": h.lockout.RemainingLockoutTime(key).Round(time.Second),
		}).Warn("login blocked: account locked")
		render.JSONError(w, render.ErrAccountLocked)
		return
	}

	ctx := r.Context()
	user, err := h.svc.Authenticate(ctx, key, req.Password)
	if errors.Is(err, service.ErrUnauthenticated) {
		metrics.AuthAttemptsTotal.WithLabelValues("failure").Inc()
		if h.lockout.RecordFailure(key) {
			h.log.WithField("email", key).Warn("account locked after repeated login failures")
		}
		render.ServiceError(w, r, err)
		return
	}
	if err != nil {
		render.ServiceError(w, r, err)
		return
	}

	h.lockout.ClearFailures(key)
	metrics.AuthAttemptsTotal.WithLabelValues("success").Inc()

	resp, err := h.issue(r, user, "")
	if err != nil {
		h.log.WithError(err).Error("login: issue tokens")
		render.JSONError(w, render.ErrInternal)
		return
	}
	h.log.WithField("user_id", user.ID).Info("login success")
	render.OK(w, resp)
}

// Refresh rotates a refresh token and issues a new access token.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !render.Decode(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		render.JSONError(w, render.NewBadRequest("refresh_token required"))
		return
	}

	user, err := h.tokens.ValidateRefreshToken(r.Context(), req.RefreshToken)
	if errors.Is(err, ErrInvalidRefreshToken) {
		render.JSONError(w, render.ErrInvalidToken)
		return
	}
	if err != nil {
		h.log.WithError(err).Error("refresh: validate token")
		render.JSONError(w, render.ErrInternal)
		return
	}

	resp, err := h.issue(r, user, req.RefreshToken)
	if err != nil {
		h.log.WithError(err).Error("refresh: issue tokens")
		render.JSONError(w, render.ErrInternal)
		return
	}
	render.OK(w, resp)
}

// issue creates an access token and a refresh token, rotating previous when
// it is set.
func (h *Handler) issue(r *http.Request, user *models.User, previous string) (*LoginResponse, error) {
	access, err := h.jwt.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	var refresh string
	if previous != "" {
		refresh, err = h.tokens.RotateRefreshToken(r.Context(), previous, user.ID)
	} else {
		refresh, err = h.tokens.CreateRefreshToken(r.Context(), user.ID)
	}
	if err != nil {
		return nil, err
	}

	metrics.AuthTokensIssued.WithLabelValues("access").Inc()
	metrics.AuthTokensIssued.WithLabelValues("refresh").Inc()
	return &LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    h.jwt.TTLSeconds(),
		TokenType:    "Bearer",
	}, nil
}

// Logout revokes the given refresh token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !render.Decode(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		render.JSONError(w, render.NewBadRequest("refresh_token required"))
		return
	}

	if err := h.tokens.RevokeRefreshToken(r.Context(), req.RefreshToken); err != nil {
		h.log.WithError(err).Warn("logout: revoke token")
	}
	render.NoContent(w)
}
