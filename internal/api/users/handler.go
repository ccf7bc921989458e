// Package users serves the caller's profile and team endpoints.
package users

import (
	"net/http"

	"github.com/good-yellow-bee/synergy/internal/api/middleware"
	"github.com/good-yellow-bee/synergy/internal/api/render"
	"github.com/good-yellow-bee/synergy/internal/service"
)

// Handler serves /me and /team.
type Handler struct {
	svc *service.Service
}

// NewHandler creates a users handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// DisplayNameRequest is the request body for renaming.
type DisplayNameRequest struct {
	DisplayName string `json:"display_name"`
}

// ChangePasswordRequest is the request body for password changes.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// GetCurrentUser returns the authenticated user.
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.GetUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		render.ServiceError(w, r, err)
		return
	}
	render.OK(w, user)
}

// UpdateDisplayName renames the authenticated user.
func (h *Handler) UpdateDisplayName(w http.ResponseWriter, r *http.Request) {
	var req DisplayNameRequest
	if !render.Decode(w, r, &req) {
		return
	}
	user, err := h.svc.UpdateDisplayName(r.Context(), middleware.GetUserID(r.Context()), req.DisplayName)
	if err != nil {
		render.ServiceError(w, r, err)
		return
	}
	render.OK(w, user)
}

// ChangePassword changes the authenticated user's password. Existing refresh
// tokens stop working.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if !render.Decode(w, r, &req) {
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		render.JSONError(w, render.NewBadRequest("current_password and new_password required"))
		return
	}
	if err := h.svc.ChangePassword(r.Context(), middleware.GetUserID(r.Context()), req.CurrentPassword, req.NewPassword); err != nil {
		render.ServiceError(w, r, err)
		return
	}
	render.NoContent(w)
}

// Team returns the members of the caller's projects with task counts.
func (h *Handler) Team(w http.ResponseWriter, r *http.Request) {
	team, err := h.svc.TeamOverview(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		render.ServiceError(w, r, err)
		return
	}
	render.OK(w, team)
}
