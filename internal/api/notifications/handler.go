// Package notifications serves the notification inbox and user settings.
package notifications

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/good-yellow-bee/synergy/internal/api/middleware"
	"github.com/good-yellow-bee/synergy/internal/api/render"
	"github.com/good-yellow-bee/synergy/internal/service"
)

type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// EmailSettingRequest is the request body for the email notification switch.
type EmailSettingRequest struct {
	Enabled *bool `json:"enabled"`
}

// List returns the latest notifications and the unread count.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListNotifications(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		render.ServiceError(w, r, err)
		return
	}
	render.OK(w, list)
}

// MarkRead marks one notification read.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.MarkNotificationRead(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		render.ServiceError(w, r, err)
		return
	}
	render.NoContent(w)
}

// MarkAllRead marks every notification read.
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.MarkAllNotificationsRead(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		render.ServiceError(w, r, err)
		return
	}
	render.OK(w, map[string]int64{"updated": n})
}

// GetSettings returns the caller's settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.svc.GetSettings(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		render.ServiceError(w, r, err)
		return
	}
	render.OK(w, settings)
}

// ToggleNotifications flips in-app notifications.
func (h *Handler) ToggleNotifications(w http.ResponseWriter, r *http.Request) {
	settings, err := h.svc.ToggleNotifications(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		render.ServiceError(w, r, err)
		return
	}
	render.OK(w, settings)
}

// SetEmailNotifications sets the email notification flag.
func (h *Handler) SetEmailNotifications(w http.ResponseWriter, r *http.Request) {
	var req EmailSettingRequest
	if !render.Decode(w, r, &req) {
		return
	}
	if req.Enabled == nil {
		render.JSONError(w, render.NewBadRequest("enabled required"))
		return
	}
	settings, err := h.svc.SetEmailNotifications(r.Context(), middleware.GetUserID(r.Context()), *req.Enabled)
	if err != nil {
		render.ServiceError(w, r, err)
		return
	}
	render.OK(w, settings)
}
