// Package projects serves project, membership and project message endpoints.
package projects

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/good-yellow-bee/synergy/internal/api/middleware"
	"github.com/good-yellow-bee/synergy/internal/api/render"
	"github.com/good-yellow-bee/synergy/internal/service"
)

// Handler serves /projects.
type Handler struct {
	svc *service.Service
}

// NewHandler creates a projects handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Routes mounts the handler's endpoints on r. Nested routes are mounted
// under /{id} alongside the project's own.
func (h *Handler) Routes(r chi.Router, nested ...func(chi.Router)) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)

		r.Get("/members", h.ListMembers)
		r.Post("/members", h.AddMember)
		r.Put("/members/{userID}", h.SetMemberRole)
		r.Delete("/members/{userID}", h.RemoveMember)

		r.Get("/messages", h.ListMessages)
		r.Post("/messages", h.SendMessage)

		for _, fn := range nested {
			fn(r)
		}
	})
}

// AddMemberRequest is the request body for inviting a member.
type AddMemberRequest struct {
	Email string `json:"email"`
}

// SetRoleRequest is the request body for changing a member's role.
type SetRoleRequest struct {
	Role string `json:"role"`
}

// List returns the caller's projects.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.svc.ListProjects(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		render.ServiceError(w, r, err)
		return
	}
	render.OK(w, projects)
}

// Create creates a project owned by the caller.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.ProjectInput
	if !render.Decode(w, r, &req) {
		return
	}
	project, err := h.svc.CreateProject(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		render.ServiceError(w, r, err)
		return
	}
	render.Created(w, project)
}

// Get returns project detail.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.GetProject(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		render.ServiceError(w, r, err)
		return
	}
	render.OK(w, detail)
}

// Update changes name, description and color.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.ProjectInput
	if !render.Decode(w, r, &req) {
		return
	}
	project, err := h.svc.UpdateProject(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		render.ServiceError(w, r, err)
		return
	}
	render.OK(w, project)
}

// Delete removes the project and everything in it.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.DeleteProject(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		render.ServiceError(w, r, err)
		return
	}
	render.NoContent(w)
}

// ListMembers returns the project's members.
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.svc.ListMembers(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		render.ServiceError(w, r, err)
		return
	}
	render.OK(w, members)
}

// AddMember invites a user by email.
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req AddMemberRequest
	if !render.Decode(w, r, &req) {
		return
	}
	result, err := h.svc.AddMember(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"), req.Email)
	if err != nil {
		render.ServiceError(w, r, err)
		return
	}
	render.Created(w, result)
}

// SetMemberRole changes a member's role.
func (h *Handler) SetMemberRole(w http.ResponseWriter, r *http.Request) {
	var req SetRoleRequest
	if !render.Decode(w, r, &req) {
		return
	}
	err := h.svc.SetMemberRole(r.Context(), middleware.GetUserID(r.Context()),
		chi.URLParam(r, "id"), chi.URLParam(r, "userID"), req.Role)
	if err != nil {
		render.ServiceError(w, r, err)
		return
	}
	render.NoContent(w)
}

// RemoveMember removes a member and unassigns their tasks.
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	_, err := h.svc.RemoveMember(r.Context(), middleware.GetUserID(r.Context()),
		chi.URLParam(r, "id"), chi.URLParam(r, "userID"))
	if err != nil {
		render.ServiceError(w, r, err)
		return
	}
	render.NoContent(w)
}

// ListMessages returns recent project messages.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.svc.ListMessages(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		render.ServiceError(w, r, err)
		return
	}
	render.OK(w, msgs)
}

// SendMessage posts a message to the project.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req service.MessageInput
	if !render.Decode(w, r, &req) {
		return
	}
	msg, err := h.svc.SendMessage(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		render.ServiceError(w, r, err)
		return
	}
	render.Created(w, msg)
}
