// Package tasks serves task endpoints.
package tasks

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

// Routes mounts /tasks/{id} endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
		r.Patch("/status", h.UpdateStatus)
		r.Patch("/priority", h.UpdatePriority)
	})
}

type StatusRequest struct {
	Status string `json:"status"`
}

type PriorityRequest struct {
	Priority string `json:"priority"`
}

// StatusResponse reports a task-set mutation and its effect on the project.
type StatusResponse struct {
	service.TaskResult
	Message string `json:"message"`
}

func statusResponse(res *service.TaskResult, base string) *StatusResponse {
	return &StatusResponse{TaskResult: *res, Message: res.Status.Message(base)}
}

// Create adds a task to the project in the URL.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.TaskInput
	if !render.Decode(w, r, &req) {
		return
	}
	res, err := h.svc.CreateTask(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		render.ServiceError(w, r, err)
		return
	}
	render.Created(w, statusResponse(res, "Task created"))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	task, err := h.svc.GetTask(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		render.ServiceError(w, r, err)
		return
	}
	render.OK(w, task)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.TaskInput
	if !render.Decode(w, r, &req) {
		return
	}
	task, err := h.svc.UpdateTask(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		render.ServiceError(w, r, err)
		return
	}
	render.OK(w, task)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if !render.Decode(w, r, &req) {
		return
	}
	res, err := h.svc.UpdateTaskStatus(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		render.ServiceError(w, r, err)
		return
	}
	render.OK(w, statusResponse(res, "Task status updated"))
}

func (h *Handler) UpdatePriority(w http.ResponseWriter, r *http.Request) {
	var req PriorityRequest
	if !render.Decode(w, r, &req) {
		return
	}
	task, err := h.svc.UpdateTaskPriority(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"), req.Priority)
	if err != nil {
		render.ServiceError(w, r, err)
		return
	}
	render.OK(w, task)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.DeleteTask(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		render.ServiceError(w, r, err)
		return
	}
	render.OK(w, statusResponse(res, "Task deleted"))
}

// Mine lists the caller's assigned tasks across projects.
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.svc.MyTasks(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		render.ServiceError(w, r, err)
		return
	}
	render.OK(w, tasks)
}
