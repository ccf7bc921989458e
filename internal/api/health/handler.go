// Package health provides liveness and readiness endpoints.
package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/good-yellow-bee/synergy/internal/api/render"
)

// Checker is one readiness dependency.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// Handler serves /health, /health/live and /health/ready.
type Handler struct {
	mu       sync.RWMutex
	checkers []Checker
	timeout  time.Duration
}

// NewHandler creates a health handler.
func NewHandler() *Handler {
	return &Handler{timeout: 5 * time.Second}
}

// RegisterChecker adds a readiness dependency.
func (h *Handler) RegisterChecker(c Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers = append(h.checkers, c)
}

// Response is the health check body.
type Response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health reports that the process is up.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	render.OK(w, Response{Status: "ok"})
}

// Live is the liveness probe.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	render.OK(w, Response{Status: "live"})
}

// Ready is the readiness probe: 200 only when every checker passes.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	h.mu.RLock()
	checkers := append([]Checker(nil), h.checkers...)
	h.mu.RUnlock()

	resp := Response{Status: "ready", Checks: make(map[string]string, len(checkers))}
	status := http.StatusOK
	for _, c := range checkers {
		if err := c.Check(ctx); err != nil {
			resp.Checks[c.Name()] = err.Error()
			resp.Status = "not_ready"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[c.Name()] = "ok"
	}
	render.JSON(w, status, resp)
}
