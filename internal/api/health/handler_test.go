package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func ready(t *testing.T, h *Handler) (int, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	var body struct {
		Data Response `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return rec.Code, body.Data
}

func TestReady(t *testing.T) {
	h := NewHandler()
	h.RegisterChecker(NewStorageChecker(stubPinger{}))

	code, resp := ready(t, h)
	if code != http.StatusOK || resp.Status != "ready" || resp.Checks["sqlite"] != "ok" {
		t.Errorf("got %d %+v", code, resp)
	}
}

func TestReady_FailingDependency(t *testing.T) {
	h := NewHandler()
	h.RegisterChecker(NewStorageChecker(stubPinger{err: errors.New("database is closed")}))

	code, resp := ready(t, h)
	if code != http.StatusServiceUnavailable || resp.Status != "not_ready" {
		t.Errorf("got %d %+v", code, resp)
	}
	if resp.Checks["sqlite"] != "database is closed" {
		t.Errorf("checks = %v", resp.Checks)
	}
}

func TestStorageChecker_Nil(t *testing.T) {
	if err := NewStorageChecker(nil).Check(context.Background()); err == nil {
		t.Error("expected error without a pinger")
	}
}

func TestLive(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler().Live(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}
