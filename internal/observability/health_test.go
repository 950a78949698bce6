package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type mockPinger struct {
	pingErr error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.pingErr
}

func TestHealthHandler_Health(t *testing.T) {
	h := NewHealthHandler("minipm-server")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	h.Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Status != "ok" {
		t.Errorf("expected status 'ok', got %q", resp.Status)
	}
	if resp.Service != "minipm-server" {
		t.Errorf("expected service 'minipm-server', got %q", resp.Service)
	}
}

func TestHealthHandler_Ready_AllProbesPass(t *testing.T) {
	h := NewHealthHandler("minipm-server")
	h.AddProbe("postgres", &mockPinger{})
	h.SetMigrated()

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()

	h.Ready(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var resp ReadyResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Status != "ready" {
		t.Errorf("expected status 'ready', got %q", resp.Status)
	}
	if resp.Migrations != "applied" {
		t.Errorf("expected migrations 'applied', got %q", resp.Migrations)
	}
	if resp.Checks["postgres"] != "ok" {
		t.Errorf("expected postgres check 'ok', got %q", resp.Checks["postgres"])
	}
}

func TestHealthHandler_Ready_MigrationsPending(t *testing.T) {
	h := NewHealthHandler("minipm-server")
	h.AddProbe("postgres", &mockPinger{})

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()

	h.Ready(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}

	var resp ReadyResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Migrations != "pending" {
		t.Errorf("expected migrations 'pending', got %q", resp.Migrations)
	}
}

func TestHealthHandler_Ready_ProbeFails(t *testing.T) {
	h := NewHealthHandler("minipm-server")
	h.AddProbe("postgres", &mockPinger{})
	h.AddProbe("redis", &mockPinger{pingErr: errors.New("connection refused")})
	h.SetMigrated()

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()

	h.Ready(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}

	var resp ReadyResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Status != "degraded" {
		t.Errorf("expected status 'degraded', got %q", resp.Status)
	}
	if resp.Checks["redis"] != "connection refused" {
		t.Errorf("expected redis check error, got %q", resp.Checks["redis"])
	}
	if resp.Checks["postgres"] != "ok" {
		t.Errorf("healthy probe should still report ok, got %q", resp.Checks["postgres"])
	}
}
