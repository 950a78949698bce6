package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Pinger is a dependency the readiness endpoint probes. Both pgxpool.Pool
// and redis.Client satisfy it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// probeTimeout bounds each dependency ping so a hung pool cannot stall
// the readiness endpoint past the load balancer's own deadline.
const probeTimeout = 2 * time.Second

// HealthHandler serves liveness and readiness for one binary. Liveness
// always succeeds; readiness requires applied migrations plus a passing
// ping on every registered dependency.
type HealthHandler struct {
	service  string
	migrated atomic.Bool

	mu     sync.Mutex
	probes map[string]Pinger
}

func NewHealthHandler(service string) *HealthHandler {
	return &HealthHandler{
		service: service,
		probes:  make(map[string]Pinger),
	}
}

// AddProbe registers a named dependency for the readiness check.
func (h *HealthHandler) AddProbe(name string, p Pinger) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.probes[name] = p
}

// SetMigrated marks schema migrations as applied. Until then the binary
// reports not ready, so rollouts hold traffic while the schema catches up.
func (h *HealthHandler) SetMigrated() {
	h.migrated.Store(true)
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

type ReadyResponse struct {
	Status     string            `json:"status"`
	Service    string            `json:"service"`
	Migrations string            `json:"migrations"`
	Checks     map[string]string `json:"checks"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeHealthJSON(w, http.StatusOK, HealthResponse{Status: "ok", Service: h.service})
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	resp := ReadyResponse{
		Status:     "ready",
		Service:    h.service,
		Migrations: "applied",
		Checks:     make(map[string]string),
	}
	statusCode := http.StatusOK

	if !h.migrated.Load() {
		resp.Migrations = "pending"
		resp.Status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	h.mu.Lock()
	probes := make(map[string]Pinger, len(h.probes))
	for name, p := range h.probes {
		probes[name] = p
	}
	h.mu.Unlock()

	for name, p := range probes {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		err := p.Ping(ctx)
		cancel()
		if err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			statusCode = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	writeHealthJSON(w, statusCode, resp)
}

func writeHealthJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}
