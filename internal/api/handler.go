// Package api exposes the HTTP surface: property, unit, lease and
// maintenance CRUD, notifications, and webhook subscription management.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/clock"
	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/domain"
	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/notify"
	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/observability"
	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/repository"
	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/triage"
)

// KnownEvents is the set of event names a webhook subscription may ask for.
var KnownEvents = []string{
	"property.created",
	"unit.created",
	"lease.created",
	"lease.ended",
	"maintenance.created",
	"maintenance.updated",
	"notification.created",
}

func knownEvent(name string) bool {
	for _, e := range KnownEvents {
		if e == name {
			return true
		}
	}
	return false
}

type Handler struct {
	properties    repository.PropertyRepository
	units         repository.UnitRepository
	leases        repository.LeaseRepository
	maintenance   repository.MaintenanceRepository
	notifications repository.NotificationRepository
	webhooks      repository.WebhookRepository

	triage  *triage.Service
	notify  *notify.Service
	clock   clock.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

type HandlerConfig struct {
	Properties    repository.PropertyRepository
	Units         repository.UnitRepository
	Leases        repository.LeaseRepository
	Maintenance   repository.MaintenanceRepository
	Notifications repository.NotificationRepository
	Webhooks      repository.WebhookRepository

	Triage  *triage.Service
	Notify  *notify.Service
	Clock   clock.Clock
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

func NewHandler(cfg HandlerConfig) *Handler {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		properties:    cfg.Properties,
		units:         cfg.Units,
		leases:        cfg.Leases,
		maintenance:   cfg.Maintenance,
		notifications: cfg.Notifications,
		webhooks:      cfg.Webhooks,
		triage:        cfg.Triage,
		notify:        cfg.Notify,
		clock:         clk,
		logger:        logger,
		metrics:       cfg.Metrics,
	}
}

// emit fires a domain event notification. Best-effort; the primary
// operation has already succeeded by the time this runs.
func (h *Handler) emit(r *http.Request, eventType, title, message string, data any) {
	if h.notify == nil {
		return
	}
	h.notify.Emit(r.Context(), tenantID(r), eventType, title, message, data)
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// limitParam parses the ?limit query parameter, clamped to [1, max].
func limitParam(r *http.Request, def, max int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, errorResponse{Error: message})
}

// respondStoreError maps repository errors onto HTTP statuses.
func (h *Handler) respondStoreError(w http.ResponseWriter, err error, resource string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.respondError(w, http.StatusNotFound, resource+" not found")
	case errors.Is(err, domain.ErrAlreadyExists):
		h.respondError(w, http.StatusConflict, resource+" already exists")
	case errors.Is(err, domain.ErrInvalidInput):
		h.respondError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("store operation failed", "error", err, "resource", resource)
		h.respondError(w, http.StatusInternalServerError, "internal error")
	}
}
