package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/domain"
)

type CreateMaintenanceRequest struct {
	UnitID   *string `json:"unit_id,omitempty"`
	Title    string  `json:"title"`
	Details  string  `json:"details"`
	Priority string  `json:"priority,omitempty"`
	Category string  `json:"category,omitempty"`
}

func (h *Handler) CreateMaintenanceRequest(w http.ResponseWriter, r *http.Request) {
	var req CreateMaintenanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		h.respondError(w, http.StatusBadRequest, "title is required")
		return
	}

	if req.UnitID != nil {
		if _, err := h.units.GetByID(r.Context(), tenantID(r), *req.UnitID); err != nil {
			h.respondStoreError(w, err, "unit")
			return
		}
	}

	priority := domain.Priority(req.Priority)
	category := domain.Category(req.Category)
	if req.Priority != "" && !domain.ValidPriority(priority) {
		h.respondError(w, http.StatusBadRequest, "invalid priority")
		return
	}
	if req.Category != "" && !domain.ValidCategory(category) {
		h.respondError(w, http.StatusBadRequest, "invalid category")
		return
	}

	// Triage fills whatever the reporter left out.
	if req.Priority == "" || req.Category == "" {
		result := h.triage.Triage(r.Context(), req.Title, req.Details)
		if req.Priority == "" {
			priority = result.Priority
		}
		if req.Category == "" {
			category = result.Category
		}
	}

	now := h.clock.Now()
	m := &domain.MaintenanceRequest{
		ID:        uuid.NewString(),
		TenantID:  tenantID(r),
		UnitID:    req.UnitID,
		Title:     req.Title,
		Details:   req.Details,
		Priority:  priority,
		Category:  category,
		Status:    domain.MaintenanceStatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.maintenance.Create(r.Context(), m); err != nil {
		h.respondStoreError(w, err, "maintenance request")
		return
	}

	if h.metrics != nil {
		h.metrics.MaintenanceTriaged.WithLabelValues(string(m.Priority), string(m.Category)).Inc()
	}

	h.emit(r, "maintenance.created", "New maintenance request", m.Title, m)
	h.respondJSON(w, http.StatusCreated, m)
}

func (h *Handler) GetMaintenanceRequest(w http.ResponseWriter, r *http.Request) {
	m, err := h.maintenance.GetByID(r.Context(), tenantID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.respondStoreError(w, err, "maintenance request")
		return
	}
	h.respondJSON(w, http.StatusOK, m)
}

func (h *Handler) ListMaintenanceRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.maintenance.List(r.Context(), tenantID(r))
	if err != nil {
		h.respondStoreError(w, err, "maintenance request")
		return
	}
	h.respondJSON(w, http.StatusOK, reqs)
}

type UpdateMaintenanceRequest struct {
	AssignTo *string `json:"assign_to,omitempty"`
	Resolve  bool    `json:"resolve,omitempty"`
	Cancel   bool    `json:"cancel,omitempty"`
	Priority string  `json:"priority,omitempty"`
	Category string  `json:"category,omitempty"`
}

// UpdateMaintenanceRequest applies a partial update: assignment, state
// transition, or a priority/category override after human review.
func (h *Handler) UpdateMaintenanceRequest(w http.ResponseWriter, r *http.Request) {
	m, err := h.maintenance.GetByID(r.Context(), tenantID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.respondStoreError(w, err, "maintenance request")
		return
	}

	var req UpdateMaintenanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	now := h.clock.Now()

	if req.Priority != "" {
		p := domain.Priority(req.Priority)
		if !domain.ValidPriority(p) {
			h.respondError(w, http.StatusBadRequest, "invalid priority")
			return
		}
		m.Priority = p
		m.UpdatedAt = now
	}
	if req.Category != "" {
		c := domain.Category(req.Category)
		if !domain.ValidCategory(c) {
			h.respondError(w, http.StatusBadRequest, "invalid category")
			return
		}
		m.Category = c
		m.UpdatedAt = now
	}

	switch {
	case req.AssignTo != nil:
		err = m.Assign(*req.AssignTo, now)
	case req.Resolve:
		err = m.Resolve(now)
	case req.Cancel:
		err = m.Cancel(now)
	}
	if err != nil {
		h.respondError(w, http.StatusConflict, "maintenance request is already closed")
		return
	}

	if err := h.maintenance.Update(r.Context(), m); err != nil {
		h.respondStoreError(w, err, "maintenance request")
		return
	}

	h.emit(r, "maintenance.updated", "Maintenance request updated", m.Title, m)
	h.respondJSON(w, http.StatusOK, m)
}
