package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/domain"
)

type CreateLeaseRequest struct {
	UnitID        string    `json:"unit_id"`
	ResidentName  string    `json:"resident_name"`
	ResidentEmail string    `json:"resident_email"`
	StartsOn      time.Time `json:"starts_on"`
	RentCents     int64     `json:"rent_cents"`
}

func (h *Handler) CreateLease(w http.ResponseWriter, r *http.Request) {
	var req CreateLeaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UnitID == "" || req.ResidentName == "" {
		h.respondError(w, http.StatusBadRequest, "unit_id and resident_name are required")
		return
	}

	unit, err := h.units.GetByID(r.Context(), tenantID(r), req.UnitID)
	if err != nil {
		h.respondStoreError(w, err, "unit")
		return
	}

	now := h.clock.Now()
	startsOn := req.StartsOn
	if startsOn.IsZero() {
		startsOn = now
	}

	l := &domain.Lease{
		ID:            uuid.NewString(),
		TenantID:      tenantID(r),
		UnitID:        unit.ID,
		ResidentName:  req.ResidentName,
		ResidentEmail: req.ResidentEmail,
		StartsOn:      startsOn,
		RentCents:     req.RentCents,
		Status:        domain.LeaseStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.leases.Create(r.Context(), l); err != nil {
		h.respondStoreError(w, err, "lease")
		return
	}

	// A new active lease occupies the unit.
	unit.Occupied = true
	unit.UpdatedAt = now
	if err := h.units.Update(r.Context(), unit); err != nil {
		h.logger.Error("failed to mark unit occupied", "error", err, "unit_id", unit.ID)
	}

	h.emit(r, "lease.created", "Lease created", l.ResidentName, l)
	h.respondJSON(w, http.StatusCreated, l)
}

func (h *Handler) GetLease(w http.ResponseWriter, r *http.Request) {
	l, err := h.leases.GetByID(r.Context(), tenantID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.respondStoreError(w, err, "lease")
		return
	}
	h.respondJSON(w, http.StatusOK, l)
}

func (h *Handler) ListLeases(w http.ResponseWriter, r *http.Request) {
	leases, err := h.leases.List(r.Context(), tenantID(r))
	if err != nil {
		h.respondStoreError(w, err, "lease")
		return
	}
	h.respondJSON(w, http.StatusOK, leases)
}

func (h *Handler) EndLease(w http.ResponseWriter, r *http.Request) {
	l, err := h.leases.GetByID(r.Context(), tenantID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.respondStoreError(w, err, "lease")
		return
	}

	if err := l.End(h.clock.Now()); err != nil {
		h.respondError(w, http.StatusConflict, "lease is not active")
		return
	}

	if err := h.leases.Update(r.Context(), l); err != nil {
		h.respondStoreError(w, err, "lease")
		return
	}

	if unit, err := h.units.GetByID(r.Context(), tenantID(r), l.UnitID); err == nil {
		unit.Occupied = false
		unit.UpdatedAt = h.clock.Now()
		if err := h.units.Update(r.Context(), unit); err != nil {
			h.logger.Error("failed to mark unit vacant", "error", err, "unit_id", unit.ID)
		}
	}

	h.emit(r, "lease.ended", "Lease ended", l.ResidentName, l)
	h.respondJSON(w, http.StatusOK, l)
}
