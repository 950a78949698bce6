package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/domain"
)

type CreatePropertyRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
}

func (h *Handler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	var req CreatePropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Address == "" {
		h.respondError(w, http.StatusBadRequest, "name and address are required")
		return
	}

	now := h.clock.Now()
	p := &domain.Property{
		ID:        uuid.NewString(),
		TenantID:  tenantID(r),
		Name:      req.Name,
		Address:   req.Address,
		City:      req.City,
		Zip:       req.Zip,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.properties.Create(r.Context(), p); err != nil {
		h.respondStoreError(w, err, "property")
		return
	}

	h.emit(r, "property.created", "Property created", p.Name, p)
	h.respondJSON(w, http.StatusCreated, p)
}

func (h *Handler) GetProperty(w http.ResponseWriter, r *http.Request) {
	p, err := h.properties.GetByID(r.Context(), tenantID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.respondStoreError(w, err, "property")
		return
	}
	h.respondJSON(w, http.StatusOK, p)
}

func (h *Handler) ListProperties(w http.ResponseWriter, r *http.Request) {
	props, err := h.properties.List(r.Context(), tenantID(r))
	if err != nil {
		h.respondStoreError(w, err, "property")
		return
	}
	h.respondJSON(w, http.StatusOK, props)
}

func (h *Handler) UpdateProperty(w http.ResponseWriter, r *http.Request) {
	p, err := h.properties.GetByID(r.Context(), tenantID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.respondStoreError(w, err, "property")
		return
	}

	var req CreatePropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name != "" {
		p.Name = req.Name
	}
	if req.Address != "" {
		p.Address = req.Address
	}
	if req.City != "" {
		p.City = req.City
	}
	if req.Zip != "" {
		p.Zip = req.Zip
	}
	p.UpdatedAt = h.clock.Now()

	if err := h.properties.Update(r.Context(), p); err != nil {
		h.respondStoreError(w, err, "property")
		return
	}
	h.respondJSON(w, http.StatusOK, p)
}

func (h *Handler) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	if err := h.properties.Delete(r.Context(), tenantID(r), chi.URLParam(r, "id")); err != nil {
		h.respondStoreError(w, err, "property")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type CreateUnitRequest struct {
	Label     string `json:"label"`
	Floor     int    `json:"floor"`
	Bedrooms  int    `json:"bedrooms"`
	RentCents int64  `json:"rent_cents"`
}

func (h *Handler) CreateUnit(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "id")

	// The property must exist and belong to the tenant.
	if _, err := h.properties.GetByID(r.Context(), tenantID(r), propertyID); err != nil {
		h.respondStoreError(w, err, "property")
		return
	}

	var req CreateUnitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Label == "" {
		h.respondError(w, http.StatusBadRequest, "label is required")
		return
	}

	now := h.clock.Now()
	u := &domain.Unit{
		ID:         uuid.NewString(),
		TenantID:   tenantID(r),
		PropertyID: propertyID,
		Label:      req.Label,
		Floor:      req.Floor,
		Bedrooms:   req.Bedrooms,
		RentCents:  req.RentCents,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := h.units.Create(r.Context(), u); err != nil {
		h.respondStoreError(w, err, "unit")
		return
	}

	h.emit(r, "unit.created", "Unit created", u.Label, u)
	h.respondJSON(w, http.StatusCreated, u)
}

func (h *Handler) ListUnits(w http.ResponseWriter, r *http.Request) {
	units, err := h.units.ListByProperty(r.Context(), tenantID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.respondStoreError(w, err, "unit")
		return
	}
	h.respondJSON(w, http.StatusOK, units)
}

func (h *Handler) GetUnit(w http.ResponseWriter, r *http.Request) {
	u, err := h.units.GetByID(r.Context(), tenantID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.respondStoreError(w, err, "unit")
		return
	}
	h.respondJSON(w, http.StatusOK, u)
}

func (h *Handler) UpdateUnit(w http.ResponseWriter, r *http.Request) {
	u, err := h.units.GetByID(r.Context(), tenantID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.respondStoreError(w, err, "unit")
		return
	}

	var req CreateUnitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Label != "" {
		u.Label = req.Label
	}
	if req.Floor != 0 {
		u.Floor = req.Floor
	}
	if req.Bedrooms != 0 {
		u.Bedrooms = req.Bedrooms
	}
	if req.RentCents != 0 {
		u.RentCents = req.RentCents
	}
	u.UpdatedAt = h.clock.Now()

	if err := h.units.Update(r.Context(), u); err != nil {
		h.respondStoreError(w, err, "unit")
		return
	}
	h.respondJSON(w, http.StatusOK, u)
}

func (h *Handler) DeleteUnit(w http.ResponseWriter, r *http.Request) {
	if err := h.units.Delete(r.Context(), tenantID(r), chi.URLParam(r, "id")); err != nil {
		h.respondStoreError(w, err, "unit")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
