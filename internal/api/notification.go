package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/domain"
)

type CreateNotificationRequest struct {
	Type    string          `json:"type"`
	Title   string          `json:"title"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (h *Handler) CreateNotification(w http.ResponseWriter, r *http.Request) {
	var req CreateNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	n, err := h.notify.Create(r.Context(), &domain.Notification{
		TenantID: tenantID(r),
		Type:     req.Type,
		Title:    req.Title,
		Message:  req.Message,
		Data:     req.Data,
	})
	if err != nil {
		h.respondStoreError(w, err, "notification")
		return
	}

	h.respondJSON(w, http.StatusCreated, n)
}

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	limit := limitParam(r, 50, 200)
	ns, err := h.notifications.List(r.Context(), tenantID(r), limit)
	if err != nil {
		h.respondStoreError(w, err, "notification")
		return
	}
	h.respondJSON(w, http.StatusOK, ns)
}

func (h *Handler) GetNotification(w http.ResponseWriter, r *http.Request) {
	n, err := h.notifications.GetByID(r.Context(), tenantID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.respondStoreError(w, err, "notification")
		return
	}
	h.respondJSON(w, http.StatusOK, n)
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if err := h.notifications.MarkRead(r.Context(), tenantID(r), chi.URLParam(r, "id")); err != nil {
		h.respondStoreError(w, err, "notification")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
