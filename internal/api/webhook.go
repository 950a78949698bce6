package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/domain"
)

type CreateWebhookRequest struct {
	URL     string            `json:"url"`
	Events  []string          `json:"events"`
	Secret  *string           `json:"secret,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

func (h *Handler) validateWebhookRequest(req *CreateWebhookRequest) string {
	if req.URL == "" || len(req.Events) == 0 {
		return "url and events are required"
	}
	if !validURL(req.URL) {
		return "url must be a valid http(s) URL"
	}
	for _, e := range req.Events {
		if !knownEvent(e) {
			return "unknown event: " + e
		}
	}
	return ""
}

func (h *Handler) CreateWebhook(w http.ResponseWriter, r *http.Request) {
	var req CreateWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := h.validateWebhookRequest(&req); msg != "" {
		h.respondError(w, http.StatusBadRequest, msg)
		return
	}

	sub := &domain.WebhookSubscription{
		ID:        uuid.NewString(),
		TenantID:  tenantID(r),
		URL:       req.URL,
		Events:    req.Events,
		Secret:    req.Secret,
		Headers:   req.Headers,
		Active:    true,
		CreatedAt: h.clock.Now(),
	}

	if err := h.webhooks.CreateSubscription(r.Context(), sub); err != nil {
		h.respondStoreError(w, err, "webhook")
		return
	}

	h.respondJSON(w, http.StatusCreated, sub)
}

func (h *Handler) GetWebhook(w http.ResponseWriter, r *http.Request) {
	sub, err := h.webhooks.GetSubscription(r.Context(), tenantID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.respondStoreError(w, err, "webhook")
		return
	}
	h.respondJSON(w, http.StatusOK, sub)
}

func (h *Handler) ListWebhooks(w http.ResponseWriter, r *http.Request) {
	subs, err := h.webhooks.ListSubscriptions(r.Context(), tenantID(r))
	if err != nil {
		h.respondStoreError(w, err, "webhook")
		return
	}
	h.respondJSON(w, http.StatusOK, subs)
}

type UpdateWebhookRequest struct {
	URL     string            `json:"url,omitempty"`
	Events  []string          `json:"events,omitempty"`
	Secret  *string           `json:"secret,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Active  *bool             `json:"active,omitempty"`
}

func (h *Handler) UpdateWebhook(w http.ResponseWriter, r *http.Request) {
	sub, err := h.webhooks.GetSubscription(r.Context(), tenantID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.respondStoreError(w, err, "webhook")
		return
	}

	var req UpdateWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.URL != "" {
		if !validURL(req.URL) {
			h.respondError(w, http.StatusBadRequest, "url must be a valid http(s) URL")
			return
		}
		sub.URL = req.URL
	}
	if len(req.Events) > 0 {
		for _, e := range req.Events {
			if !knownEvent(e) {
				h.respondError(w, http.StatusBadRequest, "unknown event: "+e)
				return
			}
		}
		sub.Events = req.Events
	}
	if req.Secret != nil {
		sub.Secret = req.Secret
	}
	if req.Headers != nil {
		sub.Headers = req.Headers
	}
	if req.Active != nil {
		sub.Active = *req.Active
	}

	if err := h.webhooks.UpdateSubscription(r.Context(), sub); err != nil {
		h.respondStoreError(w, err, "webhook")
		return
	}
	h.respondJSON(w, http.StatusOK, sub)
}

func (h *Handler) DeleteWebhook(w http.ResponseWriter, r *http.Request) {
	if err := h.webhooks.DeleteSubscription(r.Context(), tenantID(r), chi.URLParam(r, "id")); err != nil {
		h.respondStoreError(w, err, "webhook")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListWebhookDeliveries(w http.ResponseWriter, r *http.Request) {
	webhookID := chi.URLParam(r, "id")

	// Ownership check before exposing delivery history.
	if _, err := h.webhooks.GetSubscription(r.Context(), tenantID(r), webhookID); err != nil {
		h.respondStoreError(w, err, "webhook")
		return
	}

	limit := limitParam(r, 50, 200)
	deliveries, err := h.webhooks.ListDeliveries(r.Context(), tenantID(r), webhookID, limit)
	if err != nil {
		h.respondStoreError(w, err, "webhook")
		return
	}
	h.respondJSON(w, http.StatusOK, deliveries)
}
