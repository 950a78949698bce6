package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/observability"
)

type RouterConfig struct {
	Handler       *Handler
	HealthHandler *observability.HealthHandler
	Metrics       *observability.Metrics
	Logger        *slog.Logger
}

func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	if cfg.Logger != nil {
		r.Use(observability.LoggingMiddleware(cfg.Logger))
	}

	if cfg.Metrics != nil {
		r.Use(observability.MetricsMiddleware(cfg.Metrics))
	}

	r.Get("/health", cfg.HealthHandler.Health)
	r.Get("/ready", cfg.HealthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	h := cfg.Handler

	// Everything below requires a tenant.
	r.Group(func(r chi.Router) {
		r.Use(TenantMiddleware)

		r.Route("/properties", func(r chi.Router) {
			r.Post("/", h.CreateProperty)
			r.Get("/", h.ListProperties)
			r.Get("/{id}", h.GetProperty)
			r.Put("/{id}", h.UpdateProperty)
			r.Delete("/{id}", h.DeleteProperty)
			r.Post("/{id}/units", h.CreateUnit)
			r.Get("/{id}/units", h.ListUnits)
		})

		r.Route("/units", func(r chi.Router) {
			r.Get("/{id}", h.GetUnit)
			r.Put("/{id}", h.UpdateUnit)
			r.Delete("/{id}", h.DeleteUnit)
		})

		r.Route("/leases", func(r chi.Router) {
			r.Post("/", h.CreateLease)
			r.Get("/", h.ListLeases)
			r.Get("/{id}", h.GetLease)
			r.Post("/{id}/end", h.EndLease)
		})

		r.Route("/maintenance-requests", func(r chi.Router) {
			r.Post("/", h.CreateMaintenanceRequest)
			r.Get("/", h.ListMaintenanceRequests)
			r.Get("/{id}", h.GetMaintenanceRequest)
			r.Patch("/{id}", h.UpdateMaintenanceRequest)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Post("/", h.CreateNotification)
			r.Get("/", h.ListNotifications)
			r.Get("/{id}", h.GetNotification)
			r.Post("/{id}/read", h.MarkNotificationRead)
		})

		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/", h.CreateWebhook)
			r.Get("/", h.ListWebhooks)
			r.Get("/{id}", h.GetWebhook)
			r.Put("/{id}", h.UpdateWebhook)
			r.Delete("/{id}", h.DeleteWebhook)
			r.Get("/{id}/deliveries", h.ListWebhookDeliveries)
		})
	})

	return r
}
