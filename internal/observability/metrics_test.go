package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewMetrics(t *testing.T) {
	// Reset default registry for test isolation
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg

	m := NewMetrics("minipm")

	if m.WebhookDeliveriesDelivered == nil {
		t.Error("WebhookDeliveriesDelivered counter should not be nil")
	}

	if m.WebhookDeliveriesFailed == nil {
		t.Error("WebhookDeliveriesFailed counter should not be nil")
	}

	if m.WebhookDeliveryDuration == nil {
		t.Error("WebhookDeliveryDuration histogram should not be nil")
	}

	if m.MaintenanceTriaged == nil {
		t.Error("MaintenanceTriaged counter vec should not be nil")
	}

	if m.HTTPRequestsTotal == nil {
		t.Error("HTTPRequestsTotal counter vec should not be nil")
	}
}

func TestMetrics_Increment(t *testing.T) {
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg

	m := NewMetrics("test")

	m.WebhookDeliveriesDelivered.Inc()
	m.WebhookDeliveriesFailed.Inc()
	m.WebhookDeliveriesRetrying.Inc()
	m.WebhookDeliveryDuration.Observe(0.5)
	m.MaintenanceTriaged.WithLabelValues("High", "Plumbing").Inc()
	m.NotificationsCreated.Inc()
	m.HTTPRequestsTotal.WithLabelValues("GET", "/properties", "200").Inc()
	m.HTTPRequestDuration.WithLabelValues("GET", "/properties").Observe(0.1)

	// If we got here without panic, metrics are working
}
