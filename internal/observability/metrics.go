// Package observability provides Prometheus metrics, health checks, and logging.
//
// Uses github.com/prometheus/client_golang - the official Prometheus client.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
// Metrics are automatically registered via promauto.
//
// Key metrics for monitoring:
//   - webhook_deliveries_failed_total: permanent delivery failures (alerts)
//   - webhook_delivery_duration_seconds: subscriber latency distribution
//   - maintenance_triaged_total: triage volume by priority and category
type Metrics struct {
	WebhookDeliveriesDelivered prometheus.Counter
	WebhookDeliveriesFailed    prometheus.Counter
	WebhookDeliveriesRetrying  prometheus.Counter
	WebhookDeliveryDuration    prometheus.Histogram

	MaintenanceTriaged   *prometheus.CounterVec
	NotificationsCreated prometheus.Counter
	EventsIngested       prometheus.Counter

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all Prometheus metrics.
// The namespace prefixes all metric names (e.g. "minipm_http_requests_total").
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		WebhookDeliveriesDelivered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_deliveries_delivered_total",
			Help:      "Total number of webhook deliveries that succeeded",
		}),
		WebhookDeliveriesFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_deliveries_failed_total",
			Help:      "Total number of webhook deliveries that failed permanently",
		}),
		WebhookDeliveriesRetrying: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_deliveries_retrying_total",
			Help:      "Total number of webhook deliveries scheduled for retry",
		}),
		WebhookDeliveryDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "webhook_delivery_duration_seconds",
			Help:      "Duration of webhook delivery attempts in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		MaintenanceTriaged: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "maintenance_triaged_total",
			Help:      "Total number of maintenance requests triaged by priority and category",
		}, []string{"priority", "category"}),
		NotificationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_created_total",
			Help:      "Total number of notifications created",
		}),
		EventsIngested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_ingested_total",
			Help:      "Total number of integration events consumed from Kafka",
		}),
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by method, path and status",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}
