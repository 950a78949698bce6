package domain

import (
	"encoding/json"
	"time"
)

// WebhookSubscription is a tenant-configured delivery endpoint.
// A subscription is only considered for delivery when it is active and the
// triggering event name is a member of Events.
type WebhookSubscription struct {
	ID        string            `json:"id"`
	TenantID  string            `json:"tenant_id"`
	URL       string            `json:"url"`
	Events    []string          `json:"events"`
	Secret    *string           `json:"secret,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
	Active    bool              `json:"active"`
	CreatedAt time.Time         `json:"created_at"`
}

// WantsEvent reports whether the subscription should receive the given event.
func (s *WebhookSubscription) WantsEvent(event string) bool {
	if !s.Active {
		return false
	}
	for _, e := range s.Events {
		if e == event {
			return true
		}
	}
	return false
}

type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "pending"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusFailed    DeliveryStatus = "failed"
	DeliveryStatusRetrying  DeliveryStatus = "retrying"
)

// maxResponseBody caps the stored subscriber response body.
const maxResponseBody = 1000

// WebhookDelivery is the audit record for one delivery attempt chain:
// one row per webhook per triggering event, updated as attempts resolve.
//
// Status transitions: pending -> {delivered, failed, retrying};
// delivered is terminal; retrying implies NextRetryAt is set and
// Attempts < MaxAttempts at the time it was set.
type WebhookDelivery struct {
	ID             string          `json:"id"`
	WebhookID      string          `json:"webhook_id"`
	NotificationID *string         `json:"notification_id,omitempty"`
	Event          string          `json:"event"`
	Payload        json.RawMessage `json:"payload"`
	Status         DeliveryStatus  `json:"status"`
	StatusCode     *int            `json:"status_code,omitempty"`
	ResponseBody   *string         `json:"response_body,omitempty"`
	Attempts       int             `json:"attempts"`
	MaxAttempts    int             `json:"max_attempts"`
	SentAt         *time.Time      `json:"sent_at,omitempty"`
	DeliveredAt    *time.Time      `json:"delivered_at,omitempty"`
	NextRetryAt    *time.Time      `json:"next_retry_at,omitempty"`
	Error          *string         `json:"error,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// CanRetry reports whether another attempt is permitted.
func (d *WebhookDelivery) CanRetry() bool {
	return d.Attempts < d.MaxAttempts
}

// MarkDelivered records a successful attempt. Delivered is terminal.
func (d *WebhookDelivery) MarkDelivered(statusCode int, body string, now time.Time) {
	d.Status = DeliveryStatusDelivered
	d.StatusCode = &statusCode
	d.setResponseBody(body)
	d.SentAt = &now
	d.DeliveredAt = &now
	d.NextRetryAt = nil
	d.Error = nil
}

// MarkRetrying records a failed attempt that will be retried at nextRetry.
// Callers must check CanRetry first; the attempt counter is not incremented
// here (the sweeper's claim query does that when the row is picked up again).
func (d *WebhookDelivery) MarkRetrying(nextRetry time.Time, errMsg string, now time.Time) {
	d.Status = DeliveryStatusRetrying
	d.NextRetryAt = &nextRetry
	d.Error = &errMsg
	d.SentAt = &now
}

// MarkFailed records a permanently failed attempt.
func (d *WebhookDelivery) MarkFailed(errMsg string, now time.Time) {
	d.Status = DeliveryStatusFailed
	d.NextRetryAt = nil
	d.Error = &errMsg
	d.SentAt = &now
}

// RecordResponse stores the HTTP outcome of a non-successful attempt.
func (d *WebhookDelivery) RecordResponse(statusCode int, body string) {
	d.StatusCode = &statusCode
	d.setResponseBody(body)
}

func (d *WebhookDelivery) setResponseBody(body string) {
	if body == "" {
		return
	}
	if len(body) > maxResponseBody {
		body = body[:maxResponseBody]
	}
	d.ResponseBody = &body
}
