package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/clock"
	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/domain"
	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/observability"
	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/repository"
	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/resilience"
)

// HTTPClient abstracts HTTP operations for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

const userAgent = "minipm-webhooks/1.0"

// Config defines dispatcher parameters.
type Config struct {
	// Timeout bounds each outbound POST.
	Timeout time.Duration
	// ThrottleDelay is how long a delivery waits when the rate limiter or
	// circuit breaker rejects it before the wire was ever touched.
	ThrottleDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		Timeout:       30 * time.Second,
		ThrottleDelay: 30 * time.Second,
	}
}

// Payload is the wire format subscribers receive.
type Payload struct {
	Event     string `json:"event"`
	TenantID  string `json:"tenantId"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data"`
}

// Dispatcher fans a tenant event out to every matching subscription.
//
// Trigger is best-effort by design: per-subscription failures are recorded
// in the delivery row and swallowed so one bad endpoint never blocks the
// others or the caller's primary operation. Only the subscription lookup
// error propagates.
type Dispatcher struct {
	config     Config
	repo       repository.WebhookRepository
	httpClient HTTPClient
	clock      clock.Clock
	policy     Policy
	logger     *slog.Logger
	metrics    *observability.Metrics

	rateLimiter    resilience.RateLimiter
	circuitBreaker resilience.CircuitBreaker
}

// NewDispatcher creates a dispatcher with the given dependencies.
// Use WithMetrics and WithResilience to add optional features.
func NewDispatcher(
	config Config,
	repo repository.WebhookRepository,
	httpClient HTTPClient,
	clk clock.Clock,
	policy Policy,
	logger *slog.Logger,
) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Dispatcher{
		config:     config,
		repo:       repo,
		httpClient: httpClient,
		clock:      clk,
		policy:     policy,
		logger:     logger,
	}
}

// WithMetrics enables Prometheus metrics collection.
func (d *Dispatcher) WithMetrics(m *observability.Metrics) *Dispatcher {
	d.metrics = m
	return d
}

// WithResilience enables per-endpoint rate limiting and circuit breaking
// ahead of each outbound POST.
func (d *Dispatcher) WithResilience(rl resilience.RateLimiter, cb resilience.CircuitBreaker) *Dispatcher {
	d.rateLimiter = rl
	d.circuitBreaker = cb
	return d
}

// Trigger delivers the event to all matching subscriptions of the tenant
// and waits for every attempt to settle. Zero matches is a no-op.
func (d *Dispatcher) Trigger(ctx context.Context, tenantID, event string, data any) error {
	return d.trigger(ctx, tenantID, event, data, nil)
}

// TriggerForNotification is Trigger with the originating notification
// attached to each delivery row.
func (d *Dispatcher) TriggerForNotification(ctx context.Context, tenantID, event string, data any, notificationID string) error {
	return d.trigger(ctx, tenantID, event, data, &notificationID)
}

func (d *Dispatcher) trigger(ctx context.Context, tenantID, event string, data any, notificationID *string) error {
	subs, err := d.repo.SubscriptionsForEvent(ctx, tenantID, event)
	if err != nil {
		return fmt.Errorf("lookup subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return nil
	}

	payload, err := json.Marshal(Payload{
		Event:     event,
		TenantID:  tenantID,
		Timestamp: d.clock.Now().UTC().Format(time.RFC3339),
		Data:      data,
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	// Settle-all fan-out: each subscription gets its own goroutine and its
	// own delivery row; outcomes are independent.
	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(sub *domain.WebhookSubscription) {
			defer wg.Done()
			d.deliver(ctx, sub, event, tenantID, payload, notificationID)
		}(sub)
	}
	wg.Wait()

	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, sub *domain.WebhookSubscription, event, tenantID string, payload []byte, notificationID *string) {
	delivery := &domain.WebhookDelivery{
		ID:             uuid.NewString(),
		WebhookID:      sub.ID,
		NotificationID: notificationID,
		Event:          event,
		Payload:        payload,
		Status:         domain.DeliveryStatusPending,
		Attempts:       1,
		MaxAttempts:    d.policy.MaxAttempts,
		CreatedAt:      d.clock.Now(),
	}

	if err := d.repo.CreateDelivery(ctx, delivery); err != nil {
		d.logger.Error("failed to create delivery record",
			"error", err,
			"webhook_id", sub.ID,
			"event", event,
		)
		return
	}

	d.Attempt(ctx, delivery, sub)
}

// Attempt performs one HTTP delivery attempt and persists the outcome.
// It is shared by the inline fan-out and the retry sweeper; the delivery
// row's attempt counter is expected to already reflect this attempt.
func (d *Dispatcher) Attempt(ctx context.Context, delivery *domain.WebhookDelivery, sub *domain.WebhookSubscription) {
	if d.rateLimiter != nil {
		allowed, rlErr := d.rateLimiter.Allow(ctx, sub.ID)
		if rlErr != nil {
			d.logger.Warn("rate limiter error", "error", rlErr, "webhook_id", sub.ID)
		}
		if !allowed {
			d.recordThrottle(ctx, delivery, "rate limited")
			return
		}
	}

	if d.circuitBreaker != nil {
		allowed, cbErr := d.circuitBreaker.Allow(ctx, sub.ID)
		if cbErr != nil {
			d.logger.Warn("circuit breaker error", "error", cbErr, "webhook_id", sub.ID)
		}
		if !allowed {
			d.recordThrottle(ctx, delivery, "circuit breaker open")
			return
		}
	}

	start := d.clock.Now()
	resp, err := d.post(ctx, delivery, sub)
	duration := d.clock.Now().Sub(start)
	if d.metrics != nil {
		d.metrics.WebhookDeliveryDuration.Observe(duration.Seconds())
	}

	now := d.clock.Now()

	if err != nil {
		if d.circuitBreaker != nil {
			d.circuitBreaker.RecordFailure(ctx, sub.ID)
		}
		d.recordFailure(ctx, delivery, err.Error(), now)
		return
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if d.circuitBreaker != nil {
			d.circuitBreaker.RecordSuccess(ctx, sub.ID)
		}
		delivery.MarkDelivered(resp.StatusCode, string(body), now)
		d.updateDelivery(ctx, delivery)
		if d.metrics != nil {
			d.metrics.WebhookDeliveriesDelivered.Inc()
		}
		d.logger.Debug("webhook delivered",
			"delivery_id", delivery.ID,
			"webhook_id", sub.ID,
			"status_code", resp.StatusCode,
			"duration_ms", duration.Milliseconds(),
		)
		return
	}

	if d.circuitBreaker != nil {
		d.circuitBreaker.RecordFailure(ctx, sub.ID)
	}
	delivery.RecordResponse(resp.StatusCode, string(body))
	d.recordFailure(ctx, delivery, fmt.Sprintf("delivery failed with status %d", resp.StatusCode), now)
}

func (d *Dispatcher) post(ctx context.Context, delivery *domain.WebhookDelivery, sub *domain.WebhookSubscription) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.URL, bytes.NewReader(delivery.Payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Event-Type", delivery.Event)
	req.Header.Set("X-Tenant-ID", sub.TenantID)
	req.Header.Set("X-Delivery-ID", delivery.ID)

	if sub.Secret != nil && *sub.Secret != "" {
		req.Header.Set("X-Webhook-Signature", "sha256="+Sign(delivery.Payload, *sub.Secret))
	}

	// Subscription headers win on collision.
	for k, v := range sub.Headers {
		req.Header.Set(k, v)
	}

	return d.httpClient.Do(req)
}

// Sign computes the hex HMAC-SHA256 of payload under secret, the value
// subscribers verify against the X-Webhook-Signature header.
func Sign(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

func (d *Dispatcher) recordFailure(ctx context.Context, delivery *domain.WebhookDelivery, errMsg string, now time.Time) {
	if delivery.CanRetry() {
		next := d.policy.NextRetryAt(now, delivery.Attempts)
		delivery.MarkRetrying(next, errMsg, now)
		if d.metrics != nil {
			d.metrics.WebhookDeliveriesRetrying.Inc()
		}
		d.logger.Info("webhook delivery scheduled for retry",
			"delivery_id", delivery.ID,
			"attempt", delivery.Attempts,
			"next_retry_at", next,
			"error", errMsg,
		)
	} else {
		delivery.MarkFailed(errMsg, now)
		if d.metrics != nil {
			d.metrics.WebhookDeliveriesFailed.Inc()
		}
		d.logger.Warn("webhook delivery failed permanently",
			"delivery_id", delivery.ID,
			"attempts", delivery.Attempts,
			"error", errMsg,
		)
	}

	d.updateDelivery(ctx, delivery)
}

// recordThrottle parks the delivery for a short, non-exponential delay;
// backpressure is not a delivery failure.
func (d *Dispatcher) recordThrottle(ctx context.Context, delivery *domain.WebhookDelivery, reason string) {
	now := d.clock.Now()
	if delivery.CanRetry() {
		delivery.MarkRetrying(now.Add(d.config.ThrottleDelay), reason, now)
	} else {
		delivery.MarkFailed(reason, now)
	}
	d.updateDelivery(ctx, delivery)
	d.logger.Debug("webhook delivery throttled", "delivery_id", delivery.ID, "reason", reason)
}

func (d *Dispatcher) updateDelivery(ctx context.Context, delivery *domain.WebhookDelivery) {
	if err := d.repo.UpdateDelivery(ctx, delivery); err != nil {
		d.logger.Error("failed to update delivery record", "error", err, "delivery_id", delivery.ID)
	}
}
