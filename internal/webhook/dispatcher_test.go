package webhook

import (
	"context"
	"crypto/hmac"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/clock"
	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/domain"
)

// mockWebhookRepo is an in-memory WebhookRepository safe for the
// dispatcher's concurrent fan-out.
type mockWebhookRepo struct {
	mu         sync.Mutex
	subs       []*domain.WebhookSubscription
	deliveries map[string]*domain.WebhookDelivery

	subsErr error
}

func newMockWebhookRepo(subs ...*domain.WebhookSubscription) *mockWebhookRepo {
	return &mockWebhookRepo{
		subs:       subs,
		deliveries: make(map[string]*domain.WebhookDelivery),
	}
}

func (m *mockWebhookRepo) CreateSubscription(ctx context.Context, s *domain.WebhookSubscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, s)
	return nil
}

func (m *mockWebhookRepo) GetSubscription(ctx context.Context, tenantID, id string) (*domain.WebhookSubscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subs {
		if s.ID == id && s.TenantID == tenantID {
			return s, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockWebhookRepo) ListSubscriptions(ctx context.Context, tenantID string) ([]*domain.WebhookSubscription, error) {
	return m.subs, nil
}

func (m *mockWebhookRepo) UpdateSubscription(ctx context.Context, s *domain.WebhookSubscription) error {
	return nil
}

func (m *mockWebhookRepo) DeleteSubscription(ctx context.Context, tenantID, id string) error {
	return nil
}

func (m *mockWebhookRepo) SubscriptionsForEvent(ctx context.Context, tenantID, event string) ([]*domain.WebhookSubscription, error) {
	if m.subsErr != nil {
		return nil, m.subsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.WebhookSubscription
	for _, s := range m.subs {
		if s.TenantID == tenantID && s.WantsEvent(event) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockWebhookRepo) CreateDelivery(ctx context.Context, d *domain.WebhookDelivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.deliveries[d.ID] = &cp
	return nil
}

func (m *mockWebhookRepo) UpdateDelivery(ctx context.Context, d *domain.WebhookDelivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.deliveries[d.ID] = &cp
	return nil
}

func (m *mockWebhookRepo) ListDeliveries(ctx context.Context, tenantID, webhookID string, limit int) ([]*domain.WebhookDelivery, error) {
	return nil, nil
}

func (m *mockWebhookRepo) ClaimDueRetries(ctx context.Context, limit int) ([]*domain.WebhookDelivery, error) {
	return nil, nil
}

func (m *mockWebhookRepo) SubscriptionByDelivery(ctx context.Context, d *domain.WebhookDelivery) (*domain.WebhookSubscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subs {
		if s.ID == d.WebhookID {
			return s, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockWebhookRepo) deliveryForWebhook(webhookID string) *domain.WebhookDelivery {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.deliveries {
		if d.WebhookID == webhookID {
			return d
		}
	}
	return nil
}

func strPtr(s string) *string { return &s }

func newTestDispatcher(repo *mockWebhookRepo) *Dispatcher {
	clk := clock.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	return NewDispatcher(DefaultConfig(), repo, http.DefaultClient, clk, DefaultPolicy(), nil)
}

func TestDispatcher_Trigger_FanOut(t *testing.T) {
	okServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer okServer.Close()

	failServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failServer.Close()

	repo := newMockWebhookRepo(
		&domain.WebhookSubscription{ID: "wh_ok", TenantID: "tenant_1", URL: okServer.URL, Events: []string{"lease.ended"}, Active: true},
		&domain.WebhookSubscription{ID: "wh_fail", TenantID: "tenant_1", URL: failServer.URL, Events: []string{"lease.ended"}, Active: true},
		&domain.WebhookSubscription{ID: "wh_other", TenantID: "tenant_1", URL: okServer.URL, Events: []string{"unit.created"}, Active: true},
		&domain.WebhookSubscription{ID: "wh_inactive", TenantID: "tenant_1", URL: okServer.URL, Events: []string{"lease.ended"}, Active: false},
	)

	d := newTestDispatcher(repo)

	if err := d.Trigger(context.Background(), "tenant_1", "lease.ended", map[string]string{"lease_id": "lease_1"}); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}

	// Only the two active, matching subscriptions get delivery rows.
	if len(repo.deliveries) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(repo.deliveries))
	}

	ok := repo.deliveryForWebhook("wh_ok")
	if ok == nil || ok.Status != domain.DeliveryStatusDelivered {
		t.Errorf("wh_ok delivery = %+v, want delivered", ok)
	}

	failed := repo.deliveryForWebhook("wh_fail")
	if failed == nil {
		t.Fatal("wh_fail should have a delivery row")
	}
	if failed.Status != domain.DeliveryStatusRetrying {
		t.Errorf("wh_fail status = %q, want retrying (attempts remain)", failed.Status)
	}
	if failed.NextRetryAt == nil {
		t.Error("wh_fail should have a next retry time")
	}
	if failed.StatusCode == nil || *failed.StatusCode != http.StatusInternalServerError {
		t.Errorf("wh_fail status code = %v, want 500", failed.StatusCode)
	}
}

func TestDispatcher_Trigger_NoMatchesIsNoop(t *testing.T) {
	repo := newMockWebhookRepo()
	d := newTestDispatcher(repo)

	if err := d.Trigger(context.Background(), "tenant_1", "lease.ended", nil); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}
	if len(repo.deliveries) != 0 {
		t.Errorf("expected no deliveries, got %d", len(repo.deliveries))
	}
}

func TestDispatcher_Trigger_LookupErrorPropagates(t *testing.T) {
	repo := newMockWebhookRepo()
	repo.subsErr = errors.New("db down")
	d := newTestDispatcher(repo)

	if err := d.Trigger(context.Background(), "tenant_1", "lease.ended", nil); err == nil {
		t.Error("Trigger() should propagate subscription lookup errors")
	}
}

func TestDispatcher_RequestShape(t *testing.T) {
	var (
		mu      sync.Mutex
		headers http.Header
		body    []byte
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		headers = r.Header.Clone()
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sub := &domain.WebhookSubscription{
		ID:       "wh_1",
		TenantID: "tenant_1",
		URL:      server.URL,
		Events:   []string{"maintenance.created"},
		Secret:   strPtr("topsecret"),
		Headers:  map[string]string{"X-Custom": "yes", "User-Agent": "custom-agent"},
		Active:   true,
	}
	repo := newMockWebhookRepo(sub)
	d := newTestDispatcher(repo)

	if err := d.Trigger(context.Background(), "tenant_1", "maintenance.created", map[string]string{"id": "mr_1"}); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()

	if got := headers.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := headers.Get("X-Event-Type"); got != "maintenance.created" {
		t.Errorf("X-Event-Type = %q", got)
	}
	if got := headers.Get("X-Tenant-ID"); got != "tenant_1" {
		t.Errorf("X-Tenant-ID = %q", got)
	}
	if got := headers.Get("X-Delivery-ID"); got == "" {
		t.Error("X-Delivery-ID should be set")
	}
	if got := headers.Get("X-Custom"); got != "yes" {
		t.Errorf("X-Custom = %q, custom headers should pass through", got)
	}
	// Subscription headers win on collision.
	if got := headers.Get("User-Agent"); got != "custom-agent" {
		t.Errorf("User-Agent = %q, want subscription override", got)
	}

	// Signature verifies against the exact body bytes.
	sig := headers.Get("X-Webhook-Signature")
	if len(sig) < 8 || sig[:7] != "sha256=" {
		t.Fatalf("signature = %q, want sha256= prefix", sig)
	}
	if !hmac.Equal([]byte(sig[7:]), []byte(Sign(body, "topsecret"))) {
		t.Error("signature does not verify against payload")
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if payload["event"] != "maintenance.created" {
		t.Errorf("payload event = %v", payload["event"])
	}
	if payload["tenantId"] != "tenant_1" {
		t.Errorf("payload tenantId = %v", payload["tenantId"])
	}
	ts, _ := payload["timestamp"].(string)
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("payload timestamp %q is not RFC3339: %v", ts, err)
	}
	if _, ok := payload["data"]; !ok {
		t.Error("payload should carry data")
	}
}

func TestDispatcher_NoSignatureWithoutSecret(t *testing.T) {
	var (
		mu  sync.Mutex
		sig string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		sig = r.Header.Get("X-Webhook-Signature")
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	repo := newMockWebhookRepo(&domain.WebhookSubscription{
		ID: "wh_1", TenantID: "tenant_1", URL: server.URL,
		Events: []string{"lease.ended"}, Active: true,
	})
	d := newTestDispatcher(repo)

	if err := d.Trigger(context.Background(), "tenant_1", "lease.ended", nil); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if sig != "" {
		t.Errorf("signature = %q, want none without a secret", sig)
	}
}

func TestDispatcher_ExhaustedAttemptsFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	repo := newMockWebhookRepo(&domain.WebhookSubscription{
		ID: "wh_1", TenantID: "tenant_1", URL: server.URL,
		Events: []string{"lease.ended"}, Active: true,
	})

	clk := clock.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	policy := Policy{Base: time.Minute, MaxInterval: time.Hour, MaxAttempts: 1}
	d := NewDispatcher(DefaultConfig(), repo, http.DefaultClient, clk, policy, nil)

	if err := d.Trigger(context.Background(), "tenant_1", "lease.ended", nil); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}

	delivery := repo.deliveryForWebhook("wh_1")
	if delivery == nil {
		t.Fatal("delivery row missing")
	}
	if delivery.Status != domain.DeliveryStatusFailed {
		t.Errorf("status = %q, want failed with max attempts 1", delivery.Status)
	}
	if delivery.NextRetryAt != nil {
		t.Error("failed delivery must not carry a retry time")
	}
}

func TestDispatcher_ConnectionErrorSchedulesRetry(t *testing.T) {
	// A server that is immediately closed yields connection refused.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	repo := newMockWebhookRepo(&domain.WebhookSubscription{
		ID: "wh_1", TenantID: "tenant_1", URL: url,
		Events: []string{"lease.ended"}, Active: true,
	})
	d := newTestDispatcher(repo)

	if err := d.Trigger(context.Background(), "tenant_1", "lease.ended", nil); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}

	delivery := repo.deliveryForWebhook("wh_1")
	if delivery == nil {
		t.Fatal("delivery row missing")
	}
	if delivery.Status != domain.DeliveryStatusRetrying {
		t.Errorf("status = %q, want retrying", delivery.Status)
	}
	if delivery.Error == nil {
		t.Error("error message should be recorded")
	}
}
