package webhook

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/clock"
	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/domain"
)

// sweepRepo wraps mockWebhookRepo with a scripted claim result and an
// optional scripted subscription lookup failure.
type sweepRepo struct {
	*mockWebhookRepo
	claimed   []*domain.WebhookDelivery
	lookupErr error
}

func (r *sweepRepo) ClaimDueRetries(ctx context.Context, limit int) ([]*domain.WebhookDelivery, error) {
	out := r.claimed
	r.claimed = nil
	return out, nil
}

func (r *sweepRepo) SubscriptionByDelivery(ctx context.Context, d *domain.WebhookDelivery) (*domain.WebhookSubscription, error) {
	if r.lookupErr != nil {
		return nil, r.lookupErr
	}
	return r.mockWebhookRepo.SubscriptionByDelivery(ctx, d)
}

func TestSweeper_RedeliverSucceeds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sub := &domain.WebhookSubscription{
		ID: "wh_1", TenantID: "tenant_1", URL: server.URL,
		Events: []string{"lease.ended"}, Active: true,
	}

	// Claimed rows arrive with the attempt counter already incremented.
	delivery := &domain.WebhookDelivery{
		ID:          "del_1",
		WebhookID:   "wh_1",
		Event:       "lease.ended",
		Payload:     []byte(`{"event":"lease.ended"}`),
		Status:      domain.DeliveryStatusPending,
		Attempts:    2,
		MaxAttempts: 3,
	}

	repo := &sweepRepo{
		mockWebhookRepo: newMockWebhookRepo(sub),
		claimed:         []*domain.WebhookDelivery{delivery},
	}

	clk := clock.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	dispatcher := NewDispatcher(DefaultConfig(), repo, http.DefaultClient, clk, DefaultPolicy(), nil)
	sweeper := NewSweeper(repo, dispatcher, SweeperConfig{Interval: time.Hour, BatchSize: 10}, nil)

	sweeper.sweep(context.Background())
	sweeper.wg.Wait()

	updated := repo.deliveryForWebhook("wh_1")
	if updated == nil {
		t.Fatal("delivery should have been updated")
	}
	if updated.Status != domain.DeliveryStatusDelivered {
		t.Errorf("status = %q, want delivered", updated.Status)
	}
}

func TestSweeper_FinalAttemptFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	sub := &domain.WebhookSubscription{
		ID: "wh_1", TenantID: "tenant_1", URL: server.URL,
		Events: []string{"lease.ended"}, Active: true,
	}
	delivery := &domain.WebhookDelivery{
		ID:          "del_1",
		WebhookID:   "wh_1",
		Event:       "lease.ended",
		Payload:     []byte(`{}`),
		Status:      domain.DeliveryStatusPending,
		Attempts:    3,
		MaxAttempts: 3,
	}

	repo := &sweepRepo{
		mockWebhookRepo: newMockWebhookRepo(sub),
		claimed:         []*domain.WebhookDelivery{delivery},
	}

	clk := clock.NewMockClock(time.Now())
	dispatcher := NewDispatcher(DefaultConfig(), repo, http.DefaultClient, clk, DefaultPolicy(), nil)
	sweeper := NewSweeper(repo, dispatcher, DefaultSweeperConfig(), nil)

	sweeper.sweep(context.Background())
	sweeper.wg.Wait()

	updated := repo.deliveryForWebhook("wh_1")
	if updated == nil || updated.Status != domain.DeliveryStatusFailed {
		t.Errorf("delivery = %+v, want failed after final attempt", updated)
	}
}

func TestSweeper_OrphanedDeliveryFails(t *testing.T) {
	delivery := &domain.WebhookDelivery{
		ID:          "del_1",
		WebhookID:   "wh_gone",
		Event:       "lease.ended",
		Payload:     []byte(`{}`),
		Status:      domain.DeliveryStatusPending,
		Attempts:    2,
		MaxAttempts: 3,
	}

	repo := &sweepRepo{
		mockWebhookRepo: newMockWebhookRepo(),
		claimed:         []*domain.WebhookDelivery{delivery},
	}

	clk := clock.NewMockClock(time.Now())
	dispatcher := NewDispatcher(DefaultConfig(), repo, http.DefaultClient, clk, DefaultPolicy(), nil)
	sweeper := NewSweeper(repo, dispatcher, DefaultSweeperConfig(), nil)

	sweeper.sweep(context.Background())
	sweeper.wg.Wait()

	updated := repo.deliveryForWebhook("wh_gone")
	if updated == nil {
		t.Fatal("orphaned delivery should have been updated")
	}
	if updated.Status != domain.DeliveryStatusFailed {
		t.Errorf("status = %q, want failed", updated.Status)
	}
	if updated.Error == nil || *updated.Error != "subscription no longer exists" {
		t.Errorf("error = %v, want subscription no longer exists", updated.Error)
	}
}

func TestSweeper_LookupErrorParksDelivery(t *testing.T) {
	delivery := &domain.WebhookDelivery{
		ID:          "del_1",
		WebhookID:   "wh_1",
		Event:       "lease.ended",
		Payload:     []byte(`{}`),
		Status:      domain.DeliveryStatusPending,
		Attempts:    2,
		MaxAttempts: 3,
	}

	repo := &sweepRepo{
		mockWebhookRepo: newMockWebhookRepo(),
		claimed:         []*domain.WebhookDelivery{delivery},
		lookupErr:       errors.New("connection refused"),
	}

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewMockClock(start)
	dispatcher := NewDispatcher(DefaultConfig(), repo, http.DefaultClient, clk, DefaultPolicy(), nil)
	interval := 30 * time.Second
	sweeper := NewSweeper(repo, dispatcher, SweeperConfig{Interval: interval, BatchSize: 10}, nil)

	sweeper.sweep(context.Background())
	sweeper.wg.Wait()

	updated := repo.deliveryForWebhook("wh_1")
	if updated == nil {
		t.Fatal("delivery should have been parked for a later sweep")
	}
	if updated.Status != domain.DeliveryStatusRetrying {
		t.Errorf("status = %q, want retrying while attempts remain", updated.Status)
	}
	if updated.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", updated.Attempts)
	}
	if updated.NextRetryAt == nil || !updated.NextRetryAt.Equal(start.Add(interval)) {
		t.Errorf("next retry = %v, want %v", updated.NextRetryAt, start.Add(interval))
	}
	if updated.Error == nil || *updated.Error != "subscription lookup failed: connection refused" {
		t.Errorf("error = %v, want lookup failure message", updated.Error)
	}
}

func TestSweeper_StartStop(t *testing.T) {
	repo := &sweepRepo{mockWebhookRepo: newMockWebhookRepo()}
	clk := clock.NewMockClock(time.Now())
	dispatcher := NewDispatcher(DefaultConfig(), repo, http.DefaultClient, clk, DefaultPolicy(), nil)
	sweeper := NewSweeper(repo, dispatcher, SweeperConfig{Interval: 10 * time.Millisecond, BatchSize: 10}, nil)

	done := make(chan struct{})
	go func() {
		sweeper.Start(context.Background())
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	sweeper.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
