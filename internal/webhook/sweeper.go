package webhook

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/domain"
	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/repository"
)

// SweeperConfig holds configuration for the retry sweeper.
type SweeperConfig struct {
	// Interval is how often to check for due retries.
	Interval time.Duration
	// BatchSize is the maximum number of deliveries to claim per sweep.
	BatchSize int
}

// DefaultSweeperConfig returns sensible defaults.
func DefaultSweeperConfig() SweeperConfig {
	return SweeperConfig{
		Interval:  time.Minute,
		BatchSize: 100,
	}
}

// Sweeper re-delivers webhook deliveries parked in retrying state.
//
// Nothing retries implicitly: the sweep only runs where a Sweeper is
// started (cmd/sweeper), at an operator-configured interval. Claiming uses
// FOR UPDATE SKIP LOCKED so several instances can run side by side.
type Sweeper struct {
	config     SweeperConfig
	repo       repository.WebhookRepository
	dispatcher *Dispatcher
	logger     *slog.Logger

	wg     sync.WaitGroup
	stopCh chan struct{}
}

// NewSweeper creates a retry sweeper.
func NewSweeper(repo repository.WebhookRepository, dispatcher *Dispatcher, config SweeperConfig, logger *slog.Logger) *Sweeper {
	if config.Interval == 0 {
		config.Interval = time.Minute
	}
	if config.BatchSize == 0 {
		config.BatchSize = 100
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Sweeper{
		config:     config,
		repo:       repo,
		dispatcher: dispatcher,
		logger:     logger,
		stopCh:     make(chan struct{}),
	}
}

// Start begins sweeping. Blocks until Stop is called or ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("webhook retry sweeper started",
		"interval", s.config.Interval,
		"batch_size", s.config.BatchSize,
	)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// Sweep immediately on start, then on interval.
	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("webhook retry sweeper stopping", "reason", "context cancelled")
			return
		case <-s.stopCh:
			s.logger.Info("webhook retry sweeper stopping", "reason", "stop signal")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// Stop signals the sweeper to stop and waits for in-flight work.
func (s *Sweeper) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *Sweeper) sweep(ctx context.Context) {
	deliveries, err := s.repo.ClaimDueRetries(ctx, s.config.BatchSize)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Error("failed to claim due retries", "error", err)
		}
		return
	}
	if len(deliveries) == 0 {
		return
	}

	s.logger.Debug("claimed deliveries for retry", "count", len(deliveries))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.redeliver(ctx, deliveries)
	}()
}

func (s *Sweeper) redeliver(ctx context.Context, deliveries []*domain.WebhookDelivery) {
	for _, delivery := range deliveries {
		if ctx.Err() != nil {
			return
		}

		sub, err := s.repo.SubscriptionByDelivery(ctx, delivery)
		if errors.Is(err, domain.ErrNotFound) {
			// Subscription deleted out from under the delivery.
			delivery.MarkFailed("subscription no longer exists", s.dispatcher.clock.Now())
			if updateErr := s.repo.UpdateDelivery(ctx, delivery); updateErr != nil {
				s.logger.Error("failed to update orphaned delivery", "error", updateErr, "delivery_id", delivery.ID)
			}
			continue
		}
		if err != nil {
			// Lookup failed on infrastructure, not because the subscription
			// is gone. Park the row so a later sweep claims it again.
			now := s.dispatcher.clock.Now()
			delivery.MarkRetrying(now.Add(s.config.Interval), "subscription lookup failed: "+err.Error(), now)
			if updateErr := s.repo.UpdateDelivery(ctx, delivery); updateErr != nil {
				s.logger.Error("failed to park delivery after lookup failure", "error", updateErr, "delivery_id", delivery.ID)
			}
			s.logger.Warn("subscription lookup failed", "error", err, "delivery_id", delivery.ID)
			continue
		}

		s.dispatcher.Attempt(ctx, delivery, sub)
	}
}
