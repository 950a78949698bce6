// Package notify creates in-app notifications and fans them out to
// webhook subscribers.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/clock"
	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/domain"
	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/observability"
	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/repository"
)

// Dispatcher delivers an event to webhook subscribers. Satisfied by
// webhook.Dispatcher.
type Dispatcher interface {
	TriggerForNotification(ctx context.Context, tenantID, event string, data any, notificationID string) error
}

// Service persists notifications and triggers webhook delivery for each
// one. Webhook failures never fail the notification itself.
type Service struct {
	repo       repository.NotificationRepository
	dispatcher Dispatcher
	clock      clock.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
}

func NewService(repo repository.NotificationRepository, dispatcher Dispatcher, clk clock.Clock, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		repo:       repo,
		dispatcher: dispatcher,
		clock:      clk,
		logger:     logger,
	}
}

// WithMetrics enables Prometheus metrics collection.
func (s *Service) WithMetrics(m *observability.Metrics) *Service {
	s.metrics = m
	return s
}

// Create stores the notification and fans it out to webhook subscribers
// of the notification's type. The returned notification has its ID and
// CreatedAt populated.
func (s *Service) Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	if n.TenantID == "" || n.Type == "" || n.Title == "" {
		return nil, fmt.Errorf("%w: tenant_id, type and title are required", domain.ErrInvalidInput)
	}

	n.ID = uuid.NewString()
	n.Read = false
	n.CreatedAt = s.clock.Now()

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	if s.metrics != nil {
		s.metrics.NotificationsCreated.Inc()
	}

	if s.dispatcher != nil {
		var data any
		if len(n.Data) > 0 {
			data = json.RawMessage(n.Data)
		} else {
			data = n
		}
		// Best-effort: delivery problems are logged, never surfaced.
		if err := s.dispatcher.TriggerForNotification(ctx, n.TenantID, n.Type, data, n.ID); err != nil {
			s.logger.Error("webhook fan-out failed",
				"error", err,
				"notification_id", n.ID,
				"event", n.Type,
			)
		}
	}

	return n, nil
}

// Emit builds and creates a notification for a domain event. data is
// marshaled into the notification's payload.
func (s *Service) Emit(ctx context.Context, tenantID, eventType, title, message string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("failed to marshal event data", "error", err, "event", eventType)
		return
	}

	if _, err := s.Create(ctx, &domain.Notification{
		TenantID: tenantID,
		Type:     eventType,
		Title:    title,
		Message:  message,
		Data:     raw,
	}); err != nil {
		s.logger.Error("failed to create event notification", "error", err, "event", eventType)
	}
}
