package repository

import (
	"context"

	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/domain"
)

// All lookups are tenant-scoped: a row belonging to another tenant is
// indistinguishable from a missing row (domain.ErrNotFound).

type PropertyRepository interface {
	Create(ctx context.Context, p *domain.Property) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.Property, error)
	List(ctx context.Context, tenantID string) ([]*domain.Property, error)
	Update(ctx context.Context, p *domain.Property) error
	Delete(ctx context.Context, tenantID, id string) error
}

type UnitRepository interface {
	Create(ctx context.Context, u *domain.Unit) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.Unit, error)
	ListByProperty(ctx context.Context, tenantID, propertyID string) ([]*domain.Unit, error)
	Update(ctx context.Context, u *domain.Unit) error
	Delete(ctx context.Context, tenantID, id string) error
}

type LeaseRepository interface {
	Create(ctx context.Context, l *domain.Lease) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.Lease, error)
	List(ctx context.Context, tenantID string) ([]*domain.Lease, error)
	Update(ctx context.Context, l *domain.Lease) error
}

type MaintenanceRepository interface {
	Create(ctx context.Context, m *domain.MaintenanceRequest) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.MaintenanceRequest, error)
	List(ctx context.Context, tenantID string) ([]*domain.MaintenanceRequest, error)
	Update(ctx context.Context, m *domain.MaintenanceRequest) error
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.Notification, error)
	List(ctx context.Context, tenantID string, limit int) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, tenantID, id string) error
}

type WebhookRepository interface {
	CreateSubscription(ctx context.Context, s *domain.WebhookSubscription) error
	GetSubscription(ctx context.Context, tenantID, id string) (*domain.WebhookSubscription, error)
	ListSubscriptions(ctx context.Context, tenantID string) ([]*domain.WebhookSubscription, error)
	UpdateSubscription(ctx context.Context, s *domain.WebhookSubscription) error
	DeleteSubscription(ctx context.Context, tenantID, id string) error

	// SubscriptionsForEvent returns active subscriptions of the tenant whose
	// event list contains event.
	SubscriptionsForEvent(ctx context.Context, tenantID, event string) ([]*domain.WebhookSubscription, error)

	CreateDelivery(ctx context.Context, d *domain.WebhookDelivery) error
	UpdateDelivery(ctx context.Context, d *domain.WebhookDelivery) error
	ListDeliveries(ctx context.Context, tenantID, webhookID string, limit int) ([]*domain.WebhookDelivery, error)

	// ClaimDueRetries atomically claims retrying deliveries whose
	// next_retry_at has passed, so multiple sweeper instances never pick
	// up the same row.
	ClaimDueRetries(ctx context.Context, limit int) ([]*domain.WebhookDelivery, error)

	// SubscriptionByDelivery loads the owning subscription for a claimed
	// delivery regardless of tenant (the sweeper runs tenant-agnostic).
	SubscriptionByDelivery(ctx context.Context, d *domain.WebhookDelivery) (*domain.WebhookSubscription, error)
}
