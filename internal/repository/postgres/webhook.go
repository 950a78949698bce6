package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/domain"
)

type WebhookRepository struct {
	pool *pgxpool.Pool
}

func NewWebhookRepository(pool *pgxpool.Pool) *WebhookRepository {
	return &WebhookRepository{pool: pool}
}

func (r *WebhookRepository) CreateSubscription(ctx context.Context, s *domain.WebhookSubscription) error {
	const query = `
		INSERT INTO webhook_subscriptions (id, tenant_id, url, events, secret, headers, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		s.ID, s.TenantID, s.URL, s.Events, s.Secret, s.Headers, s.Active, s.CreatedAt,
	)
	return err
}

const subscriptionColumns = `id, tenant_id, url, events, secret, headers, active, created_at`

func scanSubscription(row pgx.Row) (*domain.WebhookSubscription, error) {
	var s domain.WebhookSubscription
	err := row.Scan(&s.ID, &s.TenantID, &s.URL, &s.Events, &s.Secret, &s.Headers, &s.Active, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *WebhookRepository) GetSubscription(ctx context.Context, tenantID, id string) (*domain.WebhookSubscription, error) {
	const query = `
		SELECT ` + subscriptionColumns + `
		FROM webhook_subscriptions
		WHERE tenant_id = $1 AND id = $2
	`

	return scanSubscription(r.pool.QueryRow(ctx, query, tenantID, id))
}

func (r *WebhookRepository) ListSubscriptions(ctx context.Context, tenantID string) ([]*domain.WebhookSubscription, error) {
	const query = `
		SELECT ` + subscriptionColumns + `
		FROM webhook_subscriptions
		WHERE tenant_id = $1
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*domain.WebhookSubscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}

	return subs, rows.Err()
}

func (r *WebhookRepository) UpdateSubscription(ctx context.Context, s *domain.WebhookSubscription) error {
	const query = `
		UPDATE webhook_subscriptions
		SET url = $3, events = $4, secret = $5, headers = $6, active = $7
		WHERE tenant_id = $1 AND id = $2
	`

	result, err := r.pool.Exec(ctx, query,
		s.TenantID, s.ID, s.URL, s.Events, s.Secret, s.Headers, s.Active,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *WebhookRepository) DeleteSubscription(ctx context.Context, tenantID, id string) error {
	const query = `
		UPDATE webhook_subscriptions
		SET active = FALSE
		WHERE tenant_id = $1 AND id = $2
	`

	result, err := r.pool.Exec(ctx, query, tenantID, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *WebhookRepository) SubscriptionsForEvent(ctx context.Context, tenantID, event string) ([]*domain.WebhookSubscription, error) {
	const query = `
		SELECT ` + subscriptionColumns + `
		FROM webhook_subscriptions
		WHERE tenant_id = $1 AND active = TRUE AND $2 = ANY(events)
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, tenantID, event)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*domain.WebhookSubscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}

	return subs, rows.Err()
}

const deliveryColumns = `id, webhook_id, notification_id, event, payload, status, status_code, response_body,
	       attempts, max_attempts, sent_at, delivered_at, next_retry_at, error, created_at`

func scanDelivery(row pgx.Row) (*domain.WebhookDelivery, error) {
	var d domain.WebhookDelivery
	err := row.Scan(
		&d.ID, &d.WebhookID, &d.NotificationID, &d.Event, &d.Payload, &d.Status,
		&d.StatusCode, &d.ResponseBody, &d.Attempts, &d.MaxAttempts,
		&d.SentAt, &d.DeliveredAt, &d.NextRetryAt, &d.Error, &d.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *WebhookRepository) CreateDelivery(ctx context.Context, d *domain.WebhookDelivery) error {
	const query = `
		INSERT INTO webhook_deliveries (id, webhook_id, notification_id, event, payload, status, status_code, response_body, attempts, max_attempts, sent_at, delivered_at, next_retry_at, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.pool.Exec(ctx, query,
		d.ID, d.WebhookID, d.NotificationID, d.Event, d.Payload, d.Status,
		d.StatusCode, d.ResponseBody, d.Attempts, d.MaxAttempts,
		d.SentAt, d.DeliveredAt, d.NextRetryAt, d.Error, d.CreatedAt,
	)
	return err
}

func (r *WebhookRepository) UpdateDelivery(ctx context.Context, d *domain.WebhookDelivery) error {
	const query = `
		UPDATE webhook_deliveries
		SET status = $2, status_code = $3, response_body = $4, attempts = $5,
		    sent_at = $6, delivered_at = $7, next_retry_at = $8, error = $9
		WHERE id = $1
	`

	_, err := r.pool.Exec(ctx, query,
		d.ID, d.Status, d.StatusCode, d.ResponseBody, d.Attempts,
		d.SentAt, d.DeliveredAt, d.NextRetryAt, d.Error,
	)
	return err
}

func (r *WebhookRepository) ListDeliveries(ctx context.Context, tenantID, webhookID string, limit int) ([]*domain.WebhookDelivery, error) {
	const query = `
		SELECT d.id, d.webhook_id, d.notification_id, d.event, d.payload, d.status, d.status_code, d.response_body,
		       d.attempts, d.max_attempts, d.sent_at, d.delivered_at, d.next_retry_at, d.error, d.created_at
		FROM webhook_deliveries d
		JOIN webhook_subscriptions s ON s.id = d.webhook_id
		WHERE s.tenant_id = $1 AND d.webhook_id = $2
		ORDER BY d.created_at DESC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, tenantID, webhookID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deliveries []*domain.WebhookDelivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}

	return deliveries, rows.Err()
}

// ClaimDueRetries flips due retrying rows back to pending and returns them.
// FOR UPDATE SKIP LOCKED keeps concurrent sweeper instances from claiming
// the same delivery twice.
func (r *WebhookRepository) ClaimDueRetries(ctx context.Context, limit int) ([]*domain.WebhookDelivery, error) {
	const query = `
		UPDATE webhook_deliveries
		SET status = 'pending', attempts = attempts + 1
		WHERE id IN (
			SELECT id FROM webhook_deliveries
			WHERE status = 'retrying'
			AND next_retry_at IS NOT NULL AND next_retry_at <= NOW()
			ORDER BY next_retry_at
			FOR UPDATE SKIP LOCKED
			LIMIT $1
		)
		RETURNING ` + deliveryColumns + `
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deliveries []*domain.WebhookDelivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}

	return deliveries, rows.Err()
}

func (r *WebhookRepository) SubscriptionByDelivery(ctx context.Context, d *domain.WebhookDelivery) (*domain.WebhookSubscription, error) {
	const query = `
		SELECT ` + subscriptionColumns + `
		FROM webhook_subscriptions
		WHERE id = $1
	`

	return scanSubscription(r.pool.QueryRow(ctx, query, d.WebhookID))
}
