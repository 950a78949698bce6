package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/domain"
)

type NotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	const query = `
		INSERT INTO notifications (id, tenant_id, type, title, message, data, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		n.ID, n.TenantID, n.Type, n.Title, n.Message, n.Data, n.Read, n.CreatedAt,
	)
	return err
}

func (r *NotificationRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Notification, error) {
	const query = `
		SELECT id, tenant_id, type, title, message, data, read, created_at
		FROM notifications
		WHERE tenant_id = $1 AND id = $2
	`

	var n domain.Notification
	err := r.pool.QueryRow(ctx, query, tenantID, id).Scan(
		&n.ID, &n.TenantID, &n.Type, &n.Title, &n.Message, &n.Data, &n.Read, &n.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *NotificationRepository) List(ctx context.Context, tenantID string, limit int) ([]*domain.Notification, error) {
	const query = `
		SELECT id, tenant_id, type, title, message, data, read, created_at
		FROM notifications
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifs []*domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.TenantID, &n.Type, &n.Title, &n.Message, &n.Data, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifs = append(notifs, &n)
	}

	return notifs, rows.Err()
}

func (r *NotificationRepository) MarkRead(ctx context.Context, tenantID, id string) error {
	const query = `UPDATE notifications SET read = TRUE WHERE tenant_id = $1 AND id = $2`

	result, err := r.pool.Exec(ctx, query, tenantID, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
