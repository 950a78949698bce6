package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/domain"
)

type MaintenanceRepository struct {
	pool *pgxpool.Pool
}

func NewMaintenanceRepository(pool *pgxpool.Pool) *MaintenanceRepository {
	return &MaintenanceRepository{pool: pool}
}

func (r *MaintenanceRepository) Create(ctx context.Context, m *domain.MaintenanceRequest) error {
	const query = `
		INSERT INTO maintenance_requests (id, tenant_id, unit_id, title, details, priority, category, status, assigned_to, created_at, updated_at, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.pool.Exec(ctx, query,
		m.ID, m.TenantID, m.UnitID, m.Title, m.Details, m.Priority, m.Category,
		m.Status, m.AssignedTo, m.CreatedAt, m.UpdatedAt, m.ResolvedAt,
	)
	return err
}

func (r *MaintenanceRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.MaintenanceRequest, error) {
	const query = `
		SELECT id, tenant_id, unit_id, title, details, priority, category, status, assigned_to, created_at, updated_at, resolved_at
		FROM maintenance_requests
		WHERE tenant_id = $1 AND id = $2
	`

	var m domain.MaintenanceRequest
	err := r.pool.QueryRow(ctx, query, tenantID, id).Scan(
		&m.ID, &m.TenantID, &m.UnitID, &m.Title, &m.Details, &m.Priority, &m.Category,
		&m.Status, &m.AssignedTo, &m.CreatedAt, &m.UpdatedAt, &m.ResolvedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MaintenanceRepository) List(ctx context.Context, tenantID string) ([]*domain.MaintenanceRequest, error) {
	const query = `
		SELECT id, tenant_id, unit_id, title, details, priority, category, status, assigned_to, created_at, updated_at, resolved_at
		FROM maintenance_requests
		WHERE tenant_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []*domain.MaintenanceRequest
	for rows.Next() {
		var m domain.MaintenanceRequest
		err := rows.Scan(
			&m.ID, &m.TenantID, &m.UnitID, &m.Title, &m.Details, &m.Priority, &m.Category,
			&m.Status, &m.AssignedTo, &m.CreatedAt, &m.UpdatedAt, &m.ResolvedAt,
		)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, &m)
	}

	return reqs, rows.Err()
}

func (r *MaintenanceRepository) Update(ctx context.Context, m *domain.MaintenanceRequest) error {
	const query = `
		UPDATE maintenance_requests
		SET title = $3, details = $4, priority = $5, category = $6, status = $7,
		    assigned_to = $8, updated_at = $9, resolved_at = $10
		WHERE tenant_id = $1 AND id = $2
	`

	result, err := r.pool.Exec(ctx, query,
		m.TenantID, m.ID, m.Title, m.Details, m.Priority, m.Category, m.Status,
		m.AssignedTo, m.UpdatedAt, m.ResolvedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
