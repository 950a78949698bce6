package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/domain"
)

type LeaseRepository struct {
	pool *pgxpool.Pool
}

func NewLeaseRepository(pool *pgxpool.Pool) *LeaseRepository {
	return &LeaseRepository{pool: pool}
}

func (r *LeaseRepository) Create(ctx context.Context, l *domain.Lease) error {
	const query = `
		INSERT INTO leases (id, tenant_id, unit_id, resident_name, resident_email, starts_on, ends_on, rent_cents, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		l.ID, l.TenantID, l.UnitID, l.ResidentName, l.ResidentEmail,
		l.StartsOn, l.EndsOn, l.RentCents, l.Status, l.CreatedAt, l.UpdatedAt,
	)
	return err
}

func (r *LeaseRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Lease, error) {
	const query = `
		SELECT id, tenant_id, unit_id, resident_name, resident_email, starts_on, ends_on, rent_cents, status, created_at, updated_at
		FROM leases
		WHERE tenant_id = $1 AND id = $2
	`

	var l domain.Lease
	err := r.pool.QueryRow(ctx, query, tenantID, id).Scan(
		&l.ID, &l.TenantID, &l.UnitID, &l.ResidentName, &l.ResidentEmail,
		&l.StartsOn, &l.EndsOn, &l.RentCents, &l.Status, &l.CreatedAt, &l.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LeaseRepository) List(ctx context.Context, tenantID string) ([]*domain.Lease, error) {
	const query = `
		SELECT id, tenant_id, unit_id, resident_name, resident_email, starts_on, ends_on, rent_cents, status, created_at, updated_at
		FROM leases
		WHERE tenant_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leases []*domain.Lease
	for rows.Next() {
		var l domain.Lease
		err := rows.Scan(
			&l.ID, &l.TenantID, &l.UnitID, &l.ResidentName, &l.ResidentEmail,
			&l.StartsOn, &l.EndsOn, &l.RentCents, &l.Status, &l.CreatedAt, &l.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		leases = append(leases, &l)
	}

	return leases, rows.Err()
}

func (r *LeaseRepository) Update(ctx context.Context, l *domain.Lease) error {
	const query = `
		UPDATE leases
		SET resident_name = $3, resident_email = $4, starts_on = $5, ends_on = $6,
		    rent_cents = $7, status = $8, updated_at = $9
		WHERE tenant_id = $1 AND id = $2
	`

	result, err := r.pool.Exec(ctx, query,
		l.TenantID, l.ID, l.ResidentName, l.ResidentEmail, l.StartsOn, l.EndsOn,
		l.RentCents, l.Status, l.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
