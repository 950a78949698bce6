// Package postgres implements the repository interfaces on pgx.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/domain"
)

type PropertyRepository struct {
	pool *pgxpool.Pool
}

func NewPropertyRepository(pool *pgxpool.Pool) *PropertyRepository {
	return &PropertyRepository{pool: pool}
}

func (r *PropertyRepository) Create(ctx context.Context, p *domain.Property) error {
	const query = `
		INSERT INTO properties (id, tenant_id, name, address, city, zip, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.TenantID, p.Name, p.Address, p.City, p.Zip, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (r *PropertyRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Property, error) {
	const query = `
		SELECT id, tenant_id, name, address, city, zip, created_at, updated_at
		FROM properties
		WHERE tenant_id = $1 AND id = $2
	`

	var p domain.Property
	err := r.pool.QueryRow(ctx, query, tenantID, id).Scan(
		&p.ID, &p.TenantID, &p.Name, &p.Address, &p.City, &p.Zip, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PropertyRepository) List(ctx context.Context, tenantID string) ([]*domain.Property, error) {
	const query = `
		SELECT id, tenant_id, name, address, city, zip, created_at, updated_at
		FROM properties
		WHERE tenant_id = $1
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var props []*domain.Property
	for rows.Next() {
		var p domain.Property
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &p.Address, &p.City, &p.Zip, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		props = append(props, &p)
	}

	return props, rows.Err()
}

func (r *PropertyRepository) Update(ctx context.Context, p *domain.Property) error {
	const query = `
		UPDATE properties
		SET name = $3, address = $4, city = $5, zip = $6, updated_at = $7
		WHERE tenant_id = $1 AND id = $2
	`

	result, err := r.pool.Exec(ctx, query,
		p.TenantID, p.ID, p.Name, p.Address, p.City, p.Zip, p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PropertyRepository) Delete(ctx context.Context, tenantID, id string) error {
	const query = `DELETE FROM properties WHERE tenant_id = $1 AND id = $2`

	result, err := r.pool.Exec(ctx, query, tenantID, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type UnitRepository struct {
	pool *pgxpool.Pool
}

func NewUnitRepository(pool *pgxpool.Pool) *UnitRepository {
	return &UnitRepository{pool: pool}
}

func (r *UnitRepository) Create(ctx context.Context, u *domain.Unit) error {
	const query = `
		INSERT INTO units (id, tenant_id, property_id, label, floor, bedrooms, rent_cents, occupied, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		u.ID, u.TenantID, u.PropertyID, u.Label, u.Floor, u.Bedrooms, u.RentCents, u.Occupied, u.CreatedAt, u.UpdatedAt,
	)
	return err
}

func (r *UnitRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Unit, error) {
	const query = `
		SELECT id, tenant_id, property_id, label, floor, bedrooms, rent_cents, occupied, created_at, updated_at
		FROM units
		WHERE tenant_id = $1 AND id = $2
	`

	var u domain.Unit
	err := r.pool.QueryRow(ctx, query, tenantID, id).Scan(
		&u.ID, &u.TenantID, &u.PropertyID, &u.Label, &u.Floor, &u.Bedrooms, &u.RentCents, &u.Occupied, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UnitRepository) ListByProperty(ctx context.Context, tenantID, propertyID string) ([]*domain.Unit, error) {
	const query = `
		SELECT id, tenant_id, property_id, label, floor, bedrooms, rent_cents, occupied, created_at, updated_at
		FROM units
		WHERE tenant_id = $1 AND property_id = $2
		ORDER BY label
	`

	rows, err := r.pool.Query(ctx, query, tenantID, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []*domain.Unit
	for rows.Next() {
		var u domain.Unit
		if err := rows.Scan(&u.ID, &u.TenantID, &u.PropertyID, &u.Label, &u.Floor, &u.Bedrooms, &u.RentCents, &u.Occupied, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		units = append(units, &u)
	}

	return units, rows.Err()
}

func (r *UnitRepository) Update(ctx context.Context, u *domain.Unit) error {
	const query = `
		UPDATE units
		SET label = $3, floor = $4, bedrooms = $5, rent_cents = $6, occupied = $7, updated_at = $8
		WHERE tenant_id = $1 AND id = $2
	`

	result, err := r.pool.Exec(ctx, query,
		u.TenantID, u.ID, u.Label, u.Floor, u.Bedrooms, u.RentCents, u.Occupied, u.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UnitRepository) Delete(ctx context.Context, tenantID, id string) error {
	const query = `DELETE FROM units WHERE tenant_id = $1 AND id = $2`

	result, err := r.pool.Exec(ctx, query, tenantID, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
