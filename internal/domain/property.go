package domain

import "time"

// Property is a building or site managed by a tenant organization.
type Property struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	Zip       string    `json:"zip"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Unit is a rentable unit inside a property.
type Unit struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	PropertyID string    `json:"property_id"`
	Label      string    `json:"label"`
	Floor      int       `json:"floor"`
	Bedrooms   int       `json:"bedrooms"`
	RentCents  int64     `json:"rent_cents"`
	Occupied   bool      `json:"occupied"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
