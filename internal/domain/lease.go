package domain

import "time"

type LeaseStatus string

const (
	LeaseStatusActive     LeaseStatus = "active"
	LeaseStatusEnded      LeaseStatus = "ended"
	LeaseStatusTerminated LeaseStatus = "terminated"
)

// Lease ties a resident to a unit for a period of time.
type Lease struct {
	ID            string      `json:"id"`
	TenantID      string      `json:"tenant_id"`
	UnitID        string      `json:"unit_id"`
	ResidentName  string      `json:"resident_name"`
	ResidentEmail string      `json:"resident_email"`
	StartsOn      time.Time   `json:"starts_on"`
	EndsOn        *time.Time  `json:"ends_on,omitempty"`
	RentCents     int64       `json:"rent_cents"`
	Status        LeaseStatus `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// End marks the lease as ended. Ended and terminated are terminal states.
func (l *Lease) End(now time.Time) error {
	if l.Status != LeaseStatusActive {
		return ErrInvalidTransition
	}
	l.Status = LeaseStatusEnded
	l.EndsOn = &now
	l.UpdatedAt = now
	return nil
}

// Terminate marks the lease as terminated early.
func (l *Lease) Terminate(now time.Time) error {
	if l.Status != LeaseStatusActive {
		return ErrInvalidTransition
	}
	l.Status = LeaseStatusTerminated
	l.EndsOn = &now
	l.UpdatedAt = now
	return nil
}
