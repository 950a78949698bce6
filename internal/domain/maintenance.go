package domain

import "time"

// Priority of a maintenance request.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// ValidPriority reports whether p is one of the known priorities.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Category of a maintenance request.
type Category string

const (
	CategoryPlumbing    Category = "Plumbing"
	CategoryElectrical  Category = "Electrical"
	CategoryHVAC        Category = "HVAC"
	CategoryAppliance   Category = "Appliance"
	CategoryStructural  Category = "Structural"
	CategoryPestControl Category = "Pest Control"
	CategoryOther       Category = "Other"
)

// ValidCategory reports whether c is one of the known categories.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryPlumbing, CategoryElectrical, CategoryHVAC, CategoryAppliance,
		CategoryStructural, CategoryPestControl, CategoryOther:
		return true
	}
	return false
}

type MaintenanceStatus string

const (
	MaintenanceStatusOpen       MaintenanceStatus = "open"
	MaintenanceStatusInProgress MaintenanceStatus = "in_progress"
	MaintenanceStatusResolved   MaintenanceStatus = "resolved"
	MaintenanceStatusCancelled  MaintenanceStatus = "cancelled"
)

// MaintenanceRequest is an issue reported against a unit (or the property at
// large when UnitID is nil). Priority and category are assigned by triage at
// creation unless the reporter supplied both explicitly.
type MaintenanceRequest struct {
	ID         string            `json:"id"`
	TenantID   string            `json:"tenant_id"`
	UnitID     *string           `json:"unit_id,omitempty"`
	Title      string            `json:"title"`
	Details    string            `json:"details"`
	Priority   Priority          `json:"priority"`
	Category   Category          `json:"category"`
	Status     MaintenanceStatus `json:"status"`
	AssignedTo *string           `json:"assigned_to,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	ResolvedAt *time.Time        `json:"resolved_at,omitempty"`
}

// Assign hands the request to a worker and moves it to in_progress.
func (m *MaintenanceRequest) Assign(workerID string, now time.Time) error {
	if m.Status == MaintenanceStatusResolved || m.Status == MaintenanceStatusCancelled {
		return ErrInvalidTransition
	}
	m.AssignedTo = &workerID
	m.Status = MaintenanceStatusInProgress
	m.UpdatedAt = now
	return nil
}

// Resolve closes the request.
func (m *MaintenanceRequest) Resolve(now time.Time) error {
	if m.Status == MaintenanceStatusResolved || m.Status == MaintenanceStatusCancelled {
		return ErrInvalidTransition
	}
	m.Status = MaintenanceStatusResolved
	m.ResolvedAt = &now
	m.UpdatedAt = now
	return nil
}

// Cancel withdraws an open or in-progress request.
func (m *MaintenanceRequest) Cancel(now time.Time) error {
	if m.Status == MaintenanceStatusResolved || m.Status == MaintenanceStatusCancelled {
		return ErrInvalidTransition
	}
	m.Status = MaintenanceStatusCancelled
	m.UpdatedAt = now
	return nil
}
