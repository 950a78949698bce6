package domain

import (
	"encoding/json"
	"time"
)

// Notification is an in-app message addressed to a tenant organization.
// Creating one is also the trigger point for webhook fan-out.
type Notification struct {
	ID        string          `json:"id"`
	TenantID  string          `json:"tenant_id"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data,omitempty"`
	Read      bool            `json:"read"`
	CreatedAt time.Time       `json:"created_at"`
}
