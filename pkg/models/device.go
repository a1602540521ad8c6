package models

import "time"

// DeviceStatus is the last observed reachability of an access concentrator.
type DeviceStatus string

const (
	DeviceStatusOnline  DeviceStatus = "online"
	DeviceStatusOffline DeviceStatus = "offline"
	DeviceStatusUnknown DeviceStatus = "unknown"
)

// DefaultAPIPort is the RouterOS API (plaintext) port.
const DefaultAPIPort = 8728

// Device is a managed RouterOS access concentrator. Rows are provisioned
// through the device registry; the reconciliation engine only updates
// Status and LastSync.
type Device struct {
	ID        string       `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name      string       `json:"name" example:"pop-north"`
	Address   string       `json:"address" example:"10.10.0.1"`
	Port      int          `json:"port" example:"8728"`
	Username  string       `json:"username" example:"api-sync"`
	Password  string       `json:"-"`
	Status    DeviceStatus `json:"status" example:"online"`
	LastSync  *time.Time   `json:"last_sync,omitempty" example:"2026-01-15T10:30:00Z"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
