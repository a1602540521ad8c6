package models

import "time"

// CustomerStatus is the billing state of a subscriber.
type CustomerStatus string

const (
	CustomerStatusActive CustomerStatus = "ACTIVE"
	CustomerStatusIsolir CustomerStatus = "ISOLIR" // service suspended, account disabled on the device
)

// ConnectionTypePPPoE is the connection type recorded for customers derived
// from PPP secrets.
const ConnectionTypePPPoE = "PPPOE"

// DefaultProfileName is the label RouterOS reports when a secret has no
// explicit profile.
const DefaultProfileName = "default"

// Profile mirrors one /ppp/profile entry of a device.
type Profile struct {
	ID            string    `json:"id"`
	DeviceID      string    `json:"device_id"`
	NativeID      string    `json:"native_id" example:"*1"`
	Name          string    `json:"name" example:"10M"`
	LocalAddress  string    `json:"local_address" example:"10.0.0.1"`
	RemoteAddress string    `json:"remote_address" example:"pool-10m"`
	RateLimit     string    `json:"rate_limit" example:"10M/10M"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Secret mirrors one /ppp/secret entry of a device. Profile is the label the
// device uses, not a reference to a Profile row.
type Secret struct {
	ID            string    `json:"id"`
	DeviceID      string    `json:"device_id"`
	NativeID      string    `json:"native_id" example:"*A"`
	Name          string    `json:"name" example:"alice"`
	Profile       string    `json:"profile" example:"10M"`
	LocalAddress  string    `json:"local_address"`
	RemoteAddress string    `json:"remote_address" example:"10.20.0.15"`
	Comment       string    `json:"comment" example:"Alice Putri"`
	Disabled      bool      `json:"disabled"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Customer is the durable subscriber record derived from a Secret. It is
// created once per (DeviceID, Username) and afterwards only its status,
// address and profile link change.
type Customer struct {
	ID             string         `json:"id"`
	DeviceID       string         `json:"device_id"`
	Name           string         `json:"name" example:"Alice Putri"`
	Username       string         `json:"username" example:"alice"`
	ConnectionType string         `json:"connection_type" example:"PPPOE"`
	ProfileID      *string        `json:"profile_id"`
	ServicePrice   int64          `json:"service_price"`
	DueDate        int            `json:"due_date"`
	Status         CustomerStatus `json:"status" example:"ACTIVE"`
	IPAddress      string         `json:"ip_address" example:"10.20.0.15"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// ActiveSession is a live PPP connection reported by /ppp/active.
type ActiveSession struct {
	ID       string `json:"id" example:"*80000012"`
	Name     string `json:"name" example:"alice"`
	Service  string `json:"service" example:"pppoe"`
	CallerID string `json:"caller_id" example:"AA:BB:CC:DD:EE:FF"`
	Address  string `json:"address" example:"10.20.0.15"`
	Uptime   string `json:"uptime" example:"3d4h12m"`
}

// SystemStatus is the reshaped /system/resource and /system/identity view.
type SystemStatus struct {
	Identity    string `json:"identity" example:"pop-north"`
	Uptime      string `json:"uptime" example:"12w3d"`
	CPULoad     string `json:"cpu_load" example:"7"`
	FreeMemory  string `json:"free_memory" example:"104857600"`
	TotalMemory string `json:"total_memory" example:"268435456"`
	Version     string `json:"version" example:"7.14.2 (stable)"`
	BoardName   string `json:"board_name" example:"CCR2004-1G-12S+2XS"`
}
