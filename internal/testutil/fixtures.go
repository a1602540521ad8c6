package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/HerbHall/pppmirror/internal/routeros"
	"github.com/HerbHall/pppmirror/pkg/models"
)

// NewDevice returns a Device with sensible defaults, suitable for test fixtures.
// Override individual fields after creation as needed.
func NewDevice(opts ...func(*models.Device)) models.Device {
	now := time.Now().UTC()
	d := models.Device{
		ID:        uuid.New().String(),
		Name:      "pop-north",
		Address:   "192.0.2.1",
		Port:      models.DefaultAPIPort,
		Username:  "api",
		Password:  "secret",
		Status:    models.DeviceStatusUnknown,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// WithDeviceName sets the device name.
func WithDeviceName(name string) func(*models.Device) {
	return func(d *models.Device) { d.Name = name }
}

// WithAddress sets the device address and API port.
func WithAddress(addr string, port int) func(*models.Device) {
	return func(d *models.Device) {
		d.Address = addr
		d.Port = port
	}
}

// WithStatus sets the device status.
func WithStatus(s models.DeviceStatus) func(*models.Device) {
	return func(d *models.Device) { d.Status = s }
}

// ProfileRecord builds a /ppp/profile record as the device reports it.
func ProfileRecord(name, localAddr, remoteAddr, rateLimit string) routeros.Record {
	return routeros.Record{
		"name":           name,
		"local-address":  localAddr,
		"remote-address": remoteAddr,
		"rate-limit":     rateLimit,
	}
}

// SecretRecord builds a /ppp/secret record. Attribute overrides are
// applied last, e.g. SecretRecord("alice", "10M", "10.0.0.2", "comment", "Alice").
func SecretRecord(name, profile, remoteAddr string, kv ...string) routeros.Record {
	r := routeros.Record{
		"name":           name,
		"profile":        profile,
		"remote-address": remoteAddr,
		"service":        "pppoe",
		"disabled":       "false",
	}
	for i := 0; i+1 < len(kv); i += 2 {
		r[kv[i]] = kv[i+1]
	}
	return r
}

// ActiveRecord builds a /ppp/active record.
func ActiveRecord(name, address, callerID string) routeros.Record {
	return routeros.Record{
		"name":      name,
		"service":   "pppoe",
		"caller-id": callerID,
		"address":   address,
		"uptime":    "1h2m3s",
	}
}
