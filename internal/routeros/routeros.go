// Package routeros talks to MikroTik RouterOS devices over the API protocol.
//
// A Session is a connection to one device exposing the handful of menu
// paths pppmirror needs as generic record collections. Client wraps a
// Session and decodes those records into pppmirror models.
package routeros

import (
	"context"
	"net"
	"strconv"
)

// DefaultPort is the plain-text RouterOS API port.
const DefaultPort = 8728

// Path names a RouterOS menu holding a collection of records.
type Path string

const (
	PathProfile  Path = "/ppp/profile"
	PathSecret   Path = "/ppp/secret"
	PathActive   Path = "/ppp/active"
	PathResource Path = "/system/resource"
	PathIdentity Path = "/system/identity"
)

// Record is one item as returned by the device, keyed by RouterOS attribute
// name (".id", "name", "local-address", ...).
type Record map[string]string

// Target identifies a device and the credentials to log in with.
type Target struct {
	Address  string
	Port     int
	Username string
	Password string //nolint:gosec // G101: credential carried to dial
}

// HostPort returns address:port, defaulting the port to 8728.
func (t Target) HostPort() string {
	port := t.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(t.Address, strconv.Itoa(port))
}

// Dialer opens sessions to devices.
type Dialer interface {
	Dial(ctx context.Context, target Target) (Session, error)
}

// Session is an authenticated connection to a single device. Sessions are
// not safe for concurrent use.
type Session interface {
	List(ctx context.Context, path Path) ([]Record, error)
	Find(ctx context.Context, path Path, filter map[string]string) ([]Record, error)
	Add(ctx context.Context, path Path, fields map[string]string) (string, error)
	Update(ctx context.Context, path Path, id string, fields map[string]string) error
	Remove(ctx context.Context, path Path, id string) error
	Close() error
}
