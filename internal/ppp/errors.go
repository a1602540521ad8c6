package ppp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/HerbHall/pppmirror/internal/routeros"
)

// Kind classifies why an operation failed.
type Kind string

const (
	// KindConnection: the device could not be reached or refused the login.
	// Nothing was written to the store.
	KindConnection Kind = "connection"
	// KindResource: the device rejected a command. Store writes made by
	// earlier steps of the operation remain.
	KindResource Kind = "resource"
	// KindStore: the database failed.
	KindStore Kind = "store"
	// KindNotFound: the device or the targeted secret does not exist.
	KindNotFound Kind = "not_found"
	// KindInvalid: the request cannot be carried out as given.
	KindInvalid Kind = "invalid"
	// KindBusy: the request ended while another operation held the device.
	// Nothing was attempted.
	KindBusy Kind = "busy"
)

// ErrDeviceNotFound is returned by a DeviceRegistry for an unknown device id.
var ErrDeviceNotFound = errors.New("device not found")

// Error is the error type returned by every Engine operation.
type Error struct {
	Kind     Kind
	Op       string // operation name, e.g. "sync_secrets"
	DeviceID string
	Key      string // natural key of the targeted entity, if any
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.DeviceID != "" {
		fmt.Fprintf(&b, " device=%s", e.DeviceID)
	}
	if e.Key != "" {
		fmt.Fprintf(&b, " name=%s", e.Key)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func storeErr(op, deviceID string, err error) error {
	return &Error{Kind: KindStore, Op: op, DeviceID: deviceID, Err: err}
}

// deviceErr classifies an error from the routeros layer.
func deviceErr(op, deviceID, key string, err error) error {
	kind := KindConnection
	if routeros.IsResource(err) {
		kind = KindResource
	}
	return &Error{Kind: kind, Op: op, DeviceID: deviceID, Key: key, Err: err}
}
