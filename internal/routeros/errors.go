package routeros

import (
	"errors"
	"fmt"
)

// ConnectionError means the device could not be reached or refused the
// login, or the connection broke mid-conversation.
type ConnectionError struct {
	Address string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("routeros: connect %s: %v", e.Address, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ResourceError means the device answered but rejected a command, for
// example an unknown item id or an invalid attribute value.
type ResourceError struct {
	Path    Path
	Command string
	Message string
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("routeros: %s%s: %s", e.Path, e.Command, e.Message)
}

// IsConnection reports whether err is, or wraps, a ConnectionError.
func IsConnection(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// IsResource reports whether err is, or wraps, a ResourceError.
func IsResource(err error) bool {
	var re *ResourceError
	return errors.As(err, &re)
}
