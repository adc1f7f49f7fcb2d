package svcaction

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the service could not be resolved on the given
// host. Ports map a missing service, an unreachable host, and a permission
// failure all to this sentinel; the engine treats the three identically as
// "cannot act on this service".
var ErrNotFound = errors.New("svcaction: service not found")

// ErrUnsupported indicates the host's service manager has no rendering
// for the requested verb (rc.d cannot pause). The engine records it as a
// diagnostic like any other transition failure.
var ErrUnsupported = errors.New("svcaction: verb not supported by this service manager")

// ValidationError reports a malformed request. It is the only error Apply
// returns; it is always surfaced before any service interaction.
type ValidationError struct {
	// Field is the request field that failed validation
	Field string
	// Reason describes the constraint that was violated
	Reason string
}

// Error returns the formatted validation message.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}

// ControlError wraps a failed control port call with the operation and
// target that failed. The engine records it as an outcome diagnostic and
// continues; it never aborts a multi-leg action.
type ControlError struct {
	// Op is the operation that failed
	Op Op
	// Service is the service the operation targeted
	Service string
	// Host is the host the operation was sent to
	Host string
	// Err is the underlying error
	Err error
}

// Error returns a formatted error message.
func (e *ControlError) Error() string {
	return fmt.Sprintf("%s %s on %s: %v", e.Op, e.Service, e.Host, e.Err)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *ControlError) Unwrap() error {
	return e.Err
}
