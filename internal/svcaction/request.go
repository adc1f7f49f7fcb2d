package svcaction

import (
	"os"
	"time"
)

// DefaultTimeout is the per-leg wait budget applied when a request does not
// set one. Each leg of a composite action gets the full budget; it is never
// shared across legs.
const DefaultTimeout = 5 * time.Second

// Request describes one lifecycle action against one service on one host.
type Request struct {
	// Service is the name or display label to resolve. Required.
	Service string
	// Action is the requested lifecycle action. Required.
	Action Action
	// Host identifies the target host. Empty means this host.
	Host string
	// Timeout bounds each individual wait-for-state, not the whole
	// action. Zero means DefaultTimeout; negative is invalid.
	Timeout time.Duration
	// ForceKill escalates a stop leg that missed its timeout to forceful
	// termination of the backing process.
	ForceKill bool
	// Initiator names who asked for the action. It is recorded on the
	// outcome and in transcripts, never inferred from the environment.
	Initiator string
}

// normalize validates the request and fills defaults in place. It is the
// only place Apply can fail with an error.
func (r *Request) normalize() error {
	if r.Service == "" {
		return &ValidationError{Field: "service", Reason: "service name is required"}
	}
	action, err := ParseAction(string(r.Action))
	if err != nil {
		return err
	}
	// Keep the canonical form so "Stop" plans the same legs as "stop".
	r.Action = action
	if r.Timeout < 0 {
		return &ValidationError{Field: "timeout", Reason: "must be positive"}
	}
	if r.Timeout == 0 {
		r.Timeout = DefaultTimeout
	}
	if r.Host == "" {
		if hostname, err := os.Hostname(); err == nil {
			r.Host = hostname
		}
	}
	return nil
}
