package svcaction

import "time"

// Outcome reports where a request left the service. A failed transition is
// not an error at this level: the outcome carries the diagnostics and the
// state the service was last observed in.
type Outcome struct {
	// InvocationID correlates the outcome with its transcript lines.
	InvocationID string `json:"invocation_id"`
	// Host is the host the action ran against.
	Host string `json:"host"`
	// Service is the stable service name.
	Service string `json:"service"`
	// DisplayName is the resolved human-readable label, when known.
	DisplayName string `json:"display_name,omitempty"`
	// Action echoes the requested action.
	Action Action `json:"action"`
	// Initiator echoes the request's initiator, when one was given.
	Initiator string `json:"initiator,omitempty"`
	// FinalState is the last state observed for the service.
	FinalState State `json:"final_state"`
	// NotFound marks a service that could not be resolved on the host.
	NotFound bool `json:"not_found,omitempty"`
	// Diagnostic accumulates everything that went wrong along the way,
	// oldest first, joined with "; ". Empty on a clean run.
	Diagnostic string `json:"diagnostic,omitempty"`
	// Elapsed is the wall time Apply spent on the request.
	Elapsed time.Duration `json:"elapsed"`
}

// addDiagnostic appends a message to the outcome's diagnostic trail.
func (o *Outcome) addDiagnostic(msg string) {
	if o.Diagnostic == "" {
		o.Diagnostic = msg
		return
	}
	o.Diagnostic += "; " + msg
}

// Satisfied reports whether the request ended with no service resolution
// failure and no recorded diagnostics.
func (o *Outcome) Satisfied() bool {
	return !o.NotFound && o.Diagnostic == ""
}
