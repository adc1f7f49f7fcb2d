package svcaction

import (
	"fmt"
	"strings"
)

// Action is a requested lifecycle action. The set is closed: anything else
// is rejected during validation, before any service interaction.
type Action string

const (
	// ActionStart brings the service to running.
	ActionStart Action = "start"
	// ActionStop brings the service to stopped, optionally force-killing
	// the backing process when a graceful stop times out.
	ActionStop Action = "stop"
	// ActionRestart stops then starts the service.
	ActionRestart Action = "restart"
	// ActionPause suspends a running service.
	ActionPause Action = "pause"
	// ActionResume takes a paused service back to running, or starts a
	// stopped one.
	ActionResume Action = "resume"
)

// Actions lists the closed action set in display order.
func Actions() []Action {
	return []Action{ActionStart, ActionStop, ActionRestart, ActionPause, ActionResume}
}

// ParseAction resolves user input to an Action, case-insensitively.
func ParseAction(s string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case ActionStart:
		return ActionStart, nil
	case ActionStop:
		return ActionStop, nil
	case ActionRestart:
		return ActionRestart, nil
	case ActionPause:
		return ActionPause, nil
	case ActionResume:
		return ActionResume, nil
	default:
		return "", &ValidationError{Field: "action", Reason: fmt.Sprintf("must be one of start, stop, restart, pause, resume (got %q)", s)}
	}
}
