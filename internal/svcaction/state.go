package svcaction

import "fmt"

// State is a service lifecycle state as reported by the platform service
// manager. The set mirrors the Windows service control manager states; the
// systemd adapter maps unit states onto the same set.
type State int

const (
	// StateUnknown means the state could not be determined.
	StateUnknown State = iota
	// StateStopped means the service is loaded but not running.
	StateStopped
	// StateStartPending means a start was accepted but has not completed.
	StateStartPending
	// StateStopPending means a stop was accepted but has not completed.
	StateStopPending
	// StateRunning means the service is running.
	StateRunning
	// StateContinuePending means a resume was accepted but has not completed.
	StateContinuePending
	// StatePausePending means a pause was accepted but has not completed.
	StatePausePending
	// StatePaused means the service process exists but is suspended.
	StatePaused
)

// State string constants, used on the wire and in transcripts.
const (
	stateUnknownStr         = "unknown"
	stateStoppedStr         = "stopped"
	stateStartPendingStr    = "start-pending"
	stateStopPendingStr     = "stop-pending"
	stateRunningStr         = "running"
	stateContinuePendingStr = "continue-pending"
	statePausePendingStr    = "pause-pending"
	statePausedStr          = "paused"
)

// String returns the wire name of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return stateStoppedStr
	case StateStartPending:
		return stateStartPendingStr
	case StateStopPending:
		return stateStopPendingStr
	case StateRunning:
		return stateRunningStr
	case StateContinuePending:
		return stateContinuePendingStr
	case StatePausePending:
		return statePausePendingStr
	case StatePaused:
		return statePausedStr
	default:
		return stateUnknownStr
	}
}

// Pending reports whether the state is one of the transitional states. The
// engine never acts on a service observed in a pending state; a transition
// already in flight is not interrupted or duplicated.
func (s State) Pending() bool {
	switch s {
	case StateStartPending, StateStopPending, StateContinuePending, StatePausePending:
		return true
	default:
		return false
	}
}

// ParseState is the inverse of String. Unrecognized input is an error, not
// StateUnknown, so wire decoding cannot silently mask a protocol mismatch.
func ParseState(s string) (State, error) {
	switch s {
	case stateUnknownStr:
		return StateUnknown, nil
	case stateStoppedStr:
		return StateStopped, nil
	case stateStartPendingStr:
		return StateStartPending, nil
	case stateStopPendingStr:
		return StateStopPending, nil
	case stateRunningStr:
		return StateRunning, nil
	case stateContinuePendingStr:
		return StateContinuePending, nil
	case statePausePendingStr:
		return StatePausePending, nil
	case statePausedStr:
		return StatePaused, nil
	default:
		return StateUnknown, fmt.Errorf("svcaction: unknown state %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	parsed, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
