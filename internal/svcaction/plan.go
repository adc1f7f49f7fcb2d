package svcaction

// Op is a single transition request the engine can issue through the
// control port.
type Op int

const (
	// OpNone issues nothing.
	OpNone Op = iota
	// OpStart requests a start.
	OpStart
	// OpStop requests a graceful stop.
	OpStop
	// OpPause requests a suspend.
	OpPause
	// OpResume requests a resume.
	OpResume
)

// String returns the control verb for the operation.
func (op Op) String() string {
	switch op {
	case OpStart:
		return "start"
	case OpStop:
		return "stop"
	case OpPause:
		return "pause"
	case OpResume:
		return "resume"
	default:
		return "none"
	}
}

// Leg is one atomic transition within an action: issue Op, then wait for
// Target. Each leg gets the request's full timeout for its wait.
type Leg struct {
	Op     Op
	Target State
}

// plan is the decision table mapping (state observed before any action,
// requested action) to the ordered transition legs that satisfy the action.
// An empty plan means there is nothing to issue: the action is already
// satisfied, or the state is pending/unknown and the engine must not act.
//
// Composite plans exist because the control surface only accepts
// transitions from specific source states: a paused service cannot be
// stopped directly, it must come back to running first.
func plan(current State, action Action) []Leg {
	switch action {
	case ActionStart:
		switch current {
		case StateStopped:
			return []Leg{{OpStart, StateRunning}}
		case StatePaused:
			return []Leg{{OpResume, StateRunning}}
		}
	case ActionStop:
		switch current {
		case StateRunning:
			return []Leg{{OpStop, StateStopped}}
		case StatePaused:
			return []Leg{{OpResume, StateRunning}, {OpStop, StateStopped}}
		}
	case ActionRestart:
		switch current {
		case StateRunning:
			return []Leg{{OpStop, StateStopped}, {OpStart, StateRunning}}
		case StatePaused:
			return []Leg{{OpResume, StateRunning}, {OpStop, StateStopped}, {OpStart, StateRunning}}
		case StateStopped:
			return []Leg{{OpStart, StateRunning}}
		}
	case ActionPause:
		if current == StateRunning {
			return []Leg{{OpPause, StatePaused}}
		}
	case ActionResume:
		switch current {
		case StatePaused:
			return []Leg{{OpResume, StateRunning}}
		case StateStopped:
			return []Leg{{OpStart, StateRunning}}
		}
	}
	return nil
}
