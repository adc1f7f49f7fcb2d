package svcaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const (
	// DefaultPollInterval is how often wait-for-state re-inspects the
	// service while a transition is settling.
	DefaultPollInterval = 300 * time.Millisecond

	// The force-kill fallback polls for process absence once per second
	// for at most 60 iterations. The ceiling is independent of the
	// request timeout and not configurable.
	killPollInterval = time.Second
	killPollBudget   = 60
)

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the engine's clock. Tests inject a fake clock so the
// wait and kill loops run without wall-clock delay.
func WithClock(clock clockwork.Clock) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithPollInterval overrides how often wait-for-state re-inspects.
func WithPollInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.poll = d
		}
	}
}

// Engine executes action requests. One Apply call processes one
// (host, service) pair sequentially end to end; the engine holds no state
// between invocations and may be shared across goroutines as long as
// callers serialize requests that target the same pair.
type Engine struct {
	ports     PortResolver
	inspector *Inspector
	clock     clockwork.Clock
	poll      time.Duration
	logger    *zap.Logger
}

// NewEngine creates an engine over the given port resolver.
func NewEngine(logger *zap.Logger, ports PortResolver, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		ports:     ports,
		inspector: NewInspector(logger, ports),
		clock:     clockwork.NewRealClock(),
		poll:      DefaultPollInterval,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply runs the state machine for one request and reports where it left
// the service. The returned error is non-nil only for invalid requests,
// surfaced before any service interaction; every later failure degrades to
// a diagnostic on the outcome.
func (e *Engine) Apply(ctx context.Context, req Request) (Outcome, error) {
	if err := req.normalize(); err != nil {
		return Outcome{}, err
	}

	started := e.clock.Now()
	out := Outcome{
		InvocationID: uuid.NewString(),
		Host:         req.Host,
		Service:      req.Service,
		Action:       req.Action,
		Initiator:    req.Initiator,
		FinalState:   StateUnknown,
	}
	finish := func() Outcome {
		out.Elapsed = e.clock.Since(started)
		return out
	}

	log := e.logger.With(
		zap.String("invocation_id", out.InvocationID),
		zap.String("service", req.Service),
		zap.String("host", req.Host),
		zap.String("action", string(req.Action)))
	if req.Initiator != "" {
		log = log.With(zap.String("initiator", req.Initiator))
	}

	control, process, err := e.ports.Resolve(req.Host)
	if err != nil {
		log.Warn("Host resolution failed", zap.Error(err))
		out.NotFound = true
		out.addDiagnostic(fmt.Sprintf("host %s: %v", req.Host, err))
		return finish(), nil
	}

	desc, err := e.inspector.Inspect(ctx, req.Service, req.Host)
	if err != nil {
		log.Warn("Service could not be inspected", zap.Error(err))
		out.NotFound = errors.Is(err, ErrNotFound)
		out.FinalState = desc.State
		out.addDiagnostic(err.Error())
		return finish(), nil
	}

	// From here on the outcome carries the resolved stable identity, not
	// whatever alias the request used.
	out.Service = desc.Name
	out.DisplayName = desc.DisplayName
	out.FinalState = desc.State

	log.Info("Observed service",
		zap.String("resolved_name", desc.Name),
		zap.String("state", desc.State.String()))

	// A transition already in flight is not interrupted or duplicated.
	if desc.State == StateUnknown || desc.State.Pending() {
		out.addDiagnostic(fmt.Sprintf("service is %s; no action taken", desc.State))
		log.Warn("No action taken", zap.String("state", desc.State.String()))
		return finish(), nil
	}

	legs := plan(desc.State, req.Action)
	if len(legs) == 0 {
		log.Info("Action already satisfied", zap.String("state", desc.State.String()))
		return finish(), nil
	}

	for _, leg := range legs {
		e.runLeg(ctx, log, control, process, req, leg, &out)
	}

	// One final observation so the outcome reports reality, not the last
	// wait's verdict.
	if final, err := e.inspector.Inspect(ctx, out.Service, out.Host); err == nil {
		out.FinalState = final.State
	} else {
		out.addDiagnostic(fmt.Sprintf("final inspection failed: %v", err))
		out.FinalState = StateUnknown
	}

	log.Info("Action complete",
		zap.String("final_state", out.FinalState.String()),
		zap.String("diagnostic", out.Diagnostic))
	return finish(), nil
}

// runLeg issues one transition and waits for its target state. A failed
// control call does not abort the leg: the call may have taken effect
// anyway, and the wait observes reality either way.
func (e *Engine) runLeg(ctx context.Context, log *zap.Logger, control ControlPort, process ProcessPort, req Request, leg Leg, out *Outcome) {
	log.Info("Issuing transition",
		zap.String("op", leg.Op.String()),
		zap.String("target", leg.Target.String()),
		zap.Duration("timeout", req.Timeout))

	if err := issue(ctx, control, leg.Op, out.Service); err != nil {
		cerr := &ControlError{Op: leg.Op, Service: out.Service, Host: out.Host, Err: err}
		log.Warn("Transition call failed", zap.Error(cerr))
		out.addDiagnostic(cerr.Error())
	}

	state, reached := e.waitForState(ctx, out.Service, out.Host, leg.Target, req.Timeout)
	out.FinalState = state
	if reached {
		log.Info("Reached target state", zap.String("state", state.String()))
		return
	}

	out.addDiagnostic(fmt.Sprintf("%s did not reach %s within %s (observed %s)",
		out.Service, leg.Target, req.Timeout, state))
	log.Warn("Timed out waiting for state",
		zap.String("target", leg.Target.String()),
		zap.String("observed", state.String()))

	if leg.Op == OpStop && leg.Target == StateStopped && req.ForceKill {
		e.forceKill(ctx, log, control, process, out)
		if desc, err := e.inspector.Inspect(ctx, out.Service, out.Host); err == nil {
			out.FinalState = desc.State
		}
	}
}

// waitForState blocks until the service reports target or budget elapses,
// whichever comes first. The current state is checked before the first
// sleep, so an already-satisfied target returns immediately.
func (e *Engine) waitForState(ctx context.Context, service, host string, target State, budget time.Duration) (State, bool) {
	deadline := e.clock.Now().Add(budget)
	last := StateUnknown
	for {
		if desc, err := e.inspector.Inspect(ctx, service, host); err == nil {
			last = desc.State
			if last == target {
				return last, true
			}
		}

		remaining := deadline.Sub(e.clock.Now())
		if remaining <= 0 {
			return last, false
		}
		interval := e.poll
		if interval > remaining {
			interval = remaining
		}
		if !e.sleep(ctx, interval) {
			return last, false
		}
	}
}

// forceKill escalates a stop leg that missed its timeout: look up the
// backing process, request termination, then poll for its absence. Nothing
// here fails the action; every failure becomes a diagnostic and the caller
// re-observes service state afterwards.
func (e *Engine) forceKill(ctx context.Context, log *zap.Logger, control ControlPort, process ProcessPort, out *Outcome) {
	pid, err := control.ProcessID(ctx, out.Service)
	if err != nil {
		out.addDiagnostic(fmt.Sprintf("force-kill: nothing to terminate (lookup failed: %v)", err))
		log.Warn("Force-kill process lookup failed", zap.Error(err))
		return
	}
	if pid <= 0 {
		out.addDiagnostic("force-kill: nothing to terminate")
		log.Info("Force-kill found no backing process")
		return
	}

	log.Warn("Force-killing service process", zap.Int32("pid", pid))
	if err := process.Terminate(ctx, pid); err != nil {
		out.addDiagnostic(fmt.Sprintf("force-kill: terminate pid %d: %v", pid, err))
		log.Warn("Terminate request failed", zap.Int32("pid", pid), zap.Error(err))
	}

	for i := 0; i < killPollBudget; i++ {
		if !e.sleep(ctx, killPollInterval) {
			return
		}
		alive, err := process.Alive(ctx, pid)
		if err != nil {
			continue
		}
		if !alive {
			log.Info("Process exited after force-kill",
				zap.Int32("pid", pid),
				zap.Int("polls", i+1))
			return
		}
	}

	out.addDiagnostic(fmt.Sprintf("force-kill: pid %d still alive after %ds", pid, killPollBudget))
	log.Warn("Process survived force-kill ceiling", zap.Int32("pid", pid))
}

// sleep pauses through the engine's clock, honoring ctx cancellation.
func (e *Engine) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-e.clock.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}

// issue dispatches one operation to the control port.
func issue(ctx context.Context, control ControlPort, op Op, service string) error {
	switch op {
	case OpStart:
		return control.Start(ctx, service)
	case OpStop:
		return control.Stop(ctx, service)
	case OpPause:
		return control.Pause(ctx, service)
	case OpResume:
		return control.Resume(ctx, service)
	default:
		return nil
	}
}
