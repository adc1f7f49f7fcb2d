package svcaction

import "context"

// Descriptor is a snapshot of one service at one instant. Descriptors are
// immutable; every observation produces a fresh one.
type Descriptor struct {
	// Name is the stable short name, unique per host.
	Name string
	// DisplayName is the human-readable label; may equal Name.
	DisplayName string
	// Host is the host identifier the snapshot was taken from.
	Host string
	// State is the lifecycle state at observation time.
	State State
}

// ControlPort drives one host's service manager. Implementations exist for
// the local Windows service control manager, local systemd, and a NATS
// round trip to a remote agent fronting one of those.
//
// Query resolves name against stable service names first, then display
// labels; the first match wins. A missing service, an unreachable host and
// a permission failure all surface as ErrNotFound.
type ControlPort interface {
	Query(ctx context.Context, name string) (Descriptor, error)
	Start(ctx context.Context, name string) error
	Stop(ctx context.Context, name string) error
	Pause(ctx context.Context, name string) error
	Resume(ctx context.Context, name string) error
	// ProcessID returns the PID backing the service, or 0 when the
	// service has no recorded process.
	ProcessID(ctx context.Context, name string) (int32, error)
}

// ProcessPort terminates and observes raw processes. It exists for the
// force-kill fallback: Terminate requests best-effort forceful termination
// and Alive lets the engine poll for process absence afterwards.
type ProcessPort interface {
	Terminate(ctx context.Context, pid int32) error
	Alive(ctx context.Context, pid int32) (bool, error)
}

// PortResolver yields the control and process ports for a host. The CLI
// wires local ports for this host and NATS-backed ports for any other;
// tests supply fakes.
type PortResolver interface {
	Resolve(host string) (ControlPort, ProcessPort, error)
}

// ResolverFunc adapts a function to the PortResolver interface.
type ResolverFunc func(host string) (ControlPort, ProcessPort, error)

// Resolve implements PortResolver.
func (f ResolverFunc) Resolve(host string) (ControlPort, ProcessPort, error) {
	return f(host)
}
