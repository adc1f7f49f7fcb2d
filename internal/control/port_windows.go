//go:build windows

package control

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"

	"github.com/opsline-io/svcctl/internal/svcaction"
)

// scmPort drives the Windows service control manager. Every call opens a
// fresh manager handle; the port holds no OS resources between calls.
type scmPort struct {
	logger *zap.Logger
}

func newPlatformPort(logger *zap.Logger) (svcaction.ControlPort, error) {
	return &scmPort{logger: logger}, nil
}

// Query resolves name as a service key name first, then scans display
// names; the first match wins. Manager connection and open failures read
// as not found: an inaccessible manager and a missing service are the same
// "cannot act on this service" answer.
func (w *scmPort) Query(ctx context.Context, name string) (svcaction.Descriptor, error) {
	m, err := mgr.Connect()
	if err != nil {
		return svcaction.Descriptor{}, fmt.Errorf("%w: service manager: %v", svcaction.ErrNotFound, err)
	}
	defer m.Disconnect()

	s, keyName, err := openByNameOrDisplay(m, name)
	if err != nil {
		return svcaction.Descriptor{}, fmt.Errorf("%w: %s: %v", svcaction.ErrNotFound, name, err)
	}
	defer s.Close()

	status, err := s.Query()
	if err != nil {
		return svcaction.Descriptor{}, fmt.Errorf("query service %s: %w", keyName, err)
	}

	display := keyName
	if cfg, err := s.Config(); err == nil && cfg.DisplayName != "" {
		display = cfg.DisplayName
	}

	return svcaction.Descriptor{
		Name:        keyName,
		DisplayName: display,
		State:       mapWindowsState(status.State),
	}, nil
}

func (w *scmPort) Start(ctx context.Context, name string) error {
	return w.exec(name, "start", func(s *mgr.Service) error {
		return s.Start()
	})
}

func (w *scmPort) Stop(ctx context.Context, name string) error {
	return w.sendControl(name, "stop", svc.Stop)
}

func (w *scmPort) Pause(ctx context.Context, name string) error {
	return w.sendControl(name, "pause", svc.Pause)
}

func (w *scmPort) Resume(ctx context.Context, name string) error {
	return w.sendControl(name, "continue", svc.Continue)
}

// ProcessID returns the PID the manager records for the service, 0 for a
// stopped service.
func (w *scmPort) ProcessID(ctx context.Context, name string) (int32, error) {
	m, err := mgr.Connect()
	if err != nil {
		return 0, fmt.Errorf("connect to service manager: %w", err)
	}
	defer m.Disconnect()

	s, keyName, err := openByNameOrDisplay(m, name)
	if err != nil {
		return 0, fmt.Errorf("open service %s: %w", name, err)
	}
	defer s.Close()

	status, err := s.Query()
	if err != nil {
		return 0, fmt.Errorf("query service %s: %w", keyName, err)
	}
	return int32(status.ProcessId), nil
}

// sendControl sends one control code and returns; waiting for the
// resulting state is the engine's job.
func (w *scmPort) sendControl(name, verb string, cmd svc.Cmd) error {
	return w.exec(name, verb, func(s *mgr.Service) error {
		_, err := s.Control(cmd)
		return err
	})
}

// exec opens the manager and the service, runs fn, and wraps errors with
// the verb and service name.
func (w *scmPort) exec(name, verb string, fn func(*mgr.Service) error) error {
	w.logger.Info("Controlling Windows service",
		zap.String("service", name),
		zap.String("verb", verb))

	m, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("connect to service manager: %w", err)
	}
	defer m.Disconnect()

	s, _, err := openByNameOrDisplay(m, name)
	if err != nil {
		return fmt.Errorf("open service %s: %w", name, err)
	}
	defer s.Close()

	if err := fn(s); err != nil {
		return fmt.Errorf("%s service %s: %w", verb, name, err)
	}
	return nil
}

// openByNameOrDisplay opens a service by its key name, falling back to a
// scan of configured display names.
func openByNameOrDisplay(m *mgr.Mgr, name string) (*mgr.Service, string, error) {
	s, err := m.OpenService(name)
	if err == nil {
		return s, name, nil
	}
	openErr := err

	names, err := m.ListServices()
	if err != nil {
		return nil, "", openErr
	}
	for _, candidate := range names {
		cs, err := m.OpenService(candidate)
		if err != nil {
			continue
		}
		if cfg, err := cs.Config(); err == nil && strings.EqualFold(cfg.DisplayName, name) {
			return cs, candidate, nil
		}
		cs.Close()
	}
	return nil, "", openErr
}

// mapWindowsState converts an SCM state to a lifecycle state.
func mapWindowsState(state svc.State) svcaction.State {
	switch state {
	case svc.Stopped:
		return svcaction.StateStopped
	case svc.StartPending:
		return svcaction.StateStartPending
	case svc.StopPending:
		return svcaction.StateStopPending
	case svc.Running:
		return svcaction.StateRunning
	case svc.ContinuePending:
		return svcaction.StateContinuePending
	case svc.PausePending:
		return svcaction.StatePausePending
	case svc.Paused:
		return svcaction.StatePaused
	default:
		return svcaction.StateUnknown
	}
}
