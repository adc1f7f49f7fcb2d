//go:build linux

package control

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/opsline-io/svcctl/internal/svcaction"
)

// systemdPort drives systemd through systemctl. Pause and resume are
// rendered as SIGSTOP/SIGCONT on the unit's processes, since systemd has
// no native suspend verb; a stopped main process reads back as paused.
type systemdPort struct {
	logger *zap.Logger
}

func newPlatformPort(logger *zap.Logger) (svcaction.ControlPort, error) {
	return &systemdPort{logger: logger}, nil
}

// Query reads the unit's state via `systemctl show` for machine-readable
// output. Units are resolved by name only: systemd addresses units by unit
// name, and descriptions are not unique identifiers.
func (s *systemdPort) Query(ctx context.Context, name string) (svcaction.Descriptor, error) {
	stdout, stderr, err := s.run(ctx, "show", name,
		"--property=ActiveState,SubState,LoadState,Description,MainPID")
	if err != nil {
		if strings.Contains(stderr, "not loaded") || strings.Contains(stderr, "not found") {
			return svcaction.Descriptor{}, fmt.Errorf("%w: unit %s", svcaction.ErrNotFound, name)
		}
		return svcaction.Descriptor{}, fmt.Errorf("systemctl show %s: %w: %s", name, err, stderr)
	}

	props := parseUnitProperties(stdout)
	if props.LoadState == "not-found" {
		return svcaction.Descriptor{}, fmt.Errorf("%w: unit %s", svcaction.ErrNotFound, name)
	}

	display := props.Description
	if display == "" {
		display = name
	}

	return svcaction.Descriptor{
		Name:        name,
		DisplayName: display,
		State:       mapUnitState(props, s.suspended(ctx, props)),
	}, nil
}

func (s *systemdPort) Start(ctx context.Context, name string) error {
	return s.control(ctx, name, "start", name)
}

func (s *systemdPort) Stop(ctx context.Context, name string) error {
	return s.control(ctx, name, "stop", name)
}

func (s *systemdPort) Pause(ctx context.Context, name string) error {
	return s.control(ctx, name, "kill", "--signal=SIGSTOP", name)
}

func (s *systemdPort) Resume(ctx context.Context, name string) error {
	return s.control(ctx, name, "kill", "--signal=SIGCONT", name)
}

// ProcessID returns the unit's MainPID, 0 when none is recorded.
func (s *systemdPort) ProcessID(ctx context.Context, name string) (int32, error) {
	stdout, stderr, err := s.run(ctx, "show", name, "--property=MainPID")
	if err != nil {
		return 0, fmt.Errorf("systemctl show %s: %w: %s", name, err, stderr)
	}
	return parseUnitProperties(stdout).MainPID, nil
}

// control issues one systemctl verb against a unit.
func (s *systemdPort) control(ctx context.Context, name string, args ...string) error {
	s.logger.Info("Controlling systemd unit",
		zap.String("unit", name),
		zap.Strings("args", args))

	_, stderr, err := s.run(ctx, args...)
	if err != nil {
		s.logger.Error("systemctl command failed",
			zap.Error(err),
			zap.String("stderr", stderr))
		return fmt.Errorf("systemctl %s: %w: %s", strings.Join(args, " "), err, stderr)
	}
	return nil
}

// run executes systemctl and captures both output streams.
func (s *systemdPort) run(ctx context.Context, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, "systemctl", args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), strings.TrimSpace(stderr.String()), err
}

// suspended reports whether the unit's main process is SIGSTOP'd. systemd
// keeps reporting such units as active/running.
func (s *systemdPort) suspended(ctx context.Context, props unitProperties) bool {
	if props.MainPID <= 0 || props.ActiveState != "active" {
		return false
	}

	proc, err := process.NewProcessWithContext(ctx, props.MainPID)
	if err != nil {
		return false
	}
	statuses, err := proc.StatusWithContext(ctx)
	if err != nil {
		return false
	}
	for _, status := range statuses {
		if status == process.Stop {
			return true
		}
	}
	return false
}
