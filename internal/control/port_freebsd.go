//go:build freebsd

package control

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/opsline-io/svcctl/internal/svcaction"
)

// rcdPort drives rc.d scripts through the service(8) wrapper.
type rcdPort struct {
	logger *zap.Logger
}

func newPlatformPort(logger *zap.Logger) (svcaction.ControlPort, error) {
	return &rcdPort{logger: logger}, nil
}

func (r *rcdPort) Query(ctx context.Context, name string) (svcaction.Descriptor, error) {
	stdout, stderr, exitCode, err := r.run(ctx, name, "status")
	if err != nil {
		return svcaction.Descriptor{}, err
	}
	state, _, err := classifyRCStatus(stdout, stderr, exitCode)
	if err != nil {
		return svcaction.Descriptor{}, fmt.Errorf("%w: %s", err, name)
	}
	// rc.d has no display name; the script name is the identity.
	return svcaction.Descriptor{
		Name:        name,
		DisplayName: name,
		State:       state,
	}, nil
}

func (r *rcdPort) Start(ctx context.Context, name string) error {
	return r.control(ctx, name, "start")
}

func (r *rcdPort) Stop(ctx context.Context, name string) error {
	return r.control(ctx, name, "stop")
}

// Pause has no rc.d rendering; callers surface the error as a diagnostic.
func (r *rcdPort) Pause(ctx context.Context, name string) error {
	return fmt.Errorf("%w: pause %s via rc.d", svcaction.ErrUnsupported, name)
}

func (r *rcdPort) Resume(ctx context.Context, name string) error {
	return fmt.Errorf("%w: resume %s via rc.d", svcaction.ErrUnsupported, name)
}

func (r *rcdPort) ProcessID(ctx context.Context, name string) (int32, error) {
	stdout, stderr, exitCode, err := r.run(ctx, name, "status")
	if err != nil {
		return 0, err
	}
	_, pid, err := classifyRCStatus(stdout, stderr, exitCode)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", err, name)
	}
	return pid, nil
}

func (r *rcdPort) control(ctx context.Context, name, verb string) error {
	r.logger.Info("Controlling rc.d service",
		zap.String("service", name),
		zap.String("verb", verb))

	_, stderr, exitCode, err := r.run(ctx, name, verb)
	if err != nil {
		return err
	}
	if exitCode != 0 {
		return fmt.Errorf("service %s %s failed: exit %d: %s", name, verb, exitCode, strings.TrimSpace(stderr))
	}
	return nil
}

// run invokes service(8), separating a nonzero exit status from a failure
// to run the command at all.
func (r *rcdPort) run(ctx context.Context, name, verb string) (string, string, int, error) {
	cmd := exec.CommandContext(ctx, "service", name, verb)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return "", "", 0, fmt.Errorf("service %s %s: %w", name, verb, err)
		}
	}
	return stdout.String(), stderr.String(), exitCode, nil
}
