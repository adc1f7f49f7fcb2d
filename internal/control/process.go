package control

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/opsline-io/svcctl/internal/svcaction"
)

// processPort terminates and observes raw processes through gopsutil. It is
// the force-kill half of the local port pair.
type processPort struct {
	logger *zap.Logger
}

// NewProcessPort returns the local process port.
func NewProcessPort(logger *zap.Logger) svcaction.ProcessPort {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &processPort{logger: logger}
}

// Terminate forcefully kills the process. Best effort: the caller polls
// Alive afterwards rather than trusting the return value.
func (p *processPort) Terminate(ctx context.Context, pid int32) error {
	proc, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return fmt.Errorf("process %d: %w", pid, err)
	}

	p.logger.Warn("Killing process", zap.Int32("pid", pid))
	if err := proc.KillWithContext(ctx); err != nil {
		return fmt.Errorf("kill process %d: %w", pid, err)
	}
	return nil
}

// Alive reports whether a process with the given pid still exists.
func (p *processPort) Alive(ctx context.Context, pid int32) (bool, error) {
	return process.PidExistsWithContext(ctx, pid)
}
