// Package control implements the local ports: a control port over this
// platform's service manager (Windows service control manager, systemd on
// Linux, rc.d on FreeBSD) and a gopsutil-backed process port shared by all
// of them.
package control

import (
	"github.com/opsline-io/svcctl/internal/svcaction"
	"go.uber.org/zap"
)

// New returns the control port for this platform's service manager. The
// error is non-nil on platforms without a supported one.
func New(logger *zap.Logger) (svcaction.ControlPort, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return newPlatformPort(logger)
}
