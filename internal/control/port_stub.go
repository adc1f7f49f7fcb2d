//go:build !windows && !linux && !freebsd

package control

import (
	"fmt"
	"runtime"

	"go.uber.org/zap"

	"github.com/opsline-io/svcctl/internal/svcaction"
)

// newPlatformPort is a stub for unsupported platforms.
func newPlatformPort(logger *zap.Logger) (svcaction.ControlPort, error) {
	return nil, fmt.Errorf("service control not supported on %s", runtime.GOOS)
}
