package control

import (
	"strconv"
	"strings"

	"github.com/opsline-io/svcctl/internal/svcaction"
)

// classifyRCStatus interprets the output and exit code of
// "service <name> status". rc.d scripts exit 0 when the daemon runs and
// nonzero otherwise; a missing script surfaces through the output text.
func classifyRCStatus(stdout, stderr string, exitCode int) (svcaction.State, int32, error) {
	out := strings.TrimSpace(stdout)
	errOut := strings.ToLower(strings.TrimSpace(stderr))

	if strings.Contains(errOut, "does not exist") ||
		strings.Contains(errOut, "not found") ||
		strings.Contains(strings.ToLower(out), "does not exist") {
		return svcaction.StateUnknown, 0, svcaction.ErrNotFound
	}

	if exitCode == 0 {
		return svcaction.StateRunning, parseRCPID(out), nil
	}
	if strings.Contains(out, "not running") || strings.Contains(out, "is not enabled") {
		return svcaction.StateStopped, 0, nil
	}
	return svcaction.StateUnknown, 0, nil
}

// parseRCPID extracts the PID from output like "sshd is running as pid 742."
// and returns 0 when the line carries none.
func parseRCPID(output string) int32 {
	const marker = " is running as pid "
	i := strings.Index(output, marker)
	if i < 0 {
		return 0
	}
	rest := output[i+len(marker):]
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	pid, err := strconv.ParseInt(rest[:end], 10, 32)
	if err != nil {
		return 0
	}
	return int32(pid)
}
