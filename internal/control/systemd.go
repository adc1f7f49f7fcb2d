package control

import (
	"strconv"
	"strings"

	"github.com/opsline-io/svcctl/internal/svcaction"
)

// unitProperties is the subset of `systemctl show` output the port needs.
type unitProperties struct {
	ActiveState string
	SubState    string
	LoadState   string
	Description string
	MainPID     int32
}

// parseUnitProperties parses the key=value lines printed by
// `systemctl show <unit> --property=...`.
func parseUnitProperties(output string) unitProperties {
	var props unitProperties

	for _, line := range strings.Split(output, "\n") {
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch key {
		case "ActiveState":
			props.ActiveState = value
		case "SubState":
			props.SubState = value
		case "LoadState":
			props.LoadState = value
		case "Description":
			props.Description = value
		case "MainPID":
			if pid, err := strconv.ParseInt(value, 10, 32); err == nil {
				props.MainPID = int32(pid)
			}
		}
	}

	return props
}

// mapUnitState converts systemd unit properties to a lifecycle state.
// suspended reports whether the unit's main process is SIGSTOP'd, which
// systemd itself does not track; the caller checks the process table.
func mapUnitState(props unitProperties, suspended bool) svcaction.State {
	if suspended {
		return svcaction.StatePaused
	}

	switch props.ActiveState {
	case "active":
		// Other active substates (e.g. exited) still count as running
		return svcaction.StateRunning
	case "inactive":
		return svcaction.StateStopped
	case "failed":
		// A failed unit is definitively not running and may be started
		return svcaction.StateStopped
	case "activating":
		return svcaction.StateStartPending
	case "deactivating":
		return svcaction.StateStopPending
	default:
		return svcaction.StateUnknown
	}
}
