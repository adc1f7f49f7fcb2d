package control

import (
	"errors"
	"testing"

	"github.com/opsline-io/svcctl/internal/svcaction"
)

func TestClassifyRCStatus(t *testing.T) {
	tests := []struct {
		name         string
		stdout       string
		stderr       string
		exitCode     int
		want         svcaction.State
		wantPID      int32
		wantNotFound bool
	}{
		{
			name:     "running with pid",
			stdout:   "sshd is running as pid 742.",
			exitCode: 0,
			want:     svcaction.StateRunning,
			wantPID:  742,
		},
		{
			name:     "running without pid",
			stdout:   "nfsd is running.",
			exitCode: 0,
			want:     svcaction.StateRunning,
		},
		{
			name:     "not running",
			stdout:   "sshd is not running.",
			exitCode: 1,
			want:     svcaction.StateStopped,
		},
		{
			name:     "not enabled",
			stdout:   "sshd is not enabled.",
			exitCode: 1,
			want:     svcaction.StateStopped,
		},
		{
			name:         "missing script",
			stderr:       "nosuch does not exist in /etc/rc.d or the local startup directories",
			exitCode:     1,
			wantNotFound: true,
		},
		{
			name:     "unrecognized output",
			stdout:   "Cannot 'status' sshd.",
			exitCode: 1,
			want:     svcaction.StateUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, pid, err := classifyRCStatus(tt.stdout, tt.stderr, tt.exitCode)
			if tt.wantNotFound {
				if !errors.Is(err, svcaction.ErrNotFound) {
					t.Fatalf("classifyRCStatus() error = %v, want ErrNotFound", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("classifyRCStatus() error = %v", err)
			}
			if state != tt.want {
				t.Errorf("state = %v, want %v", state, tt.want)
			}
			if pid != tt.wantPID {
				t.Errorf("pid = %d, want %d", pid, tt.wantPID)
			}
		})
	}
}

func TestParseRCPID(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   int32
	}{
		{"trailing period", "sshd is running as pid 742.", 742},
		{"no trailing period", "sshd is running as pid 742", 742},
		{"no pid in output", "sshd is not running.", 0},
		{"non-numeric pid", "sshd is running as pid junk.", 0},
		{"empty output", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseRCPID(tt.output); got != tt.want {
				t.Errorf("parseRCPID(%q) = %d, want %d", tt.output, got, tt.want)
			}
		})
	}
}
