package svcaction

import (
	"errors"
	"testing"
	"time"
)

// TestRequestNormalize tests request validation and default filling
func TestRequestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
		errText string
	}{
		{
			name: "minimal valid request",
			req:  Request{Service: "Telephony", Action: ActionStart},
		},
		{
			name: "explicit everything",
			req: Request{
				Service:   "Telephony",
				Action:    ActionRestart,
				Host:      "db-01",
				Timeout:   30 * time.Second,
				ForceKill: true,
				Initiator: "ops",
			},
		},
		{
			name:    "empty service",
			req:     Request{Action: ActionStart},
			wantErr: true,
			errText: "service name is required",
		},
		{
			name:    "unknown action",
			req:     Request{Service: "Telephony", Action: Action("reboot")},
			wantErr: true,
			errText: "must be one of",
		},
		{
			name:    "empty action",
			req:     Request{Service: "Telephony"},
			wantErr: true,
			errText: "must be one of",
		},
		{
			name:    "negative timeout",
			req:     Request{Service: "Telephony", Action: ActionStop, Timeout: -time.Second},
			wantErr: true,
			errText: "must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			err := req.normalize()
			if (err != nil) != tt.wantErr {
				t.Fatalf("normalize() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if tt.errText != "" && indexOf(err.Error(), tt.errText) < 0 {
					t.Errorf("normalize() error = %v, want error containing %q", err, tt.errText)
				}
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Errorf("normalize() error type = %T, want *ValidationError", err)
				}
				return
			}
			if req.Timeout <= 0 {
				t.Errorf("normalize() left timeout %v, want positive", req.Timeout)
			}
			if req.Host == "" {
				t.Error("normalize() left host empty, want local hostname")
			}
		})
	}
}

// TestRequestNormalizeCanonicalizesAction tests that case variants of a
// valid action are folded to the canonical form, not passed through
func TestRequestNormalizeCanonicalizesAction(t *testing.T) {
	for _, input := range []string{"Stop", "STOP", " stop "} {
		t.Run(input, func(t *testing.T) {
			req := Request{Service: "Telephony", Action: Action(input)}
			if err := req.normalize(); err != nil {
				t.Fatalf("normalize() error = %v", err)
			}
			if req.Action != ActionStop {
				t.Errorf("action = %q, want %q", req.Action, ActionStop)
			}
		})
	}
}

// TestRequestNormalizeDefaultTimeout tests the five second default
func TestRequestNormalizeDefaultTimeout(t *testing.T) {
	req := Request{Service: "Telephony", Action: ActionStop}
	if err := req.normalize(); err != nil {
		t.Fatalf("normalize() error = %v", err)
	}
	if req.Timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", req.Timeout, DefaultTimeout)
	}
	if DefaultTimeout != 5*time.Second {
		t.Errorf("DefaultTimeout = %v, want 5s", DefaultTimeout)
	}
}

// TestRequestNormalizeKeepsExplicitHost tests that a caller-supplied host survives
func TestRequestNormalizeKeepsExplicitHost(t *testing.T) {
	req := Request{Service: "Telephony", Action: ActionStart, Host: "db-01"}
	if err := req.normalize(); err != nil {
		t.Fatalf("normalize() error = %v", err)
	}
	if req.Host != "db-01" {
		t.Errorf("host = %q, want db-01", req.Host)
	}
}

// TestParseAction tests action input parsing
func TestParseAction(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Action
		wantErr bool
	}{
		{"start", "start", ActionStart, false},
		{"stop", "stop", ActionStop, false},
		{"restart", "restart", ActionRestart, false},
		{"pause", "pause", ActionPause, false},
		{"resume", "resume", ActionResume, false},
		{"mixed case", "ReStArT", ActionRestart, false},
		{"surrounding space", "  stop  ", ActionStop, false},
		{"unknown verb", "reload", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAction(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAction(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseAction(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// Helper function
func indexOf(s, substr string) int {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
