package nats

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/opsline-io/svcctl/internal/svcaction"
)

func TestControlSubject(t *testing.T) {
	got := ControlSubject("svcctl", "web01", verbInspect)
	want := "svcctl.web01.svc.inspect"
	if got != want {
		t.Errorf("ControlSubject() = %q, want %q", got, want)
	}
}

func TestTelemetrySubject(t *testing.T) {
	got := TelemetrySubject("svcctl", "web01", "heartbeat")
	want := "svcctl.web01.telemetry.heartbeat"
	if got != want {
		t.Errorf("TelemetrySubject() = %q, want %q", got, want)
	}
}

func TestEnvelopeErr(t *testing.T) {
	tests := []struct {
		name            string
		env             envelope
		wantErr         bool
		wantNotFound    bool
		wantUnsupported bool
		wantText        string
	}{
		{
			name:    "ok",
			env:     okEnvelope("req-1"),
			wantErr: false,
		},
		{
			name:         "not found restores sentinel",
			env:          errorEnvelope("req-2", codeNotFound, fmt.Errorf("no such unit")),
			wantErr:      true,
			wantNotFound: true,
			wantText:     "no such unit",
		},
		{
			name:            "unsupported restores sentinel",
			env:             errorEnvelope("req-3", codeUnsupported, fmt.Errorf("pause not supported")),
			wantErr:         true,
			wantUnsupported: true,
			wantText:        "pause not supported",
		},
		{
			name:     "plain error",
			env:      errorEnvelope("req-4", "", fmt.Errorf("access denied")),
			wantErr:  true,
			wantText: "access denied",
		},
		{
			name:     "error without message",
			env:      envelope{Status: statusError},
			wantErr:  true,
			wantText: "agent reported status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.env.err()
			if (err != nil) != tt.wantErr {
				t.Fatalf("err() = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			if got := errors.Is(err, svcaction.ErrNotFound); got != tt.wantNotFound {
				t.Errorf("errors.Is(err, ErrNotFound) = %v, want %v", got, tt.wantNotFound)
			}
			if got := errors.Is(err, svcaction.ErrUnsupported); got != tt.wantUnsupported {
				t.Errorf("errors.Is(err, ErrUnsupported) = %v, want %v", got, tt.wantUnsupported)
			}
			if tt.wantText != "" && !strings.Contains(err.Error(), tt.wantText) {
				t.Errorf("err() = %q, want substring %q", err.Error(), tt.wantText)
			}
		})
	}
}

func TestInspectResponseCarriesStateAsText(t *testing.T) {
	resp := inspectResponse{
		envelope:    okEnvelope("req-5"),
		Name:        "Telephony",
		DisplayName: "Telephony Service",
		Host:        "pbx-01",
		State:       svcaction.StateRunning,
	}

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), `"state":"running"`) {
		t.Errorf("marshaled response = %s, want state rendered as text", data)
	}

	var decoded inspectResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded.State != svcaction.StateRunning {
		t.Errorf("decoded state = %v, want %v", decoded.State, svcaction.StateRunning)
	}
	if decoded.Name != "Telephony" {
		t.Errorf("decoded name = %q, want %q", decoded.Name, "Telephony")
	}
}
