package nats

import (
	"errors"
	"fmt"
	"time"

	"github.com/opsline-io/svcctl/internal/svcaction"
)

// Subject scheme: <prefix>.<host>.svc.<verb> for request/reply and
// <prefix>.<host>.telemetry.<kind> for JetStream publishes.

const (
	verbPing    = "ping"
	verbInspect = "inspect"
	verbControl = "control"
	verbPID     = "pid"
	verbKill    = "kill"
	verbAlive   = "alive"
)

// ControlSubject builds the request subject for one verb on one host.
func ControlSubject(prefix, host, verb string) string {
	return fmt.Sprintf("%s.%s.svc.%s", prefix, host, verb)
}

// TelemetrySubject builds the JetStream subject for one telemetry kind.
func TelemetrySubject(prefix, host, kind string) string {
	return fmt.Sprintf("%s.%s.telemetry.%s", prefix, host, kind)
}

const (
	statusOK    = "ok"
	statusError = "error"
)

// Machine-readable error codes; callers translate them back into the
// engine's sentinels.
const (
	codeNotFound    = "not_found"
	codeUnsupported = "unsupported"
)

// envelope is the part of every response that reports success or failure.
// RequestID is minted by the agent so both sides' transcripts correlate.
type envelope struct {
	Status    string `json:"status"`
	Code      string `json:"code,omitempty"`
	Error     string `json:"error,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

func okEnvelope(requestID string) envelope {
	return envelope{
		Status:    statusOK,
		RequestID: requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func errorEnvelope(requestID, code string, err error) envelope {
	return envelope{
		Status:    statusError,
		Code:      code,
		Error:     err.Error(),
		RequestID: requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// err converts an error envelope back into a Go error, restoring the
// sentinels for the engine's taxonomy.
func (e *envelope) err() error {
	if e.Status == statusOK {
		return nil
	}
	switch e.Code {
	case codeNotFound:
		return fmt.Errorf("%w: %s", svcaction.ErrNotFound, e.Error)
	case codeUnsupported:
		return fmt.Errorf("%w: %s", svcaction.ErrUnsupported, e.Error)
	}
	if e.Error == "" {
		return fmt.Errorf("agent reported status %q", e.Status)
	}
	return errors.New(e.Error)
}

type inspectRequest struct {
	Service string `json:"service"`
}

type controlRequest struct {
	Service string `json:"service"`
	Verb    string `json:"verb"` // start, stop, pause, resume
}

type pidRequest struct {
	Service string `json:"service"`
}

type killRequest struct {
	PID int32 `json:"pid"`
}

type aliveRequest struct {
	PID int32 `json:"pid"`
}

type pingResponse struct {
	envelope
	Host string `json:"host,omitempty"`
}

type inspectResponse struct {
	envelope
	Name        string          `json:"name,omitempty"`
	DisplayName string          `json:"display_name,omitempty"`
	Host        string          `json:"host,omitempty"`
	State       svcaction.State `json:"state"`
}

type controlResponse struct {
	envelope
	Service string `json:"service,omitempty"`
	Verb    string `json:"verb,omitempty"`
}

type pidResponse struct {
	envelope
	PID int32 `json:"pid"`
}

type killResponse struct {
	envelope
	PID int32 `json:"pid"`
}

type aliveResponse struct {
	envelope
	Alive bool `json:"alive"`
}
