package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/opsline-io/svcctl/internal/config"
	natsclient "github.com/opsline-io/svcctl/internal/nats"
	"github.com/opsline-io/svcctl/internal/svcaction"
)

const (
	telemetryHeartbeat = "heartbeat"
	telemetryStatus    = "status"
)

// Heartbeat is the periodic liveness payload published on the host's
// heartbeat subject.
type Heartbeat struct {
	Host          string `json:"host"`
	Version       string `json:"version"`
	Timestamp     string `json:"timestamp"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	InMsgs        uint64 `json:"in_msgs"`
	OutMsgs       uint64 `json:"out_msgs"`
	Reconnects    uint64 `json:"reconnects"`
	Stopping      bool   `json:"stopping,omitempty"`
}

// ServiceState is one service's entry in a status snapshot.
type ServiceState struct {
	Name        string          `json:"name"`
	DisplayName string          `json:"display_name,omitempty"`
	State       svcaction.State `json:"state"`
	Error       string          `json:"error,omitempty"`
}

// StatusSnapshot reports the observed state of the configured services.
type StatusSnapshot struct {
	Host      string         `json:"host"`
	Timestamp string         `json:"timestamp"`
	Services  []ServiceState `json:"services"`
}

// Telemetry publishes heartbeats and service status snapshots on the
// host's telemetry subjects.
type Telemetry struct {
	logger    *zap.Logger
	client    *natsclient.Client
	control   svcaction.ControlPort
	scheduler gocron.Scheduler
	ctx       context.Context

	prefix   string
	host     string
	version  string
	services []string
	timeout  time.Duration
	started  time.Time
}

// NewTelemetry builds the publisher and registers its jobs with the
// scheduler. Nothing runs until Start.
func NewTelemetry(ctx context.Context, logger *zap.Logger, client *natsclient.Client,
	control svcaction.ControlPort, cfg *config.Config, version string) (*Telemetry, error) {

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	t := &Telemetry{
		logger:    logger,
		client:    client,
		control:   control,
		scheduler: scheduler,
		ctx:       ctx,
		prefix:    cfg.SubjectPrefix,
		host:      cfg.Host,
		version:   version,
		services:  cfg.Agent.StatusSnapshot.Services,
		timeout:   cfg.NATS.RequestTimeout,
		started:   time.Now(),
	}

	if cfg.Agent.Heartbeat.Enabled {
		// Immediate first run so watchers see the agent as soon as it
		// comes up, not one interval later.
		_, err := scheduler.NewJob(
			gocron.DurationJob(cfg.Agent.Heartbeat.Interval),
			gocron.NewTask(t.publishHeartbeat),
			gocron.WithName("heartbeat"),
			gocron.WithStartAt(gocron.WithStartImmediately()),
		)
		if err != nil {
			return nil, fmt.Errorf("schedule heartbeat: %w", err)
		}
	}

	if cfg.Agent.StatusSnapshot.Enabled && len(cfg.Agent.StatusSnapshot.Services) > 0 {
		_, err := scheduler.NewJob(
			gocron.DurationJob(cfg.Agent.StatusSnapshot.Interval),
			gocron.NewTask(t.publishStatusSnapshot),
			gocron.WithName("status-snapshot"),
		)
		if err != nil {
			return nil, fmt.Errorf("schedule status snapshot: %w", err)
		}
	}

	return t, nil
}

// Start begins the scheduled publishes.
func (t *Telemetry) Start() {
	t.scheduler.Start()
}

// Shutdown stops the scheduler and waits for running jobs to finish.
func (t *Telemetry) Shutdown() error {
	return t.scheduler.Shutdown()
}

func (t *Telemetry) publishHeartbeat() {
	hb := newHeartbeat(t.host, t.version, t.started, t.client.Stats(), false)
	t.publish(telemetryHeartbeat, hb)
}

// PublishStopping synchronously announces the agent is going away so
// watchers do not wait a full heartbeat interval to notice.
func (t *Telemetry) PublishStopping(timeout time.Duration) {
	hb := newHeartbeat(t.host, t.version, t.started, t.client.Stats(), true)

	data, err := json.Marshal(hb)
	if err != nil {
		t.logger.Error("Failed to marshal stopping heartbeat", zap.Error(err))
		return
	}

	subject := natsclient.TelemetrySubject(t.prefix, t.host, telemetryHeartbeat)
	if err := t.client.PublishTelemetrySync(subject, data, timeout); err != nil {
		t.logger.Warn("Failed to publish stopping heartbeat", zap.Error(err))
	}
}

func (t *Telemetry) publishStatusSnapshot() {
	ctx, cancel := context.WithTimeout(t.ctx, t.timeout)
	defer cancel()

	snap := newStatusSnapshot(ctx, t.control, t.host, t.services)
	t.publish(telemetryStatus, snap)
}

func (t *Telemetry) publish(kind string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		t.logger.Error("Failed to marshal telemetry",
			zap.String("kind", kind),
			zap.Error(err))
		return
	}

	subject := natsclient.TelemetrySubject(t.prefix, t.host, kind)
	if err := t.client.PublishTelemetry(subject, data); err != nil {
		t.logger.Warn("Failed to publish telemetry",
			zap.String("kind", kind),
			zap.Error(err))
	}
}

// newHeartbeat stamps the payload with the current UTC time in RFC3339.
func newHeartbeat(host, version string, started time.Time, stats nats.Statistics, stopping bool) Heartbeat {
	return Heartbeat{
		Host:          host,
		Version:       version,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		UptimeSeconds: int64(time.Since(started).Seconds()),
		InMsgs:        stats.InMsgs,
		OutMsgs:       stats.OutMsgs,
		Reconnects:    stats.Reconnects,
		Stopping:      stopping,
	}
}

// newStatusSnapshot queries each configured service. A service that
// cannot be queried still gets an entry so the snapshot shape is stable
// across runs.
func newStatusSnapshot(ctx context.Context, control svcaction.ControlPort, host string, services []string) StatusSnapshot {
	snap := StatusSnapshot{
		Host:      host,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  make([]ServiceState, 0, len(services)),
	}

	for _, name := range services {
		desc, err := control.Query(ctx, name)
		if err != nil {
			snap.Services = append(snap.Services, ServiceState{
				Name:  name,
				State: svcaction.StateUnknown,
				Error: err.Error(),
			})
			continue
		}

		snap.Services = append(snap.Services, ServiceState{
			Name:        desc.Name,
			DisplayName: desc.DisplayName,
			State:       desc.State,
		})
	}

	return snap
}
