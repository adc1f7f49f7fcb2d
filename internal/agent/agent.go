// Package agent implements the resident process that answers service
// control requests for one host over NATS and publishes telemetry about
// the services it watches.
package agent

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/opsline-io/svcctl/internal/config"
	"github.com/opsline-io/svcctl/internal/control"
	"github.com/opsline-io/svcctl/internal/logging"
	natsclient "github.com/opsline-io/svcctl/internal/nats"
)

// Agent owns the NATS connection, the command handlers bound to this
// host's control subjects, and the telemetry publisher.
type Agent struct {
	config    *config.Config
	logger    *zap.Logger
	nats      *natsclient.Client
	handlers  *natsclient.CommandHandlers
	telemetry *Telemetry
	version   string

	ctx    context.Context
	cancel context.CancelFunc

	shutdownOnce sync.Once
}

// New loads configuration, opens the platform service manager, connects
// to NATS, and subscribes to this host's control subjects. Command
// handling is live once New returns; telemetry starts with Start.
func New(configPath string, version string) (*Agent, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Starting svcctl agent",
		zap.String("version", version),
		zap.String("host", cfg.Host))

	ctl, err := control.New(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open service manager: %w", err)
	}
	proc := control.NewProcessPort(logger)

	logger.Info("Connecting to NATS...")
	client, err := natsclient.NewClient(&cfg.NATS, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	handlers := natsclient.NewCommandHandlers(logger, cfg.SubjectPrefix, cfg.Host,
		cfg.NATS.RequestTimeout, ctl, proc)

	logger.Info("Subscribing to control subjects...")
	if err := handlers.SubscribeAll(client); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to subscribe to control subjects: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	telemetry, err := NewTelemetry(ctx, logger, client, ctl, cfg, version)
	if err != nil {
		cancel()
		client.Close()
		return nil, fmt.Errorf("failed to create telemetry publisher: %w", err)
	}

	return &Agent{
		config:    cfg,
		logger:    logger,
		nats:      client,
		handlers:  handlers,
		telemetry: telemetry,
		version:   version,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Start begins telemetry publishing. It does not block; the agent's work
// happens on subscription and scheduler goroutines.
func (a *Agent) Start() error {
	a.telemetry.Start()

	a.logger.Info("Agent running",
		zap.String("host", a.config.Host),
		zap.String("version", a.version))
	return nil
}

// Shutdown stops telemetry, announces the stop on the heartbeat subject,
// and drains the NATS connection. Safe to call more than once.
func (a *Agent) Shutdown() error {
	a.shutdownOnce.Do(a.shutdown)
	return nil
}

func (a *Agent) shutdown() {
	a.logger.Info("Shutting down agent gracefully")

	a.cancel()

	if err := a.telemetry.Shutdown(); err != nil {
		a.logger.Error("Error shutting down telemetry", zap.Error(err))
	}

	// Synchronous: the connection drains right after this publish.
	a.telemetry.PublishStopping(a.config.NATS.RequestTimeout)

	if err := a.nats.Drain(a.config.Agent.DrainTimeout); err != nil {
		a.logger.Error("Error draining NATS", zap.Error(err))
	}

	a.logger.Info("Agent shutdown complete")
	a.logger.Sync()
}
