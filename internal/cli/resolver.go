package cli

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/opsline-io/svcctl/internal/config"
	"github.com/opsline-io/svcctl/internal/control"
	natsclient "github.com/opsline-io/svcctl/internal/nats"
	"github.com/opsline-io/svcctl/internal/svcaction"
)

// busResolver yields local ports for this host and NATS-backed remote
// ports for any other. The service manager and the bus connection are
// opened lazily, so a purely local invocation never dials NATS and a
// purely remote one never touches the local service manager.
type busResolver struct {
	cfg    *config.Config
	logger *zap.Logger

	mu        sync.Mutex
	localCtl  svcaction.ControlPort
	localProc svcaction.ProcessPort
	client    *natsclient.Client
}

func newBusResolver(cfg *config.Config, logger *zap.Logger) *busResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &busResolver{cfg: cfg, logger: logger}
}

// Resolve implements svcaction.PortResolver.
func (r *busResolver) Resolve(host string) (svcaction.ControlPort, svcaction.ProcessPort, error) {
	normalized := config.NormalizeHost(host)
	if normalized == "" || normalized == r.cfg.Host {
		return r.localPorts()
	}
	return r.remotePorts(normalized)
}

func (r *busResolver) localPorts() (svcaction.ControlPort, svcaction.ProcessPort, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.localCtl == nil {
		ctl, err := control.New(r.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open local service manager: %w", err)
		}
		r.localCtl = ctl
		r.localProc = control.NewProcessPort(r.logger)
	}
	return r.localCtl, r.localProc, nil
}

func (r *busResolver) remotePorts(host string) (svcaction.ControlPort, svcaction.ProcessPort, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client == nil {
		client, err := natsclient.NewClient(&r.cfg.NATS, r.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to control bus: %w", err)
		}
		r.client = client
	}

	ctl, proc := natsclient.RemotePorts(r.client, r.cfg.SubjectPrefix, host, r.cfg.NATS.RequestTimeout)
	return ctl, proc, nil
}

// Close drains the bus connection if one was opened.
func (r *busResolver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client == nil {
		return
	}
	if err := r.client.Drain(r.cfg.Agent.DrainTimeout); err != nil {
		r.logger.Warn("Error draining control bus connection", zap.Error(err))
		r.client.Close()
	}
	r.client = nil
}
