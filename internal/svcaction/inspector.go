package svcaction

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Inspector observes services without changing them. It is safe to call
// repeatedly and rapidly; the engine re-inspects after every transition
// attempt.
type Inspector struct {
	ports  PortResolver
	logger *zap.Logger
}

// NewInspector creates an inspector over the given port resolver.
func NewInspector(logger *zap.Logger, ports PortResolver) *Inspector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inspector{ports: ports, logger: logger}
}

// Inspect resolves service by stable name or display label on host and
// returns its descriptor. A missing service, an unreachable host and a
// permission failure all return ErrNotFound; the returned descriptor still
// carries the requested name and host so callers can report on it.
func (i *Inspector) Inspect(ctx context.Context, service, host string) (Descriptor, error) {
	control, _, err := i.ports.Resolve(host)
	if err != nil {
		i.logger.Debug("Host resolution failed",
			zap.String("host", host),
			zap.Error(err))
		return Descriptor{Name: service, Host: host, State: StateUnknown}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	desc, err := control.Query(ctx, service)
	if err != nil {
		i.logger.Debug("Service query failed",
			zap.String("service", service),
			zap.String("host", host),
			zap.Error(err))
		return Descriptor{Name: service, Host: host, State: StateUnknown}, err
	}

	if desc.Host == "" {
		desc.Host = host
	}
	return desc, nil
}
