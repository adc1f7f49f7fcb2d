package nats

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/opsline-io/svcctl/internal/config"
)

// Client manages the NATS connection: request/reply for service control,
// JetStream for telemetry.
type Client struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	logger *zap.Logger
}

// NewClient connects to NATS with the configured auth and TLS settings
// and validates that JetStream is available for telemetry.
func NewClient(cfg *config.NATSConfig, logger *zap.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.Name("svcctl"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			} else {
				logger.Info("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			if sub != nil {
				logger.Error("NATS error",
					zap.Error(err),
					zap.String("subject", sub.Subject))
			} else {
				logger.Error("NATS error", zap.Error(err))
			}
		}),
	}

	if cfg.TLS.Enabled {
		tlsConfig, err := createTLSConfig(&cfg.TLS, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}

		opts = append(opts, nats.Secure(tlsConfig))
		logger.Info("TLS enabled for NATS connection",
			zap.Bool("client_cert", cfg.TLS.CertFile != ""),
			zap.Bool("ca_cert", cfg.TLS.CAFile != ""),
			zap.Bool("skip_verify", cfg.TLS.InsecureSkipVerify))

		if cfg.TLS.InsecureSkipVerify {
			logger.Warn("TLS certificate verification is DISABLED - this is insecure and should only be used in development")
		}
	}

	switch cfg.Auth.Type {
	case "creds":
		logger.Info("Using credentials file authentication", zap.String("file", cfg.Auth.CredsFile))
		opts = append(opts, nats.UserCredentials(cfg.Auth.CredsFile))
	case "token":
		logger.Info("Using token authentication")
		opts = append(opts, nats.Token(cfg.Auth.Token))
	case "userpass":
		logger.Info("Using username/password authentication", zap.String("username", cfg.Auth.Username))
		opts = append(opts, nats.UserInfo(cfg.Auth.Username, cfg.Auth.Password))
	case "none":
		logger.Info("Using no authentication")
	default:
		return nil, fmt.Errorf("invalid auth type: %s", cfg.Auth.Type)
	}

	// Pass all URLs for automatic failover
	serverURLs := strings.Join(cfg.URLs, ",")
	logger.Info("Connecting to NATS", zap.Strings("urls", cfg.URLs))
	conn, err := nats.Connect(serverURLs, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.Info("Connected to NATS",
		zap.String("url", conn.ConnectedUrl()),
		zap.String("server_id", conn.ConnectedServerId()),
		zap.Bool("tls", conn.TLSRequired()))

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	// Fail fast if JetStream is disabled on the server rather than
	// failing on the first telemetry publish.
	if _, err := js.AccountInfo(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("JetStream not available on NATS server (is JetStream enabled?): %w", err)
	}

	return &Client{
		conn:   conn,
		js:     js,
		logger: logger,
	}, nil
}

// createTLSConfig creates a TLS configuration based on the provided settings
func createTLSConfig(cfg *config.TLSConfig, logger *zap.Logger) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
	}

	if cfg.InsecureSkipVerify {
		tlsConfig.InsecureSkipVerify = true
	}

	// CA certificate verifies the server; cert/key pair authenticates us.
	if cfg.CAFile != "" {
		logger.Info("Loading CA certificate", zap.String("file", cfg.CAFile))

		caCert, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}

		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA certificate")
		}

		tlsConfig.RootCAs = caCertPool
	}

	if cfg.CertFile != "" && cfg.KeyFile != "" {
		logger.Info("Loading client certificate",
			zap.String("cert", cfg.CertFile),
			zap.String("key", cfg.KeyFile))

		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}

		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

// Request performs a synchronous request/reply exchange on the control
// bus. The caller's context bounds the wait.
func (c *Client) Request(ctx context.Context, subject string, data []byte) (*nats.Msg, error) {
	return c.conn.RequestWithContext(ctx, subject, data)
}

// PublishTelemetry publishes to JetStream asynchronously, fire-and-forget.
// Used for heartbeats and service status snapshots; failures are logged,
// not returned to the scheduler.
func (c *Client) PublishTelemetry(subject string, data []byte) error {
	pubAckFuture, err := c.js.PublishAsync(subject, data)
	if err != nil {
		c.logger.Error("Failed to queue telemetry publish",
			zap.String("subject", subject),
			zap.Error(err))
		return fmt.Errorf("failed to queue publish to %s: %w", subject, err)
	}

	// The ack arrives in the background; log either way and move on.
	go func() {
		select {
		case <-pubAckFuture.Ok():
			c.logger.Debug("Published telemetry",
				zap.String("subject", subject),
				zap.Int("bytes", len(data)))

		case err := <-pubAckFuture.Err():
			c.logger.Warn("Failed to publish telemetry after retries",
				zap.String("subject", subject),
				zap.Error(err))
		}
	}()

	return nil
}

// PublishTelemetrySync publishes and waits for the JetStream ack. Used
// during shutdown when the process will not be around for a retry.
func (c *Client) PublishTelemetrySync(subject string, data []byte, timeout time.Duration) error {
	pubAckFuture, err := c.js.PublishAsync(subject, data)
	if err != nil {
		return fmt.Errorf("failed to queue publish to %s: %w", subject, err)
	}

	select {
	case <-pubAckFuture.Ok():
		c.logger.Debug("Published telemetry (sync)",
			zap.String("subject", subject),
			zap.Int("bytes", len(data)))
		return nil

	case err := <-pubAckFuture.Err():
		c.logger.Error("Failed to publish telemetry (sync)",
			zap.String("subject", subject),
			zap.Error(err))
		return fmt.Errorf("failed to publish to %s: %w", subject, err)

	case <-time.After(timeout):
		return fmt.Errorf("publish timeout after %v", timeout)
	}
}

// Subscribe creates a subscription for command handlers using Core NATS
// request/reply.
func (c *Client) Subscribe(subject string, handler nats.MsgHandler) (*nats.Subscription, error) {
	sub, err := c.conn.Subscribe(subject, handler)
	if err != nil {
		c.logger.Error("Failed to subscribe",
			zap.String("subject", subject),
			zap.Error(err))
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	c.logger.Info("Subscribed to subject", zap.String("subject", subject))
	return sub, nil
}

// Drain gracefully closes the connection, waiting for in-flight messages
// up to the timeout before forcing the connection closed.
func (c *Client) Drain(timeout time.Duration) error {
	c.logger.Info("Draining NATS connection", zap.Duration("timeout", timeout))

	if !c.conn.IsConnected() && c.conn.IsClosed() {
		c.logger.Info("Connection already closed")
		return nil
	}

	drainDone := make(chan error, 1)
	go func() {
		drainDone <- c.conn.Drain()
	}()

	select {
	case err := <-drainDone:
		if err != nil {
			c.logger.Error("Error during NATS drain", zap.Error(err))
			return err
		}
		c.logger.Info("NATS drain completed")
		return nil

	case <-time.After(timeout):
		c.logger.Warn("NATS drain timeout, forcing close")
		c.conn.Close()
		return fmt.Errorf("drain timeout after %v", timeout)
	}
}

// Close immediately closes the NATS connection.
func (c *Client) Close() {
	c.logger.Info("Closing NATS connection")
	c.conn.Close()
}

// IsConnected reports whether the connection is currently active.
func (c *Client) IsConnected() bool {
	return c.conn.IsConnected()
}

// Stats returns connection statistics for telemetry payloads.
func (c *Client) Stats() nats.Statistics {
	return c.conn.Stats()
}
