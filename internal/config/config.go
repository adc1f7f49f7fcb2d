package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for svcctl.
type Config struct {
	// Host is this machine's identity on the control bus. Defaults to
	// the normalized OS hostname.
	Host          string        `mapstructure:"host"`
	SubjectPrefix string        `mapstructure:"subject_prefix"`
	NATS          NATSConfig    `mapstructure:"nats"`
	Action        ActionConfig  `mapstructure:"action"`
	Agent         AgentConfig   `mapstructure:"agent"`
	Batch         BatchConfig   `mapstructure:"batch"`
	Logging       LoggingConfig `mapstructure:"logging"`
}

// NATSConfig holds connection settings for the control bus.
type NATSConfig struct {
	URLs           []string      `mapstructure:"urls"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Auth           AuthConfig    `mapstructure:"auth"`
	TLS            TLSConfig     `mapstructure:"tls"`
}

// AuthConfig selects how the NATS connection authenticates.
type AuthConfig struct {
	Type      string `mapstructure:"type"` // none, token, userpass, creds
	Token     string `mapstructure:"token"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	CredsFile string `mapstructure:"creds_file"`
}

// TLSConfig holds TLS settings for the NATS connection.
type TLSConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	CertFile           string `mapstructure:"cert_file"`
	KeyFile            string `mapstructure:"key_file"`
	CAFile             string `mapstructure:"ca_file"`
	InsecureSkipVerify bool   `mapstructure:"insecure_skip_verify"`
}

// ActionConfig tunes how service actions wait on state transitions.
type ActionConfig struct {
	WaitTimeout  time.Duration `mapstructure:"wait_timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// AgentConfig controls the resident agent's telemetry.
type AgentConfig struct {
	Heartbeat      HeartbeatConfig      `mapstructure:"heartbeat"`
	StatusSnapshot StatusSnapshotConfig `mapstructure:"status_snapshot"`
	DrainTimeout   time.Duration        `mapstructure:"drain_timeout"`
}

// HeartbeatConfig controls the periodic liveness publish.
type HeartbeatConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

// StatusSnapshotConfig controls periodic service state publishes.
type StatusSnapshotConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
	Services []string      `mapstructure:"services"`
}

// BatchConfig tunes batch plan execution and report retention.
type BatchConfig struct {
	Concurrency   int    `mapstructure:"concurrency"`
	ReportDir     string `mapstructure:"report_dir"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// LoggingConfig controls the zap logger and file rotation.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	Console    bool   `mapstructure:"console"`
}

// Load reads configuration from the given file (or the platform default
// path when empty), layered under SVCCTL_* environment variables, and
// validates the result. A missing config file is not an error; defaults
// and environment cover a bare installation.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		path = GetDefaultConfigPath()
	}
	v.SetConfigFile(path)

	v.SetEnvPrefix("SVCCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Host == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("resolve hostname: %w", err)
		}
		cfg.Host = hostname
	}
	cfg.Host = NormalizeHost(cfg.Host)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// NormalizeHost reduces a hostname to its bus identity: lowercased short
// name, cut at the first dot. Dots would split NATS subject tokens.
func NormalizeHost(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	return name
}

func setDefaults(v *viper.Viper) {
	defaults := GetPlatformDefaults()

	v.SetDefault("subject_prefix", "svcctl")

	v.SetDefault("nats.urls", []string{"nats://localhost:4222"})
	v.SetDefault("nats.max_reconnects", -1)
	v.SetDefault("nats.reconnect_wait", 5*time.Second)
	v.SetDefault("nats.request_timeout", 10*time.Second)
	v.SetDefault("nats.auth.type", "none")

	v.SetDefault("action.wait_timeout", 5*time.Second)
	v.SetDefault("action.poll_interval", 300*time.Millisecond)

	v.SetDefault("agent.heartbeat.enabled", true)
	v.SetDefault("agent.heartbeat.interval", time.Minute)
	v.SetDefault("agent.status_snapshot.enabled", true)
	v.SetDefault("agent.status_snapshot.interval", 5*time.Minute)
	v.SetDefault("agent.drain_timeout", 10*time.Second)

	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("batch.report_dir", defaults.ReportDir)
	v.SetDefault("batch.retention_days", 30)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", defaults.LogFile)
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.console", true)
}

// validate checks the assembled configuration and reports the first
// problem with enough context to fix it.
func validate(cfg *Config) error {
	if cfg.Host == "" {
		return fmt.Errorf("host is required")
	}
	if !isValidToken(cfg.Host) {
		return fmt.Errorf("host %q must contain only alphanumeric characters, dashes, and underscores", cfg.Host)
	}

	if err := validateSubjectPrefix(cfg.SubjectPrefix); err != nil {
		return err
	}

	if len(cfg.NATS.URLs) == 0 {
		return fmt.Errorf("at least one NATS URL is required")
	}

	switch cfg.NATS.Auth.Type {
	case "none":
	case "token":
		if cfg.NATS.Auth.Token == "" {
			return fmt.Errorf("auth token is required when auth type is token")
		}
	case "userpass":
		if cfg.NATS.Auth.Username == "" || cfg.NATS.Auth.Password == "" {
			return fmt.Errorf("username and password are required when auth type is userpass")
		}
	case "creds":
		if cfg.NATS.Auth.CredsFile == "" {
			return fmt.Errorf("creds_file is required when auth type is creds")
		}
		if _, err := os.Stat(cfg.NATS.Auth.CredsFile); err != nil {
			return fmt.Errorf("credentials file not found: %s", cfg.NATS.Auth.CredsFile)
		}
	default:
		return fmt.Errorf("invalid auth type: %s (must be none, token, userpass, or creds)", cfg.NATS.Auth.Type)
	}

	if err := validateTLS(&cfg.NATS.TLS); err != nil {
		return err
	}

	if cfg.NATS.RequestTimeout < time.Second {
		return fmt.Errorf("nats request_timeout must be at least 1 second")
	}
	if cfg.NATS.RequestTimeout > 5*time.Minute {
		return fmt.Errorf("nats request_timeout must not exceed 5 minutes")
	}

	if cfg.Action.WaitTimeout < time.Second {
		return fmt.Errorf("action wait_timeout must be at least 1 second")
	}
	if cfg.Action.WaitTimeout > 10*time.Minute {
		return fmt.Errorf("action wait_timeout must not exceed 10 minutes")
	}
	if cfg.Action.PollInterval < 50*time.Millisecond {
		return fmt.Errorf("action poll_interval must be at least 50 milliseconds")
	}
	if cfg.Action.PollInterval > cfg.Action.WaitTimeout {
		return fmt.Errorf("action poll_interval must not exceed wait_timeout")
	}

	if cfg.Agent.Heartbeat.Enabled && cfg.Agent.Heartbeat.Interval < 10*time.Second {
		return fmt.Errorf("heartbeat interval must be at least 10 seconds")
	}
	if cfg.Agent.StatusSnapshot.Enabled && cfg.Agent.StatusSnapshot.Interval < 30*time.Second {
		return fmt.Errorf("status snapshot interval must be at least 30 seconds")
	}
	if cfg.Agent.Heartbeat.Enabled && cfg.Agent.StatusSnapshot.Enabled &&
		cfg.Agent.Heartbeat.Interval > cfg.Agent.StatusSnapshot.Interval {
		return fmt.Errorf("heartbeat interval (%v) must not exceed status snapshot interval (%v)",
			cfg.Agent.Heartbeat.Interval, cfg.Agent.StatusSnapshot.Interval)
	}

	if cfg.Batch.Concurrency < 1 {
		return fmt.Errorf("batch concurrency must be at least 1")
	}
	if cfg.Batch.RetentionDays < 0 {
		return fmt.Errorf("batch retention_days cannot be negative")
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %s (must be debug, info, warn, or error)", cfg.Logging.Level)
	}

	return nil
}

// validateSubjectPrefix checks that the prefix forms valid NATS subject
// tokens: dot-separated segments of alphanumerics, dashes, and
// underscores.
func validateSubjectPrefix(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("subject_prefix is required")
	}
	if len(prefix) > 50 {
		return fmt.Errorf("subject_prefix must not exceed 50 characters")
	}
	if strings.HasPrefix(prefix, ".") || strings.HasSuffix(prefix, ".") {
		return fmt.Errorf("subject_prefix cannot start or end with a dot")
	}
	if strings.Contains(prefix, "..") {
		return fmt.Errorf("subject_prefix: consecutive dots not allowed")
	}
	for _, token := range strings.Split(prefix, ".") {
		if !isValidToken(token) {
			return fmt.Errorf("subject_prefix token %q contains invalid characters", token)
		}
	}
	return nil
}

func validateTLS(tls *TLSConfig) error {
	if !tls.Enabled {
		return nil
	}
	if tls.CertFile != "" && tls.KeyFile == "" {
		return fmt.Errorf("tls key_file is required when cert_file is set")
	}
	if tls.KeyFile != "" && tls.CertFile == "" {
		return fmt.Errorf("tls cert_file is required when key_file is set")
	}
	if tls.CertFile != "" {
		if _, err := os.Stat(tls.CertFile); err != nil {
			return fmt.Errorf("certificate file not found: %s", tls.CertFile)
		}
	}
	if tls.KeyFile != "" {
		if _, err := os.Stat(tls.KeyFile); err != nil {
			return fmt.Errorf("key file not found: %s", tls.KeyFile)
		}
	}
	if tls.CAFile != "" {
		if _, err := os.Stat(tls.CAFile); err != nil {
			return fmt.Errorf("CA file not found: %s", tls.CAFile)
		}
	}
	return nil
}

func isValidToken(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}
