package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// validConfig returns a configuration that passes validation; tests
// override single fields to probe each rule.
func validConfig() *Config {
	return &Config{
		Host:          "test-host",
		SubjectPrefix: "svcctl",
		NATS: NATSConfig{
			URLs:           []string{"nats://localhost:4222"},
			RequestTimeout: 10 * time.Second,
			Auth:           AuthConfig{Type: "none"},
		},
		Action: ActionConfig{
			WaitTimeout:  5 * time.Second,
			PollInterval: 300 * time.Millisecond,
		},
		Agent: AgentConfig{
			Heartbeat:      HeartbeatConfig{Enabled: true, Interval: 1 * time.Minute},
			StatusSnapshot: StatusSnapshotConfig{Enabled: true, Interval: 5 * time.Minute},
			DrainTimeout:   10 * time.Second,
		},
		Batch: BatchConfig{
			Concurrency:   4,
			RetentionDays: 30,
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "test.log",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}

// TestValidateHost tests bus identity validation
func TestValidateHost(t *testing.T) {
	tests := []struct {
		name    string
		host    string
		wantErr bool
		errText string
	}{
		// Valid hosts
		{
			name:    "alphanumeric",
			host:    "web01",
			wantErr: false,
		},
		{
			name:    "with dashes",
			host:    "web-01-east",
			wantErr: false,
		},
		{
			name:    "with underscores",
			host:    "web_01",
			wantErr: false,
		},

		// Invalid hosts
		{
			name:    "empty",
			host:    "",
			wantErr: true,
			errText: "host is required",
		},
		{
			name:    "with spaces",
			host:    "web 01",
			wantErr: true,
			errText: "must contain only alphanumeric",
		},
		{
			name:    "with dots",
			host:    "web01.lan",
			wantErr: true,
			errText: "must contain only alphanumeric",
		},
		{
			name:    "with special characters",
			host:    "web@01",
			wantErr: true,
			errText: "must contain only alphanumeric",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Host = tt.host

			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && tt.errText != "" && err != nil {
				if indexOf(err.Error(), tt.errText) < 0 {
					t.Errorf("validate() error = %v, want error containing %q", err, tt.errText)
				}
			}
		})
	}
}

// TestNormalizeHost tests hostname reduction to a bus identity
func TestNormalizeHost(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already short", "web01", "web01"},
		{"fqdn cut at first dot", "web01.office.lan", "web01"},
		{"uppercase lowered", "WEB01", "web01"},
		{"surrounding whitespace", "  web01  ", "web01"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeHost(tt.in); got != tt.want {
				t.Errorf("NormalizeHost(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestValidateSubjectPrefix tests subject prefix validation
func TestValidateSubjectPrefix(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		wantErr bool
		errText string
	}{
		// Valid prefixes
		{
			name:    "simple prefix",
			prefix:  "svcctl",
			wantErr: false,
		},
		{
			name:    "with dash",
			prefix:  "svc-ctl",
			wantErr: false,
		},
		{
			name:    "with underscore",
			prefix:  "svc_ctl",
			wantErr: false,
		},
		{
			name:    "hierarchical two levels",
			prefix:  "production.svcctl",
			wantErr: false,
		},
		{
			name:    "hierarchical three levels",
			prefix:  "region.dev.svcctl",
			wantErr: false,
		},
		{
			name:    "with numbers",
			prefix:  "region1.env2.svcctl3",
			wantErr: false,
		},

		// Invalid prefixes
		{
			name:    "empty",
			prefix:  "",
			wantErr: true,
			errText: "subject_prefix is required",
		},
		{
			name:    "leading dot",
			prefix:  ".svcctl",
			wantErr: true,
			errText: "cannot start or end with a dot",
		},
		{
			name:    "trailing dot",
			prefix:  "svcctl.",
			wantErr: true,
			errText: "cannot start or end with a dot",
		},
		{
			name:    "consecutive dots",
			prefix:  "region..svcctl",
			wantErr: true,
			errText: "consecutive dots not allowed",
		},
		{
			name:    "special characters in token",
			prefix:  "region@dev.svcctl",
			wantErr: true,
			errText: "contains invalid characters",
		},
		{
			name:    "wildcard",
			prefix:  "region.*.svcctl",
			wantErr: true,
			errText: "contains invalid characters",
		},
		{
			name:    "too long",
			prefix:  "this-is-a-very-long-prefix-that-exceeds-the-maximum-allowed-length",
			wantErr: true,
			errText: "must not exceed 50 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateSubjectPrefix(tt.prefix)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateSubjectPrefix() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && tt.errText != "" && err != nil {
				if indexOf(err.Error(), tt.errText) < 0 {
					t.Errorf("validateSubjectPrefix() error = %v, want error containing %q", err, tt.errText)
				}
			}
		})
	}
}

// TestValidateNATSAuth tests NATS authentication validation
func TestValidateNATSAuth(t *testing.T) {
	tests := []struct {
		name    string
		auth    AuthConfig
		wantErr bool
		errText string
	}{
		// Valid configurations
		{
			name:    "none auth",
			auth:    AuthConfig{Type: "none"},
			wantErr: false,
		},
		{
			name:    "token auth",
			auth:    AuthConfig{Type: "token", Token: "secret-token"},
			wantErr: false,
		},
		{
			name:    "userpass auth",
			auth:    AuthConfig{Type: "userpass", Username: "user", Password: "pass"},
			wantErr: false,
		},

		// Invalid configurations
		{
			name:    "invalid type",
			auth:    AuthConfig{Type: "invalid"},
			wantErr: true,
			errText: "invalid auth type",
		},
		{
			name:    "token missing",
			auth:    AuthConfig{Type: "token"},
			wantErr: true,
			errText: "token is required",
		},
		{
			name:    "userpass missing username",
			auth:    AuthConfig{Type: "userpass", Password: "pass"},
			wantErr: true,
			errText: "username and password are required",
		},
		{
			name:    "userpass missing password",
			auth:    AuthConfig{Type: "userpass", Username: "user"},
			wantErr: true,
			errText: "username and password are required",
		},
		{
			name:    "creds missing file",
			auth:    AuthConfig{Type: "creds"},
			wantErr: true,
			errText: "creds_file is required",
		},
		{
			name:    "creds file not found",
			auth:    AuthConfig{Type: "creds", CredsFile: "/nonexistent/agent.creds"},
			wantErr: true,
			errText: "credentials file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.NATS.Auth = tt.auth

			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && tt.errText != "" && err != nil {
				if indexOf(err.Error(), tt.errText) < 0 {
					t.Errorf("validate() error = %v, want error containing %q", err, tt.errText)
				}
			}
		})
	}
}

// TestValidateTLS tests TLS configuration validation
func TestValidateTLS(t *testing.T) {
	// Create temporary test files
	tmpDir := t.TempDir()
	certFile := filepath.Join(tmpDir, "cert.pem")
	keyFile := filepath.Join(tmpDir, "key.pem")
	caFile := filepath.Join(tmpDir, "ca.pem")

	os.WriteFile(certFile, []byte("cert"), 0644)
	os.WriteFile(keyFile, []byte("key"), 0644)
	os.WriteFile(caFile, []byte("ca"), 0644)

	tests := []struct {
		name    string
		tls     TLSConfig
		wantErr bool
		errText string
	}{
		// Valid configurations
		{
			name:    "TLS disabled",
			tls:     TLSConfig{Enabled: false},
			wantErr: false,
		},
		{
			name:    "TLS enabled with no files",
			tls:     TLSConfig{Enabled: true},
			wantErr: false,
		},
		{
			name:    "TLS with CA only",
			tls:     TLSConfig{Enabled: true, CAFile: caFile},
			wantErr: false,
		},
		{
			name:    "TLS with client cert and key",
			tls:     TLSConfig{Enabled: true, CertFile: certFile, KeyFile: keyFile},
			wantErr: false,
		},

		// Invalid configurations
		{
			name:    "cert without key",
			tls:     TLSConfig{Enabled: true, CertFile: certFile},
			wantErr: true,
			errText: "key_file is required",
		},
		{
			name:    "key without cert",
			tls:     TLSConfig{Enabled: true, KeyFile: keyFile},
			wantErr: true,
			errText: "cert_file is required",
		},
		{
			name:    "cert file not found",
			tls:     TLSConfig{Enabled: true, CertFile: "/nonexistent/cert.pem", KeyFile: keyFile},
			wantErr: true,
			errText: "certificate file not found",
		},
		{
			name:    "key file not found",
			tls:     TLSConfig{Enabled: true, CertFile: certFile, KeyFile: "/nonexistent/key.pem"},
			wantErr: true,
			errText: "key file not found",
		},
		{
			name:    "CA file not found",
			tls:     TLSConfig{Enabled: true, CAFile: "/nonexistent/ca.pem"},
			wantErr: true,
			errText: "CA file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.NATS.TLS = tt.tls

			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && tt.errText != "" && err != nil {
				if indexOf(err.Error(), tt.errText) < 0 {
					t.Errorf("validate() error = %v, want error containing %q", err, tt.errText)
				}
			}
		})
	}
}

// TestValidateActionTimings tests wait timeout and poll interval bounds
func TestValidateActionTimings(t *testing.T) {
	tests := []struct {
		name    string
		action  ActionConfig
		wantErr bool
		errText string
	}{
		{
			name:    "defaults",
			action:  ActionConfig{WaitTimeout: 5 * time.Second, PollInterval: 300 * time.Millisecond},
			wantErr: false,
		},
		{
			name:    "long wait",
			action:  ActionConfig{WaitTimeout: 10 * time.Minute, PollInterval: time.Second},
			wantErr: false,
		},
		{
			name:    "wait too short",
			action:  ActionConfig{WaitTimeout: 500 * time.Millisecond, PollInterval: 100 * time.Millisecond},
			wantErr: true,
			errText: "at least 1 second",
		},
		{
			name:    "wait too long",
			action:  ActionConfig{WaitTimeout: 20 * time.Minute, PollInterval: time.Second},
			wantErr: true,
			errText: "must not exceed 10 minutes",
		},
		{
			name:    "poll too short",
			action:  ActionConfig{WaitTimeout: 5 * time.Second, PollInterval: 10 * time.Millisecond},
			wantErr: true,
			errText: "at least 50 milliseconds",
		},
		{
			name:    "poll exceeds wait",
			action:  ActionConfig{WaitTimeout: 5 * time.Second, PollInterval: 6 * time.Second},
			wantErr: true,
			errText: "must not exceed wait_timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Action = tt.action

			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && tt.errText != "" && err != nil {
				if indexOf(err.Error(), tt.errText) < 0 {
					t.Errorf("validate() error = %v, want error containing %q", err, tt.errText)
				}
			}
		})
	}
}

// TestValidateTelemetryIntervals tests heartbeat and snapshot bounds
func TestValidateTelemetryIntervals(t *testing.T) {
	tests := []struct {
		name              string
		heartbeatInterval time.Duration
		snapshotInterval  time.Duration
		wantErr           bool
		errText           string
	}{
		// Valid configurations
		{
			name:              "heartbeat more frequent than snapshots",
			heartbeatInterval: 1 * time.Minute,
			snapshotInterval:  5 * time.Minute,
			wantErr:           false,
		},
		{
			name:              "equal intervals",
			heartbeatInterval: 5 * time.Minute,
			snapshotInterval:  5 * time.Minute,
			wantErr:           false,
		},

		// Invalid configurations
		{
			name:              "heartbeat less frequent than snapshots",
			heartbeatInterval: 10 * time.Minute,
			snapshotInterval:  5 * time.Minute,
			wantErr:           true,
			errText:           "heartbeat interval",
		},
		{
			name:              "heartbeat too short",
			heartbeatInterval: 5 * time.Second,
			snapshotInterval:  5 * time.Minute,
			wantErr:           true,
			errText:           "at least 10 seconds",
		},
		{
			name:              "snapshot too short",
			heartbeatInterval: 10 * time.Second,
			snapshotInterval:  15 * time.Second,
			wantErr:           true,
			errText:           "at least 30 seconds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Agent.Heartbeat.Interval = tt.heartbeatInterval
			cfg.Agent.StatusSnapshot.Interval = tt.snapshotInterval

			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && tt.errText != "" && err != nil {
				if indexOf(err.Error(), tt.errText) < 0 {
					t.Errorf("validate() error = %v, want error containing %q", err, tt.errText)
				}
			}
		})
	}
}

// TestValidateBatch tests batch execution bounds
func TestValidateBatch(t *testing.T) {
	tests := []struct {
		name    string
		batch   BatchConfig
		wantErr bool
		errText string
	}{
		{
			name:    "defaults",
			batch:   BatchConfig{Concurrency: 4, RetentionDays: 30},
			wantErr: false,
		},
		{
			name:    "serial execution",
			batch:   BatchConfig{Concurrency: 1, RetentionDays: 0},
			wantErr: false,
		},
		{
			name:    "zero concurrency",
			batch:   BatchConfig{Concurrency: 0, RetentionDays: 30},
			wantErr: true,
			errText: "concurrency must be at least 1",
		},
		{
			name:    "negative retention",
			batch:   BatchConfig{Concurrency: 4, RetentionDays: -1},
			wantErr: true,
			errText: "retention_days cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Batch = tt.batch

			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && tt.errText != "" && err != nil {
				if indexOf(err.Error(), tt.errText) < 0 {
					t.Errorf("validate() error = %v, want error containing %q", err, tt.errText)
				}
			}
		})
	}
}

// TestValidateLoggingLevel tests logging level validation
func TestValidateLoggingLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg := validConfig()
		cfg.Logging.Level = level
		if err := validate(cfg); err != nil {
			t.Errorf("validate() with level %q: unexpected error %v", level, err)
		}
	}

	cfg := validConfig()
	cfg.Logging.Level = "verbose"
	err := validate(cfg)
	if err == nil {
		t.Fatal("validate() with invalid level: expected error")
	}
	if indexOf(err.Error(), "invalid logging level") < 0 {
		t.Errorf("validate() error = %v, want error containing %q", err, "invalid logging level")
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
