// Package cli assembles the svcctl command tree: one-shot actions,
// batch fan-out, the resident agent, and transcript inspection.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/opsline-io/svcctl/internal/config"
	"github.com/opsline-io/svcctl/internal/logging"
)

// New builds the root command with all subcommands attached.
func New(version string) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "svcctl",
		Short: "Deterministic lifecycle actions for OS services, local and remote",
		Long: `svcctl applies lifecycle actions (start, stop, restart, pause, resume)
to named OS services, waits for the resulting state transition, and can
force-kill the backing process when a graceful stop times out. Remote
hosts are reached through their resident svcctl agent over NATS.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "",
		"config file (default: the platform config path)")

	root.AddCommand(
		newApplyCmd(&configPath),
		newBatchCmd(&configPath),
		newAgentCmd(&configPath, version),
		newTranscriptCmd(&configPath),
		newPingCmd(&configPath),
	)

	return root
}

// setup loads configuration and opens the transcript logger for commands
// that act on services. The returned logger writes the rotated JSON
// transcript file plus the console mirror when enabled.
func setup(configPath string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize logging: %w", err)
	}

	return cfg, logger, nil
}
