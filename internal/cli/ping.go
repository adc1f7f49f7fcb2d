package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/opsline-io/svcctl/internal/config"
	"github.com/opsline-io/svcctl/internal/logging"
	natsclient "github.com/opsline-io/svcctl/internal/nats"
)

func newPingCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ping <host>",
		Short: "Check whether an agent answers for a host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			logger, err := logging.NewConsole(cfg.Logging.Level)
			if err != nil {
				return err
			}
			defer logger.Sync()

			client, err := natsclient.NewClient(&cfg.NATS, logger)
			if err != nil {
				return fmt.Errorf("connect to control bus: %w", err)
			}
			defer client.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			host := config.NormalizeHost(args[0])
			if err := natsclient.PingHost(ctx, client, cfg.SubjectPrefix, host, cfg.NATS.RequestTimeout); err != nil {
				return fmt.Errorf("no agent answering for host %s: %w", host, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "agent on %s is answering\n", host)
			return nil
		},
	}
}
