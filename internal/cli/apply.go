package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/opsline-io/svcctl/internal/svcaction"
)

// applyRecord is the final record printed to stdout for one action.
type applyRecord struct {
	Host        string `json:"host"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
	State       string `json:"state"`
	Diagnostic  string `json:"diagnostic,omitempty"`
	Satisfied   bool   `json:"satisfied"`
}

func newApplyCmd(configPath *string) *cobra.Command {
	var (
		host       string
		timeoutSec int
		forceKill  bool
		initiator  string
	)

	cmd := &cobra.Command{
		Use:   "apply <action> <service>",
		Short: "Apply one lifecycle action to one service and wait for the result",
		Long: `Apply inspects the service, performs whatever transitions the requested
action needs from its current state, and waits for each transition up to
the timeout. With --force-kill, a stop that misses its timeout escalates
to forceful termination of the backing process.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Reject a bad action before loading config or touching
			// any service.
			action, err := svcaction.ParseAction(args[0])
			if err != nil {
				return err
			}

			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()

			timeout := cfg.Action.WaitTimeout
			if timeoutSec > 0 {
				timeout = time.Duration(timeoutSec) * time.Second
			}

			resolver := newBusResolver(cfg, logger)
			defer resolver.Close()

			engine := svcaction.NewEngine(logger, resolver,
				svcaction.WithPollInterval(cfg.Action.PollInterval))

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			outcome, err := engine.Apply(ctx, svcaction.Request{
				Service:   args[1],
				Action:    action,
				Host:      host,
				Timeout:   timeout,
				ForceKill: forceKill,
				Initiator: initiator,
			})
			if err != nil {
				return err
			}

			record := applyRecord{
				Host:        outcome.Host,
				Name:        outcome.Service,
				DisplayName: outcome.DisplayName,
				State:       outcome.FinalState.String(),
				Diagnostic:  outcome.Diagnostic,
				Satisfied:   outcome.Satisfied(),
			}
			data, err := json.MarshalIndent(record, "", "  ")
			if err != nil {
				return fmt.Errorf("encode outcome: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))

			if outcome.NotFound {
				return fmt.Errorf("service %s not found on %s", outcome.Service, outcome.Host)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "target host (default: this host)")
	cmd.Flags().IntVar(&timeoutSec, "timeout", 0,
		"seconds to wait for each state transition (default: from config)")
	cmd.Flags().BoolVar(&forceKill, "force-kill", false,
		"terminate the backing process when a graceful stop times out")
	cmd.Flags().StringVar(&initiator, "initiator", "",
		"identity recorded on the outcome and in the transcript")

	return cmd
}
