package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opsline-io/svcctl/internal/agent"
)

func newAgentCmd(configPath *string, version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Run or manage the resident svcctl agent",
		Long: `The agent answers service control requests for this host over NATS and
publishes heartbeat and service status telemetry. It can run in the
foreground or be installed as an OS service that manages itself.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run the agent (foreground, or under the host service manager)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return agent.RunService(*configPath, version)
		},
	})

	// install/uninstall/start/stop manage the agent's own registration
	// with the host service manager; they never touch target services.
	for _, action := range []string{"install", "uninstall", "start", "stop"} {
		action := action
		cmd.AddCommand(&cobra.Command{
			Use:   action,
			Short: fmt.Sprintf("%s the agent service on this host", capitalize(action)),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := agent.ControlService(action, *configPath); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "agent service: %s ok\n", action)
				return nil
			},
		})
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Report whether the agent service is installed and running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := agent.ServiceStatus(*configPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "agent service: %s\n", status)
			return nil
		},
	})

	return cmd
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
