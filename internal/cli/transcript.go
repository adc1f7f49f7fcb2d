package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opsline-io/svcctl/internal/config"
	"github.com/opsline-io/svcctl/internal/transcript"
)

func newTranscriptCmd(configPath *string) *cobra.Command {
	var lines int

	cmd := &cobra.Command{
		Use:   "transcript",
		Short: "Print the tail of the action transcript",
		Long: `Transcript prints the last lines of the rotated JSON log that records
every service action issued from this machine.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			tail, err := transcript.Tail(cfg.Logging.File, lines)
			if err != nil {
				return err
			}
			for _, line := range tail {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&lines, "lines", 50,
		fmt.Sprintf("number of lines to print (max %d)", transcript.MaxLines))

	return cmd
}
