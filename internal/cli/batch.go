package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/opsline-io/svcctl/internal/batch"
	"github.com/opsline-io/svcctl/internal/svcaction"
)

func newBatchCmd(configPath *string) *cobra.Command {
	var (
		targetsFile string
		daily       string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run a targets file of service actions across hosts",
		Long: `Batch expands a YAML targets file into one action per (host, service)
pair, runs them with bounded concurrency, and writes a daily summary
report. Actions against the same pair always run in plan order. With
--daily the process stays alive and re-runs the plan every day at the
given time.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := batch.LoadPlan(targetsFile)
			if err != nil {
				return err
			}
			requests, err := plan.Requests()
			if err != nil {
				return err
			}

			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()

			workers := cfg.Batch.Concurrency
			if concurrency > 0 {
				workers = concurrency
			}

			resolver := newBusResolver(cfg, logger)
			defer resolver.Close()

			engine := svcaction.NewEngine(logger, resolver,
				svcaction.WithPollInterval(cfg.Action.PollInterval))
			runner := batch.NewRunner(logger, engine, workers)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runOnce := func(ctx context.Context) batch.Summary {
				started := time.Now()
				results := runner.Run(ctx, requests)
				summary := batch.BuildSummary(results, plan.Defaults.Initiator, time.Since(started))

				path, err := batch.WriteSummary(logger, cfg.Batch.ReportDir, summary, cfg.Batch.RetentionDays)
				if err != nil {
					logger.Error("Failed to write summary report", zap.Error(err))
				}

				fmt.Fprintf(cmd.OutOrStdout(),
					"batch complete: %d targets, %d satisfied, %d degraded, %d failed (%.2f%%)\n",
					summary.Total, summary.Satisfied, summary.Degraded, summary.Failed, summary.SuccessRate)
				if path != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "summary report: %s\n", path)
				}
				return summary
			}

			if daily == "" {
				summary := runOnce(ctx)
				if summary.Failed > 0 {
					return fmt.Errorf("%d of %d targets failed", summary.Failed, summary.Total)
				}
				return nil
			}

			at, err := time.Parse("15:04", daily)
			if err != nil {
				return fmt.Errorf("invalid --daily time %q: use HH:MM", daily)
			}

			scheduler, err := gocron.NewScheduler()
			if err != nil {
				return fmt.Errorf("create scheduler: %w", err)
			}

			_, err = scheduler.NewJob(
				gocron.DailyJob(1, gocron.NewAtTimes(
					gocron.NewAtTime(uint(at.Hour()), uint(at.Minute()), 0))),
				gocron.NewTask(func() { runOnce(ctx) }),
				gocron.WithName("daily-batch"),
			)
			if err != nil {
				return fmt.Errorf("schedule daily batch: %w", err)
			}

			// First run happens now; the schedule covers the days after.
			runOnce(ctx)

			logger.Info("Waiting for next daily run",
				zap.String("at", daily),
				zap.String("targets", targetsFile))
			scheduler.Start()
			<-ctx.Done()

			if err := scheduler.Shutdown(); err != nil {
				logger.Warn("Error stopping scheduler", zap.Error(err))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&targetsFile, "targets", "", "YAML targets file (required)")
	cobra.CheckErr(cmd.MarkFlagRequired("targets"))
	cmd.Flags().StringVar(&daily, "daily", "",
		"keep running and repeat the batch every day at HH:MM")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0,
		"max concurrent (host, service) groups (default: from config)")

	return cmd
}
