package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reelharvest/internal/logging"
	"reelharvest/internal/schedule"
)

func newScheduleCommand(ctx *commandContext) *cobra.Command {
	var cronExpr string
	var timezone string

	cmd := &cobra.Command{
		Use:   "schedule <manifest-root>",
		Short: "Run the harvest on a cron schedule until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			root, err := expandArg(args[0])
			if err != nil {
				return err
			}
			expr := cfg.Schedule.Cron
			if cmd.Flags().Changed("cron") {
				expr = strings.TrimSpace(cronExpr)
			}
			tz := cfg.Schedule.Timezone
			if cmd.Flags().Changed("timezone") {
				tz = strings.TrimSpace(timezone)
			}
			sched, err := schedule.New(expr, tz, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Scheduled %q; press Ctrl+C to stop\n", expr)

			req := requestFromConfig(cfg, root)
			return sched.Run(cmd.Context(), func(runCtx context.Context) error {
				result, err := executeRun(runCtx, cfg, req, logger)
				if err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				if result.Ran {
					logger.Info("scheduled batch summary",
						logging.String("run_id", result.Summary.RunID),
						logging.String("status", result.Summary.Status()),
					)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&cronExpr, "cron", "", "Override schedule.cron (five-field cron expression)")
	cmd.Flags().StringVar(&timezone, "timezone", "", "Override schedule.timezone (IANA name)")
	return cmd
}
