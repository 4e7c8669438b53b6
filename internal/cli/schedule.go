package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"showlist/internal/config"
	"showlist/internal/logger"
)

// ErrNoSchedule is returned when schedule.cron is empty.
var ErrNoSchedule = errors.New("schedule.cron is required")

// NewScheduleCommand creates the schedule command.
func NewScheduleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run on a cron schedule",
		Long: `Run the ETL on a standard five-field cron schedule, evaluated in the
configured time zone. A run that is still in progress when the next one is
due causes that one to be skipped.`,
		Example: `  # Every morning at 6
  showlist schedule --cron "0 6 * * *" --events https://example.com/list.txt --venues venues.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig(cmd.Context())
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			log := logger.FromContext(cmd.Context()).WithComponent("schedule")
			r := newRunner(cfg, logger.FromContext(cmd.Context()))

			return schedule(cmd.Context(), cfg, log, func(ctx context.Context) {
				runAndLog(ctx, r, log)
			})
		},
	}

	addRunFlags(cmd.Flags())
	cmd.Flags().String("cron", "", "Cron expression (minute hour day-of-month month day-of-week)")
	cmd.Flags().Bool("run-on-start", false, "Run once immediately before waiting for the schedule")

	return cmd
}

// schedule blocks until ctx is done, calling run on the configured schedule.
func schedule(ctx context.Context, cfg *config.Config, log *logger.Logger, run func(context.Context)) error {
	if cfg.Schedule.Cron == "" {
		return ErrNoSchedule
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	cl := cronLogger{log: log}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	id, err := c.AddFunc(cfg.Schedule.Cron, func() { run(ctx) })
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalidCron, err)
	}

	if cfg.Schedule.RunOnStart {
		run(ctx)
	}

	c.Start()
	log.Info("scheduler started", "cron", cfg.Schedule.Cron, "next", c.Entry(id).Schedule.Next(time.Now().In(loc)))

	<-ctx.Done()
	<-c.Stop().Done()

	log.Info("scheduler stopped")

	return nil
}

// cronLogger adapts Logger to cron.Logger. Cron's routine messages are
// logged at debug level.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
