package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/theakshaypant/caldigest/internal/digest"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Build the digest on a cron schedule",
	Long: `Run the digest repeatedly on a standard 5-field cron schedule until
interrupted. Each run resolves --range again, so "next week" always means
the week after the run.

Example:
  caldigest schedule --cron "0 7 * * 1" --send-email`,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().String("cron", "", "Cron spec (default from config: \"0 7 * * 1\")")
	scheduleCmd.Flags().Bool("now", false, "Also run once immediately")
	_ = viper.BindPFlag("schedule", scheduleCmd.Flags().Lookup("cron"))
}

// cronLogger routes cron's own messages through zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	spec := viper.GetString("schedule")
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, err := newRunner(ctx, log)
	if err != nil {
		return err
	}
	opts := runOptions()

	job := func() {
		runScheduled(ctx, runner, opts)
	}

	c := cron.New(
		cron.WithLocation(cfg.Settings.Location()),
		cron.WithLogger(cronLogger{s: log.Sugar()}),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{s: log.Sugar()})),
	)
	if _, err := c.AddFunc(spec, job); err != nil {
		return fmt.Errorf("schedule digest: %w", err)
	}

	fmt.Printf("⏰ Scheduled %q, next run %s\n", spec,
		sched.Next(time.Now().In(cfg.Settings.Location())).Format("Mon Jan 02 15:04 -07:00"))

	if now, _ := cmd.Flags().GetBool("now"); now {
		job()
	}

	c.Start()
	<-ctx.Done()

	log.Info("Stopping scheduler")
	<-c.Stop().Done()
	return nil
}

func runScheduled(ctx context.Context, runner *digest.Runner, opts digest.RunOptions) {
	report, err := runner.Run(ctx, opts)
	if err != nil {
		log.Error("Scheduled digest failed", zap.Error(err))
	}
	if report != nil {
		log.Info("Scheduled digest finished",
			zap.String("run_id", report.RunID),
			zap.String("window", report.Window.String()),
			zap.String("summary", report.Result.Summary()),
			zap.Bool("emailed", report.Emailed),
		)
	}
}
