package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/txemi/immich-autotag-sub000/feature/status"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var daemonSchedule string

// daemonCmd runs repeated reconciliation passes on a cron schedule, with the
// status server enabled.
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run repeated passes on a schedule",
	Long: `Runs the reconciliation pass on a cron schedule and serves GET /status and
GET /report for monitoring. Stops gracefully on SIGINT/SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		srv := status.New(a.cfg.Server, a.runStats, a.rep, a.coll, a.logger)
		go func() {
			if err := srv.Listen(); err != nil {
				a.logger.Error("status server stopped", zap.Error(err))
			}
		}()

		c := cron.New()
		_, err = c.AddFunc(daemonSchedule, func() {
			a.logger.Info("scheduled pass starting", zap.String("schedule", daemonSchedule))
			if err := a.organize(ctx, a.cfg.Organizer, ""); err != nil {
				a.logger.Error("scheduled pass failed", zap.Error(err))
			}
		})
		if err != nil {
			return err
		}
		c.Start()
		a.logger.Info("daemon started", zap.String("schedule", daemonSchedule))

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		a.logger.Info("shutting down")
		<-c.Stop().Done()
		return srv.Shutdown()
	},
}

func init() {
	daemonCmd.Flags().StringVar(&daemonSchedule, "schedule", "@hourly", "cron schedule for reconciliation passes")
	RootCmd.AddCommand(daemonCmd)
}
