package cmd

import (
	"github.com/spf13/cobra"
)

var (
	runWorkers int
	runResume  bool
	runDryRun  bool
	runAssets  []string
)

// runCmd represents the one-shot organize run.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one classification and reconciliation pass",
	Long: `Resyncs the album collection, classifies every asset against the configured
rules and reconciles album membership and bookkeeping tags, then prints a run
summary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		ocfg := a.cfg.Organizer
		if cmd.Flags().Changed("workers") {
			ocfg.Workers = runWorkers
		}
		if runResume {
			ocfg.Resume = true
		}
		if runDryRun {
			ocfg.DryRun = true
		}
		if len(runAssets) > 0 {
			ocfg.AssetIDs = runAssets
		}

		var resumeFrom string
		if ocfg.Resume {
			if ocfg.Workers > 1 {
				a.logger.Warn("resume is only supported sequentially, forcing one worker")
				ocfg.Workers = 1
			}
			resumeFrom = a.resumePoint()
		}

		if err := a.organize(ctx, ocfg, resumeFrom); err != nil {
			return err
		}
		a.printSummary(cmd)
		return nil
	},
}

func init() {
	runCmd.Flags().IntVar(&runWorkers, "workers", 1, "parallel pipeline workers (1 = sequential with checkpoints)")
	runCmd.Flags().BoolVar(&runResume, "resume", false, "resume from the last unfinished run's checkpoint")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "record the report without mutating the server")
	runCmd.Flags().StringSliceVar(&runAssets, "asset", nil, "restrict the run to these asset ids")
	RootCmd.AddCommand(runCmd)
}
