package cmd

import (
	"fmt"
	"os"

	"github.com/txemi/immich-autotag-sub000/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "immich-autotag",
	Short: "Immich classification and album reconciliation engine",
	Long: `immich-autotag classifies the assets of an Immich server with user-defined
rules and reconciles album membership: folder-derived event albums, duplicate-album
merging and date-bucket holding albums for everything else.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Use the application's standard logger for error reporting
		// We default to console format to match user expectations (CLI tool)
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			// Absolute fallback if logger creation fails (rare)
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
