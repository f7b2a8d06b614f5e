package cmd

import (
	"fmt"
	"os"

	"roster-manager/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "roster-manager",
	Short: "Fighting game content library manager",
	Long: `Roster Manager organizes characters, stages, and screenpacks for
MUGEN-style engines: it keeps the roster script, the filesystem, and a
searchable library index in agreement.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console format with the dev encoder so CLI errors come out
		// readable instead of as JSON with epoch timestamps.
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
