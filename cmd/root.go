package cmd

import (
	"context"
	"fmt"
	"os"

	"inventory-reconciler/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configDir string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "inventory-reconciler",
	Short: "Inventory reconciliation for archive deployments",
	Long: `Inventory reconciler compares what an archive deployment believes it holds
with what actually exists: protected bucket objects against the files table,
and the collections and granules tables against the CMR catalog.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.ExecuteContext(context.Background()); err != nil {
		// Console logger so CLI failures read well in a terminal.
		l, logErr := logger.New(&logger.Config{Level: "debug", Format: "console"})
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "Directory containing the .env file")
}
