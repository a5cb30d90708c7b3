package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var pruneKeep int

// reportsCmd groups the report housekeeping commands.
var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Inspect and prune stored reconciliation reports",
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored reports, oldest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false, nil)
		if err != nil {
			return err
		}
		defer a.close()

		keys, err := a.service.List(cmd.Context())
		if err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Fprintln(cmd.OutOrStdout(), k)
		}
		a.log.Info("Reports listed", zap.Int("count", len(keys)))
		return nil
	},
}

var reportsShowCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Print a stored report as JSON",
	Long: `Prints a report. The key may be the full object key or the bare file name
inside the reports namespace, e.g. inventoryReport-20240101T000000000-3f2a9c1e.json.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false, nil)
		if err != nil {
			return err
		}
		defer a.close()

		r, err := a.service.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	},
}

var reportsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the newest reports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false, nil)
		if err != nil {
			return err
		}
		defer a.close()

		keep := pruneKeep
		if !cmd.Flags().Changed("keep") {
			keep = a.cfg.Reconcile.RetainReports
		}
		if keep <= 0 {
			return fmt.Errorf("nothing to prune: --keep must be positive (reconcile.retain_reports is %d)", a.cfg.Reconcile.RetainReports)
		}

		deleted, err := a.service.Prune(cmd.Context(), keep)
		if err != nil {
			return err
		}
		for _, k := range deleted {
			fmt.Fprintln(cmd.OutOrStdout(), "deleted", k)
		}
		a.log.Info("Reports pruned", zap.Int("deleted", len(deleted)), zap.Int("kept", keep))
		return nil
	},
}

func init() {
	reportsPruneCmd.Flags().IntVar(&pruneKeep, "keep", 0, "Number of newest reports to keep (default reconcile.retain_reports)")

	reportsCmd.AddCommand(reportsListCmd, reportsShowCmd, reportsPruneCmd)
	RootCmd.AddCommand(reportsCmd)
}
