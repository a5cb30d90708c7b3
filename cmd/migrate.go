package cmd

import (
	"fmt"

	"inventory-reconciler/core/database"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// migrateCmd creates the inventory tables. Intended for local sqlite
// databases and test deployments; production schemas are owned elsewhere.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the collections, granules and files tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false, nil)
		if err != nil {
			return err
		}
		defer a.close()

		db, err := database.Connect(a.cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		a.db = db

		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
		a.log.Info("Inventory tables migrated", zap.String("driver", a.cfg.Database.Driver))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(migrateCmd)
}
