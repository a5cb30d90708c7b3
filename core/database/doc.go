// Package database connects to the inventory database and describes the
// tables the reconciler reads.
//
// Connect supports MySQL for deployments and a pure-Go SQLite driver for
// local runs and tests. The File, Collection and Granule models map the
// files, collections and granules tables; Migrate creates them.
//
// CheckTable inspects a table's columns (SHOW COLUMNS on MySQL,
// pragma_table_info on SQLite) so that a missing table or column is reported
// before a run starts rather than halfway through a scan.
//
//	db, err := database.Connect(cfg.Database)
//	if err := database.CheckTable(ctx, db, "files", "bucket", "filepath"); err != nil {
//	    ...
//	}
package database
