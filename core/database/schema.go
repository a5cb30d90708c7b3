package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ErrMissingTable is returned when a table does not exist.
var ErrMissingTable = errors.New("table does not exist")

// SchemaError lists required columns absent from a table.
type SchemaError struct {
	Table   string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("table %s is missing columns: %s", e.Table, strings.Join(e.Missing, ", "))
}

// ColumnInfo matches the output of SHOW COLUMNS.
type ColumnInfo struct {
	Field   string
	Type    string
	Null    string
	Key     string
	Default *string
	Extra   string
}

// TableColumns retrieves the column definitions for a table. Names and
// types are lowercased.
func TableColumns(ctx context.Context, db *gorm.DB, table string) ([]ColumnInfo, error) {
	var columns []ColumnInfo
	if db.Dialector.Name() == DriverSQLite {
		type sqliteColumn struct {
			Cid        int
			Name       string
			Type       string
			Notnull    int
			DefaultVal *string `gorm:"column:dflt_value"`
			Pk         int
		}
		var cols []sqliteColumn
		if err := db.WithContext(ctx).Raw("SELECT * FROM pragma_table_info(?)", table).Scan(&cols).Error; err != nil {
			return nil, fmt.Errorf("failed to get columns for table %s: %w", table, err)
		}
		for _, col := range cols {
			columns = append(columns, ColumnInfo{
				Field:   strings.ToLower(col.Name),
				Type:    strings.ToLower(col.Type),
				Default: col.DefaultVal,
			})
		}
		return columns, nil
	}

	err := db.WithContext(ctx).Raw(fmt.Sprintf("SHOW COLUMNS FROM `%s`", strings.ReplaceAll(table, "`", ""))).Scan(&columns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get columns for table %s: %w", table, err)
	}
	for i := range columns {
		columns[i].Type = strings.ToLower(columns[i].Type)
		columns[i].Field = strings.ToLower(columns[i].Field)
	}
	return columns, nil
}

// CheckTable verifies that table exists and has every required column.
// A missing table wraps ErrMissingTable; missing columns yield a *SchemaError.
func CheckTable(ctx context.Context, db *gorm.DB, table string, required ...string) error {
	if db == nil {
		return fmt.Errorf("database not connected")
	}
	columns, err := TableColumns(ctx, db, table)
	if err != nil {
		if isMissingTable(err) {
			return fmt.Errorf("%w: %s", ErrMissingTable, table)
		}
		return err
	}
	if len(columns) == 0 {
		return fmt.Errorf("%w: %s", ErrMissingTable, table)
	}

	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[c.Field] = true
	}
	var missing []string
	for _, col := range required {
		if !have[strings.ToLower(col)] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Table: table, Missing: missing}
	}
	return nil
}

// isMissingTable recognizes MySQL error 1146.
func isMissingTable(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Error 1146") || strings.Contains(msg, "doesn't exist")
}
