package granules

import (
	"context"
	"errors"
	"strconv"

	"inventory-reconciler/core/database"
	"inventory-reconciler/core/reconcile"
	"inventory-reconciler/core/retry"

	"gorm.io/gorm"
)

// DBSource scans the granules table in id order.
type DBSource struct {
	db       *gorm.DB
	pageSize int
}

// NewDBSource returns a scan of the granules table.
func NewDBSource(db *gorm.DB, pageSize int) *DBSource {
	if pageSize <= 0 {
		pageSize = 1000
	}
	return &DBSource{db: db, pageSize: pageSize}
}

func (s *DBSource) Name() string {
	return "db granules"
}

func (s *DBSource) Check(ctx context.Context) error {
	if s.db == nil {
		return reconcile.NewConfigurationError(s.Name(), "database not connected", nil)
	}
	for table, cols := range map[string][]string{
		"granules":    {"id", "granuleId", "status", "collection_id"},
		"collections": {"id", "name", "version"},
	} {
		err := database.CheckTable(ctx, s.db, table, cols...)
		var se *database.SchemaError
		if errors.Is(err, database.ErrMissingTable) || errors.As(err, &se) {
			return reconcile.NewConfigurationError(s.Name(), "invalid table "+table, err)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *DBSource) Fetch(ctx context.Context, cursor reconcile.Cursor) (reconcile.Page, error) {
	var after uint64
	if cursor != "" {
		id, err := strconv.ParseUint(string(cursor), 10, 64)
		if err != nil {
			return reconcile.Page{}, retry.Permanent(err)
		}
		after = id
	}

	var rows []Row
	err := s.db.WithContext(ctx).
		Table("granules").
		Select("granules.id, granules.granuleId, granules.status, collections.name AS collection_name, collections.version AS collection_version").
		Joins("LEFT JOIN collections ON collections.id = granules.collection_id").
		Where("granules.id > ?", after).
		Order("granules.id").
		Limit(s.pageSize).
		Scan(&rows).Error
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return reconcile.Page{}, ctxErr
		}
		return reconcile.Page{}, &reconcile.TransientSourceError{Source: s.Name(), Err: err}
	}

	page := reconcile.Page{Records: make([]reconcile.InventoryRecord, 0, len(rows)), Next: cursor, Done: len(rows) < s.pageSize}
	for _, r := range rows {
		rec, err := RowRecord(r)
		if err != nil {
			return reconcile.Page{}, err
		}
		page.Records = append(page.Records, rec)
	}
	if len(rows) > 0 {
		page.Next = reconcile.Cursor(strconv.FormatUint(rows[len(rows)-1].ID, 10))
	}
	return page, nil
}
