package files

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"inventory-reconciler/core/database"
	"inventory-reconciler/core/reconcile"
	"inventory-reconciler/core/retry"

	"gorm.io/gorm"
)

// DBSource scans the files table of the given buckets in id order.
// Its cursor is the last id returned.
type DBSource struct {
	db       *gorm.DB
	buckets  []string
	prefix   string
	pageSize int
}

// NewDBSource returns a scan of the files registered in buckets whose
// filepath starts with prefix. An empty prefix matches every file.
func NewDBSource(db *gorm.DB, buckets []string, prefix string, pageSize int) *DBSource {
	if pageSize <= 0 {
		pageSize = 1000
	}
	return &DBSource{db: db, buckets: buckets, prefix: prefix, pageSize: pageSize}
}

func (s *DBSource) Name() string {
	return "db files"
}

// Check verifies the files and granules tables.
func (s *DBSource) Check(ctx context.Context) error {
	if s.db == nil {
		return reconcile.NewConfigurationError(s.Name(), "database not connected", nil)
	}
	if len(s.buckets) == 0 {
		return reconcile.NewConfigurationError(s.Name(), "no protected buckets configured", nil)
	}
	if err := checkTable(ctx, s.db, s.Name(), "files", "id", "bucket", "filepath", "granule_id"); err != nil {
		return err
	}
	return checkTable(ctx, s.db, s.Name(), "granules", "id", "granuleId")
}

func (s *DBSource) Fetch(ctx context.Context, cursor reconcile.Cursor) (reconcile.Page, error) {
	if len(s.buckets) == 0 {
		return reconcile.Page{Done: true}, nil
	}
	after, err := parseID(cursor)
	if err != nil {
		return reconcile.Page{}, err
	}

	q := s.db.WithContext(ctx).
		Table("files").
		Select("files.id, files.bucket, files.filepath, granules.granuleId AS granule_ref").
		Joins("LEFT JOIN granules ON granules.id = files.granule_id").
		Where("files.id > ? AND files.bucket IN ?", after, s.buckets)
	if s.prefix != "" {
		q = q.Where("files.filepath LIKE ? ESCAPE '!'", likePrefix(s.prefix))
	}

	var rows []Row
	err = q.Order("files.id").Limit(s.pageSize).Scan(&rows).Error
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return reconcile.Page{}, ctxErr
		}
		return reconcile.Page{}, &reconcile.TransientSourceError{Source: s.Name(), Err: err}
	}

	records := make([]reconcile.InventoryRecord, 0, len(rows))
	for _, r := range rows {
		// LIKE folds case under the default collations; S3 prefixes do not.
		if !strings.HasPrefix(r.Key, s.prefix) {
			continue
		}
		rec, err := RowRecord(r)
		if err != nil {
			return reconcile.Page{}, err
		}
		records = append(records, rec)
	}

	page := reconcile.Page{Records: records, Next: cursor, Done: len(rows) < s.pageSize}
	if len(rows) > 0 {
		page.Next = reconcile.Cursor(strconv.FormatUint(rows[len(rows)-1].ID, 10))
	}
	return page, nil
}

// likePrefix turns prefix into a LIKE pattern matching it literally.
// '!' is the escape character; both MySQL and SQLite accept the ESCAPE clause.
func likePrefix(prefix string) string {
	return likeEscaper.Replace(prefix) + "%"
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func parseID(c reconcile.Cursor) (uint64, error) {
	if c == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(string(c), 10, 64)
	if err != nil {
		return 0, retry.Permanent(err)
	}
	return id, nil
}

func checkTable(ctx context.Context, db *gorm.DB, source, table string, columns ...string) error {
	err := database.CheckTable(ctx, db, table, columns...)
	if err == nil {
		return nil
	}
	var se *database.SchemaError
	if errors.Is(err, database.ErrMissingTable) || errors.As(err, &se) {
		return reconcile.NewConfigurationError(source, "invalid table "+table, err)
	}
	return err
}
