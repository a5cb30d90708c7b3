package files

import (
	"inventory-reconciler/core/reconcile"
	"inventory-reconciler/core/storage"

	"gorm.io/gorm"
)

// Comparison lists every protected bucket against the files table. The
// database side is built; the listing is probed through it. prefix
// restricts both sides to the same key space.
func Comparison(client storage.Client, db *gorm.DB, protected []storage.Bucket, prefix string, pageSize int) reconcile.Comparison {
	names := make([]string, 0, len(protected))
	for _, b := range protected {
		names = append(names, b.Name)
	}
	return reconcile.Comparison{
		Name:  reconcile.ComparisonFiles,
		Left:  ObjectSources(client, protected, prefix, pageSize),
		Right: NewDBSource(db, names, prefix, pageSize),
		Build: reconcile.BuildRight,
	}
}
