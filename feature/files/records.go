package files

import (
	"inventory-reconciler/core/reconcile"
)

// ObjectRow is an object listed from a protected bucket.
type ObjectRow struct {
	Bucket string
	Key    string
	Size   int64
	ETag   string
}

// Row is a files table entry joined with its granule.
type Row struct {
	ID        uint64 `gorm:"column:id"`
	Bucket    string `gorm:"column:bucket"`
	Key       string `gorm:"column:filepath"`
	GranuleID string `gorm:"column:granule_ref"`
}

// ObjectRecord keys an object by bucket and key.
func ObjectRecord(o ObjectRow) (reconcile.InventoryRecord, error) {
	key, err := reconcile.FileKey(o.Bucket, o.Key)
	if err != nil {
		return reconcile.InventoryRecord{}, reconcile.Malformed(reconcile.KindFileObject, "%v", err)
	}
	return reconcile.InventoryRecord{
		Kind: reconcile.KindFileObject,
		Key:  key,
		Attributes: map[string]string{
			reconcile.AttrBucket:    o.Bucket,
			reconcile.AttrObjectKey: o.Key,
		},
	}, nil
}

// RowRecord keys a files table row by bucket and key. The owning granule is
// kept for the report.
func RowRecord(r Row) (reconcile.InventoryRecord, error) {
	key, err := reconcile.FileKey(r.Bucket, r.Key)
	if err != nil {
		return reconcile.InventoryRecord{}, reconcile.Malformed(reconcile.KindDBFile, "row %d: %v", r.ID, err)
	}
	attrs := map[string]string{
		reconcile.AttrBucket:    r.Bucket,
		reconcile.AttrObjectKey: r.Key,
	}
	if r.GranuleID != "" {
		attrs[reconcile.AttrGranuleID] = r.GranuleID
	}
	return reconcile.InventoryRecord{Kind: reconcile.KindDBFile, Key: key, Attributes: attrs}, nil
}
