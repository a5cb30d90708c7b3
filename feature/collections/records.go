package collections

import (
	"inventory-reconciler/core/catalog"
	"inventory-reconciler/core/reconcile"
)

// Row is a collections table entry.
type Row struct {
	ID      uint64 `gorm:"column:id"`
	Name    string `gorm:"column:name"`
	Version string `gorm:"column:version"`
}

// RowRecord keys a collection row as name___version.
func RowRecord(r Row) (reconcile.InventoryRecord, error) {
	id, err := reconcile.CollectionID(r.Name, r.Version)
	if err != nil {
		return reconcile.InventoryRecord{}, reconcile.Malformed(reconcile.KindDBCollection, "row %d: %v", r.ID, err)
	}
	return reconcile.InventoryRecord{
		Kind: reconcile.KindDBCollection,
		Key:  id,
		Attributes: map[string]string{
			reconcile.AttrShortName: r.Name,
			reconcile.AttrVersion:   r.Version,
		},
	}, nil
}

// CatalogRecord keys a catalog collection as ShortName___Version.
func CatalogRecord(c catalog.Collection) (reconcile.InventoryRecord, error) {
	id, err := reconcile.CollectionID(c.ShortName, c.Version)
	if err != nil {
		return reconcile.InventoryRecord{}, reconcile.Malformed(reconcile.KindCatalogCollection, "%s: %v", c.ConceptID, err)
	}
	return reconcile.InventoryRecord{
		Kind: reconcile.KindCatalogCollection,
		Key:  id,
		Attributes: map[string]string{
			reconcile.AttrShortName: c.ShortName,
			reconcile.AttrVersion:   c.Version,
		},
	}, nil
}
