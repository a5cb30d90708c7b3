package granules

import (
	"inventory-reconciler/core/catalog"
	"inventory-reconciler/core/reconcile"
)

// Row is a granules table entry joined with its collection.
type Row struct {
	ID                uint64 `gorm:"column:id"`
	GranuleID         string `gorm:"column:granuleId"`
	Status            string `gorm:"column:status"`
	CollectionName    string `gorm:"column:collection_name"`
	CollectionVersion string `gorm:"column:collection_version"`
}

// RowRecord keys a granule row by its granule id.
func RowRecord(r Row) (reconcile.InventoryRecord, error) {
	if r.GranuleID == "" {
		return reconcile.InventoryRecord{}, reconcile.Malformed(reconcile.KindDBGranule, "row %d: empty granule id", r.ID)
	}
	attrs := map[string]string{}
	if r.Status != "" {
		attrs[reconcile.AttrStatus] = r.Status
	}
	if id, err := reconcile.CollectionID(r.CollectionName, r.CollectionVersion); err == nil {
		attrs[reconcile.AttrCollectionID] = id
	}
	return reconcile.InventoryRecord{Kind: reconcile.KindDBGranule, Key: r.GranuleID, Attributes: attrs}, nil
}

// CatalogRecord keys a catalog granule by its GranuleUR.
func CatalogRecord(g catalog.Granule) (reconcile.InventoryRecord, error) {
	if g.GranuleUR == "" {
		return reconcile.InventoryRecord{}, reconcile.Malformed(reconcile.KindCatalogGranule, "%s: empty GranuleUR", g.ConceptID)
	}
	return reconcile.InventoryRecord{
		Kind: reconcile.KindCatalogGranule,
		Key:  g.GranuleUR,
		Attributes: map[string]string{
			reconcile.AttrShortName: g.ShortName,
			reconcile.AttrVersion:   g.Version,
		},
	}, nil
}
