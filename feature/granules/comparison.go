package granules

import (
	"inventory-reconciler/core/catalog"
	"inventory-reconciler/core/reconcile"

	"gorm.io/gorm"
)

// Comparison checks the granules table against the catalog.
func Comparison(db *gorm.DB, searcher catalog.Searcher, provider string, dbPageSize, catalogPageSize int) reconcile.Comparison {
	c := reconcile.Comparison{
		Name:  reconcile.ComparisonGranules,
		Left:  NewDBSource(db, dbPageSize),
		Build: reconcile.BuildLeft,
	}
	if searcher != nil {
		c.Right = NewCatalogSource(searcher, provider, catalogPageSize)
	}
	return c
}
