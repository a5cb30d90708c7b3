package collections

import (
	"inventory-reconciler/core/catalog"
	"inventory-reconciler/core/reconcile"

	"gorm.io/gorm"
)

// Comparison checks the collections table against the catalog. The table is
// built; catalog pages are probed through it.
func Comparison(db *gorm.DB, searcher catalog.Searcher, provider string, dbPageSize, catalogPageSize int) reconcile.Comparison {
	c := reconcile.Comparison{
		Name:  reconcile.ComparisonCollections,
		Left:  NewDBSource(db, dbPageSize),
		Build: reconcile.BuildLeft,
	}
	if searcher != nil {
		c.Right = NewCatalogSource(searcher, provider, catalogPageSize)
	}
	return c
}
