package granules

import (
	"context"

	"inventory-reconciler/core/catalog"
	"inventory-reconciler/core/reconcile"
	"inventory-reconciler/core/retry"
)

// CatalogSource pages through the provider's granules in the catalog.
type CatalogSource struct {
	searcher catalog.Searcher
	provider string
	pageSize int
}

// NewCatalogSource returns a listing of the provider's granules.
func NewCatalogSource(searcher catalog.Searcher, provider string, pageSize int) *CatalogSource {
	if pageSize <= 0 || pageSize > catalog.MaxPageSize {
		pageSize = catalog.MaxPageSize
	}
	return &CatalogSource{searcher: searcher, provider: provider, pageSize: pageSize}
}

func (s *CatalogSource) Name() string {
	return "cmr granules " + s.provider
}

func (s *CatalogSource) Check(ctx context.Context) error {
	if s.searcher == nil {
		return reconcile.NewConfigurationError(s.Name(), "catalog not configured", nil)
	}
	return nil
}

func (s *CatalogSource) Fetch(ctx context.Context, cursor reconcile.Cursor) (reconcile.Page, error) {
	pos, err := catalog.ParsePosition(string(cursor))
	if err != nil {
		return reconcile.Page{}, retry.Permanent(err)
	}

	res, err := s.searcher.SearchGranules(ctx, pos.Query(s.pageSize))
	if err != nil {
		return reconcile.Page{}, err
	}

	records := make([]reconcile.InventoryRecord, 0, len(res.Items))
	for _, g := range res.Items {
		rec, err := CatalogRecord(g)
		if err != nil {
			return reconcile.Page{}, err
		}
		records = append(records, rec)
	}

	next, done := pos.Advance(len(res.Items), res.Hits, s.pageSize, res.SearchAfter)
	return reconcile.Page{Records: records, Next: reconcile.Cursor(next.Encode()), Done: done}, nil
}
