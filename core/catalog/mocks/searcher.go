package mocks

import (
	"context"

	"inventory-reconciler/core/catalog"

	"github.com/stretchr/testify/mock"
)

// Searcher is a mock implementation of catalog.Searcher
type Searcher struct {
	mock.Mock
}

func (m *Searcher) SearchCollections(ctx context.Context, q catalog.Query) (catalog.Result[catalog.Collection], error) {
	args := m.Called(ctx, q)
	res, _ := args.Get(0).(catalog.Result[catalog.Collection])
	return res, args.Error(1)
}

func (m *Searcher) SearchGranules(ctx context.Context, q catalog.Query) (catalog.Result[catalog.Granule], error) {
	args := m.Called(ctx, q)
	res, _ := args.Get(0).(catalog.Result[catalog.Granule])
	return res, args.Error(1)
}
