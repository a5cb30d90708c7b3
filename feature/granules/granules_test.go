package granules_test

import (
	"context"
	"errors"
	"testing"

	"inventory-reconciler/core/catalog"
	catalogmocks "inventory-reconciler/core/catalog/mocks"
	"inventory-reconciler/core/database"
	"inventory-reconciler/core/reconcile"
	"inventory-reconciler/core/retry"
	"inventory-reconciler/feature/granules"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.Migrate(db))
	return db
}

func drain(t *testing.T, src reconcile.PaginatedSource) []reconcile.InventoryRecord {
	t.Helper()
	var out []reconcile.InventoryRecord
	s := reconcile.NewStream(src, reconcile.StreamOptions{})
	require.NoError(t, reconcile.Drain(context.Background(), s, func(r reconcile.InventoryRecord) error {
		out = append(out, r)
		return nil
	}))
	return out
}

func TestRecords(t *testing.T) {
	rec, err := granules.RowRecord(granules.Row{ID: 1, GranuleID: "G1", Status: "failed", CollectionName: "MOD09GQ", CollectionVersion: "006"})
	require.NoError(t, err)
	assert.Equal(t, "G1", rec.Key)
	assert.Equal(t, "MOD09GQ___006", rec.Attr(reconcile.AttrCollectionID))
	assert.Equal(t, "failed", rec.Attr(reconcile.AttrStatus))

	rec, err = granules.RowRecord(granules.Row{ID: 2, GranuleID: "G2"})
	require.NoError(t, err)
	assert.Empty(t, rec.Attr(reconcile.AttrCollectionID))

	_, err = granules.RowRecord(granules.Row{ID: 3})
	assert.True(t, errors.Is(err, reconcile.ErrMalformedRecord))

	rec, err = granules.CatalogRecord(catalog.Granule{GranuleUR: "G1", ShortName: "MOD09GQ", Version: "006"})
	require.NoError(t, err)
	assert.Equal(t, reconcile.KindCatalogGranule, rec.Kind)
	assert.Equal(t, "MOD09GQ", rec.Attr(reconcile.AttrShortName))

	_, err = granules.CatalogRecord(catalog.Granule{ConceptID: "G-1"})
	assert.True(t, errors.Is(err, reconcile.ErrMalformedRecord))
}

func TestDBSource(t *testing.T) {
	db := setupDB(t)
	coll := database.Collection{Name: "MOD09GQ", Version: "006"}
	require.NoError(t, db.Create(&coll).Error)
	require.NoError(t, db.Create(&[]database.Granule{
		{GranuleID: "MOD09GQ.A1", Status: database.GranuleCompleted, Published: true, CollectionID: coll.ID},
		{GranuleID: "MOD09GQ.A2", Status: database.GranuleRunning, CollectionID: coll.ID},
		{GranuleID: "MOD09GQ.A3", Status: database.GranuleFailed, CollectionID: coll.ID},
	}).Error)

	src := granules.NewDBSource(db, 2)
	require.NoError(t, src.Check(context.Background()))

	recs := drain(t, src)
	assert.Equal(t, []string{"MOD09GQ.A1", "MOD09GQ.A2", "MOD09GQ.A3"}, reconcile.Keys(recs))
	assert.Equal(t, "MOD09GQ___006", recs[1].Attr(reconcile.AttrCollectionID))
	assert.Equal(t, database.GranuleRunning, recs[1].Attr(reconcile.AttrStatus))
}

func TestDBSource_CheckFailures(t *testing.T) {
	assert.True(t, reconcile.IsConfigurationError(granules.NewDBSource(nil, 2).Check(context.Background())))

	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, db.AutoMigrate(&database.Collection{}))

	err = granules.NewDBSource(db, 2).Check(context.Background())
	assert.True(t, reconcile.IsConfigurationError(err))
	assert.True(t, errors.Is(err, database.ErrMissingTable))
}

func TestDBSource_QueryError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectQuery("SELECT granules.id, granules.granuleId").WillReturnError(errors.New("lost connection"))

	_, err = granules.NewDBSource(db, 2).Fetch(context.Background(), "")
	require.Error(t, err)
	assert.False(t, retry.IsPermanent(err))
}

func TestCatalogSource_SearchAfter(t *testing.T) {
	searcher := new(catalogmocks.Searcher)
	searcher.On("SearchGranules", mock.Anything, catalog.Query{PageNum: 1, PageSize: 2}).
		Return(catalog.Result[catalog.Granule]{Hits: -1, SearchAfter: `["g2"]`, Items: []catalog.Granule{
			{GranuleUR: "g1"}, {GranuleUR: "g2"},
		}}, nil).Once()
	searcher.On("SearchGranules", mock.Anything, catalog.Query{PageNum: 2, PageSize: 2, SearchAfter: `["g2"]`}).
		Return(catalog.Result[catalog.Granule]{Hits: -1, SearchAfter: `["g4"]`, Items: []catalog.Granule{
			{GranuleUR: "g3"}, {GranuleUR: "g4"},
		}}, nil).Once()
	searcher.On("SearchGranules", mock.Anything, catalog.Query{PageNum: 3, PageSize: 2, SearchAfter: `["g4"]`}).
		Return(catalog.Result[catalog.Granule]{Hits: -1}, nil).Once()

	recs := drain(t, granules.NewCatalogSource(searcher, "P", 2))
	assert.Equal(t, []string{"g1", "g2", "g3", "g4"}, reconcile.Keys(recs))
	searcher.AssertExpectations(t)
}

func TestCatalogSource_TransientErrorRetried(t *testing.T) {
	searcher := new(catalogmocks.Searcher)
	searcher.On("SearchGranules", mock.Anything, mock.Anything).
		Return(catalog.Result[catalog.Granule]{}, &catalog.StatusError{StatusCode: 503}).Once()
	searcher.On("SearchGranules", mock.Anything, mock.Anything).
		Return(catalog.Result[catalog.Granule]{Hits: 1, Items: []catalog.Granule{{GranuleUR: "g1"}}}, nil).Once()

	policy := retry.NewPolicy(retry.Config{MaxAttempts: 3, BaseDelay: 1, MaxDelay: 1})
	s := reconcile.NewStream(granules.NewCatalogSource(searcher, "P", 10), reconcile.StreamOptions{Policy: policy})
	batch, err := s.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"g1"}, reconcile.Keys(batch))
}
