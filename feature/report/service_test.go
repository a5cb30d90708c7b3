package report_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"

	"inventory-reconciler/core/catalog"
	catalogmocks "inventory-reconciler/core/catalog/mocks"
	"inventory-reconciler/core/database"
	"inventory-reconciler/core/reconcile"
	"inventory-reconciler/core/retry"
	"inventory-reconciler/core/storage"
	"inventory-reconciler/core/storage/mocks"
	"inventory-reconciler/feature/report"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const bucketsJSON = `{
  "protected": {"name": "prot", "type": "protected"},
  "public": {"name": "pub", "type": "public"},
  "internal": {"name": "sys", "type": "internal"}
}`

type fixture struct {
	client   *mocks.Client
	searcher *catalogmocks.Searcher
	db       *gorm.DB
	opts     report.Options
	written  []byte
}

func reconcileConfig() reconcile.Config {
	return reconcile.Config{
		MaxSampleSize:      100,
		PageSize:           2,
		PrefetchPages:      2,
		RetryAttempts:      2,
		RetryBaseDelayMs:   1,
		RetryMaxDelayMs:    1,
		CompareFiles:       true,
		CompareCollections: true,
		CompareGranules:    true,
	}
}

func listing(keys ...string) func(minio.ListObjectsOptions) []minio.ObjectInfo {
	sort.Strings(keys)
	return func(opts minio.ListObjectsOptions) []minio.ObjectInfo {
		var out []minio.ObjectInfo
		for _, k := range keys {
			if strings.HasPrefix(k, opts.Prefix) && k > opts.StartAfter {
				out = append(out, minio.ObjectInfo{Key: k})
			}
		}
		return out
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.Migrate(db))

	mod := database.Collection{Name: "MOD09GQ", Version: "006"}
	extra := database.Collection{Name: "EXTRA", Version: "001"}
	require.NoError(t, db.Create(&mod).Error)
	require.NoError(t, db.Create(&extra).Error)
	g1 := database.Granule{GranuleID: "g1", Status: database.GranuleCompleted, Published: true, CollectionID: mod.ID}
	g2 := database.Granule{GranuleID: "g2", Status: database.GranuleRunning, CollectionID: mod.ID}
	require.NoError(t, db.Create(&g1).Error)
	require.NoError(t, db.Create(&g2).Error)
	require.NoError(t, db.Create(&[]database.File{
		{Bucket: "prot", Key: "MOD/a.hdf", GranuleID: g1.ID},
		{Bucket: "prot", Key: "MOD/b.hdf", GranuleID: g1.ID},
		{Bucket: "prot", Key: "MOD/missing.hdf", GranuleID: g2.ID},
		{Bucket: "pub", Key: "MOD/a.jpg", GranuleID: g1.ID},
	}).Error)

	f := &fixture{
		client:   new(mocks.Client),
		searcher: new(catalogmocks.Searcher),
		db:       db,
		opts: report.Options{
			Reconcile:       reconcileConfig(),
			Storage:         storage.Config{SystemBucket: "sys", StackName: "stack"},
			CatalogProvider: "LPDAAC",
			CatalogPageSize: 10,
		},
	}

	f.client.On("GetObject", mock.Anything, "sys", "stack/workflows/buckets.json", mock.Anything).
		Return(io.NopCloser(strings.NewReader(bucketsJSON)), nil).Maybe()
	f.client.On("BucketExists", mock.Anything, "prot").Return(true, nil).Maybe()
	f.client.On("ListObjects", mock.Anything, "prot", mock.Anything).
		Return(listing("MOD/a.hdf", "MOD/b.hdf", "MOD/extra.hdf")).Maybe()
	f.client.On("PutObject", mock.Anything, "sys", mock.MatchedBy(func(k string) bool {
		return strings.HasPrefix(k, "stack/reconciliation-reports/inventoryReport-")
	}), mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			f.written, _ = io.ReadAll(args.Get(3).(io.Reader))
		}).
		Return(minio.UploadInfo{}, nil).Maybe()

	f.searcher.On("SearchCollections", mock.Anything, mock.Anything).
		Return(catalog.Result[catalog.Collection]{Hits: 2, Items: []catalog.Collection{
			{ShortName: "MOD09GQ", Version: "006"},
			{ShortName: "CMRONLY", Version: "1"},
		}}, nil).Maybe()
	return f
}

func (f *fixture) granulesOK() {
	f.searcher.On("SearchGranules", mock.Anything, mock.Anything).
		Return(catalog.Result[catalog.Granule]{Hits: 2, Items: []catalog.Granule{
			{GranuleUR: "g1", ShortName: "MOD09GQ", Version: "006"},
			{GranuleUR: "cmrOnly", ShortName: "CMRONLY", Version: "1"},
		}}, nil)
}

func (f *fixture) service() *report.Service {
	return report.NewService(f.opts, f.client, f.db, f.searcher, nil, nil)
}

func TestService_Run(t *testing.T) {
	f := newFixture(t)
	f.granulesOK()

	result, err := f.service().Run(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.Key, "stack/reconciliation-reports/inventoryReport-"))

	r := result.Report
	assert.Equal(t, reconcile.ReportSuccess, r.Status)

	assert.Equal(t, reconcile.SectionCompleted, r.FilesInCumulus.Status)
	assert.Equal(t, 2, *r.FilesInCumulus.OKCount)
	assert.Equal(t, []string{"s3://prot/MOD/extra.hdf"}, r.FilesInCumulus.OnlyInS3)
	assert.Equal(t, []reconcile.FileEntry{{URI: "s3://prot/MOD/missing.hdf", GranuleID: "g2"}}, r.FilesInCumulus.OnlyInDynamoDb)

	assert.Equal(t, 1, *r.CollectionsInCumulusCmr.OKCollectionCount)
	assert.Equal(t, []string{"EXTRA___001"}, r.CollectionsInCumulusCmr.OnlyInCumulus)
	assert.Equal(t, []string{"CMRONLY___1"}, r.CollectionsInCumulusCmr.OnlyInCmr)

	assert.Equal(t, 1, *r.GranulesInCumulusCmr.OKGranuleCount)
	assert.Equal(t, []reconcile.GranuleEntry{{GranuleID: "g2", CollectionID: "MOD09GQ___006", Status: "running"}}, r.GranulesInCumulusCmr.OnlyInCumulus)
	assert.Equal(t, []reconcile.CmrGranuleEntry{{GranuleUR: "cmrOnly", ShortName: "CMRONLY", Version: "1"}}, r.GranulesInCumulusCmr.OnlyInCmr)

	var persisted reconcile.Report
	require.NoError(t, json.Unmarshal(f.written, &persisted))
	assert.Equal(t, r.ReportID, persisted.ReportID)
}

func TestService_PartialFailure(t *testing.T) {
	f := newFixture(t)
	f.searcher.On("SearchGranules", mock.Anything, mock.Anything).
		Return(catalog.Result[catalog.Granule]{}, retry.Permanent(&catalog.StatusError{StatusCode: 400, Body: "bad query"}))

	result, err := f.service().Run(context.Background())
	require.NoError(t, err)

	r := result.Report
	assert.Equal(t, reconcile.ReportPartial, r.Status)
	assert.Equal(t, reconcile.SectionFailed, r.GranulesInCumulusCmr.Status)
	assert.Contains(t, r.GranulesInCumulusCmr.Error, "bad query")
	assert.Nil(t, r.GranulesInCumulusCmr.OKGranuleCount)
	assert.Equal(t, reconcile.SectionCompleted, r.FilesInCumulus.Status)
	assert.Equal(t, reconcile.SectionCompleted, r.CollectionsInCumulusCmr.Status)
}

func TestService_MissingBucketsConfig(t *testing.T) {
	f := newFixture(t)
	f.client.ExpectedCalls = nil
	f.client.On("GetObject", mock.Anything, "sys", "stack/workflows/buckets.json", mock.Anything).
		Return(nil, minio.ErrorResponse{Code: "NoSuchKey"})

	_, err := f.service().Run(context.Background())
	require.Error(t, err)
	assert.True(t, reconcile.IsConfigurationError(err))
	f.client.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_BucketsConfigUnreadable(t *testing.T) {
	f := newFixture(t)
	f.granulesOK()
	f.client.ExpectedCalls = nil
	f.client.On("GetObject", mock.Anything, "sys", "stack/workflows/buckets.json", mock.Anything).
		Return(nil, errors.New("503 SlowDown"))
	f.client.On("PutObject", mock.Anything, "sys", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			f.written, _ = io.ReadAll(args.Get(3).(io.Reader))
		}).
		Return(minio.UploadInfo{}, nil)

	result, err := f.service().Run(context.Background())
	require.NoError(t, err)

	r := result.Report
	assert.Equal(t, reconcile.ReportPartial, r.Status)
	assert.Equal(t, reconcile.SectionFailed, r.FilesInCumulus.Status)
	assert.Contains(t, r.FilesInCumulus.Error, "503 SlowDown")
	assert.Nil(t, r.FilesInCumulus.OKCount)
	assert.Equal(t, reconcile.SectionCompleted, r.CollectionsInCumulusCmr.Status)
	assert.Equal(t, reconcile.SectionCompleted, r.GranulesInCumulusCmr.Status)
	assert.Equal(t, 1, *r.GranulesInCumulusCmr.OKGranuleCount)

	// Retried per the policy before giving up.
	f.client.AssertNumberOfCalls(t, "GetObject", 2)
	f.client.AssertNotCalled(t, "ListObjects", mock.Anything, "prot", mock.Anything)
	assert.NotEmpty(t, f.written)
}

func TestService_NoProtectedBuckets(t *testing.T) {
	f := newFixture(t)
	f.client.ExpectedCalls = nil
	f.client.On("GetObject", mock.Anything, "sys", "stack/workflows/buckets.json", mock.Anything).
		Return(io.NopCloser(strings.NewReader(`{"public":{"name":"pub","type":"public"}}`)), nil)

	_, err := f.service().Run(context.Background())
	assert.True(t, reconcile.IsConfigurationError(err))
}

func TestService_FilesDisabled(t *testing.T) {
	f := newFixture(t)
	f.granulesOK()
	f.opts.Reconcile.CompareFiles = false

	result, err := f.service().Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, reconcile.SectionSkipped, result.Report.FilesInCumulus.Status)
	assert.Nil(t, result.Report.FilesInCumulus.OnlyInS3)
	f.client.AssertNotCalled(t, "GetObject", mock.Anything, "sys", "stack/workflows/buckets.json", mock.Anything)
}

func TestService_NoCatalog(t *testing.T) {
	f := newFixture(t)
	svc := report.NewService(f.opts, f.client, f.db, nil, nil, nil)

	_, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.True(t, reconcile.IsConfigurationError(err))
}

func TestService_PersistenceError(t *testing.T) {
	f := newFixture(t)
	f.granulesOK()
	f.client.ExpectedCalls = nil
	f.client.On("GetObject", mock.Anything, "sys", "stack/workflows/buckets.json", mock.Anything).
		Return(io.NopCloser(strings.NewReader(bucketsJSON)), nil)
	f.client.On("BucketExists", mock.Anything, "prot").Return(true, nil)
	f.client.On("ListObjects", mock.Anything, "prot", mock.Anything).Return(listing("MOD/a.hdf"))
	f.client.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("AccessDenied"))

	_, err := f.service().Run(context.Background())
	var pe *reconcile.PersistenceError
	assert.True(t, errors.As(err, &pe))
}

func TestService_RetainReports(t *testing.T) {
	f := newFixture(t)
	f.granulesOK()
	f.opts.Reconcile.RetainReports = 1
	f.client.On("ListObjects", mock.Anything, "sys", mock.Anything).Return(listing(
		"stack/reconciliation-reports/inventoryReport-20200101T000000000.json",
		"stack/reconciliation-reports/inventoryReport-20200102T000000000.json",
	))
	f.client.On("RemoveObject", mock.Anything, "sys", "stack/reconciliation-reports/inventoryReport-20200101T000000000.json", mock.Anything).Return(nil)

	_, err := f.service().Run(context.Background())
	require.NoError(t, err)
	f.client.AssertCalled(t, "RemoveObject", mock.Anything, "sys", "stack/reconciliation-reports/inventoryReport-20200101T000000000.json", mock.Anything)
}

func TestService_Get(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 2; i++ {
		f.client.On("GetObject", mock.Anything, "sys", "stack/reconciliation-reports/inventoryReport-1.json", mock.Anything).
			Return(io.NopCloser(strings.NewReader(`{"reportId":"r-9"}`)), nil).Once()
	}

	svc := f.service()
	r, err := svc.Get(context.Background(), "inventoryReport-1.json")
	require.NoError(t, err)
	assert.Equal(t, "r-9", r.ReportID)

	r, err = svc.Get(context.Background(), "stack/reconciliation-reports/inventoryReport-1.json")
	require.NoError(t, err)
	assert.Equal(t, "r-9", r.ReportID)
}
