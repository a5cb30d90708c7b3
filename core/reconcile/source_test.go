package reconcile_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"inventory-reconciler/core/reconcile"
	"inventory-reconciler/core/reconcile/reconciletest"
	"inventory-reconciler/core/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drainKeys(t *testing.T, s *reconcile.Stream) ([]string, error) {
	t.Helper()
	var keys []string
	err := reconcile.Drain(context.Background(), s, func(r reconcile.InventoryRecord) error {
		keys = append(keys, r.Key)
		return nil
	})
	return keys, err
}

func TestStream_PagesInOrder(t *testing.T) {
	src := reconciletest.New("db", 2, reconciletest.Keyed(reconcile.KindDBFile, "a", "b", "c", "d", "e")...)
	s := streamOf(src)

	keys, err := drainKeys(t, s)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, keys)
	assert.Equal(t, 5, s.Count())
	assert.Equal(t, 3, src.Calls())

	// Exhausted streams stay exhausted.
	_, err = s.Next(context.Background())
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 3, src.Calls())
}

func TestStream_RetriesTransientErrors(t *testing.T) {
	src := reconciletest.New("cmr", 10, reconciletest.Keyed(reconcile.KindCatalogGranule, "g1", "g2")...)
	src.FailNext(errors.New("503 slow down"), errors.New("i/o timeout"))

	keys, err := drainKeys(t, streamOf(src))
	require.NoError(t, err)
	assert.Equal(t, []string{"g1", "g2"}, keys)
	assert.Equal(t, 3, src.Calls())
}

func TestStream_ExhaustedRetries(t *testing.T) {
	src := reconciletest.New("cmr", 10, reconciletest.Keyed(reconcile.KindCatalogGranule, "g1")...)
	src.FailNext(errors.New("timeout"), errors.New("timeout"), errors.New("timeout"))

	_, err := drainKeys(t, streamOf(src))
	require.Error(t, err)

	var exhausted *retry.ExhaustedError
	assert.True(t, errors.As(err, &exhausted))
	assert.Equal(t, 3, src.Calls())
}

func TestStream_PermanentErrorIsNotRetried(t *testing.T) {
	src := reconciletest.New("s3", 10, reconciletest.Keyed(reconcile.KindFileObject, "b/k")...)
	src.FailNext(retry.Permanent(errors.New("AccessDenied")))

	_, err := drainKeys(t, streamOf(src))
	require.Error(t, err)
	assert.True(t, retry.IsPermanent(err))
	assert.Equal(t, 1, src.Calls())
}

type stuckSource struct{}

func (stuckSource) Name() string { return "stuck" }

func (stuckSource) Fetch(ctx context.Context, c reconcile.Cursor) (reconcile.Page, error) {
	return reconcile.Page{Next: c}, nil
}

func TestStream_CursorMustAdvance(t *testing.T) {
	_, err := drainKeys(t, streamOf(stuckSource{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not advance")
}

func TestStream_Cancelled(t *testing.T) {
	src := reconciletest.New("db", 1, reconciletest.Keyed(reconcile.KindDBFile, "a")...)
	s := reconcile.NewStream(src, reconcile.StreamOptions{
		Policy: retry.NewPolicy(retry.Config{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: time.Second}),
	})
	src.FailNext(errors.New("timeout"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := s.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConcat(t *testing.T) {
	a := reconciletest.New("bucket-a", 2, reconciletest.Keyed(reconcile.KindFileObject, "a/1", "a/2", "a/3")...)
	empty := reconciletest.New("bucket-empty", 2)
	b := reconciletest.New("bucket-b", 2, reconciletest.Keyed(reconcile.KindFileObject, "b/1")...)

	keys, err := drainKeys(t, streamOf(reconcile.Concat("protected", a, empty, b)))
	require.NoError(t, err)
	assert.Equal(t, []string{"a/1", "a/2", "a/3", "b/1"}, keys)
}

func TestConcat_NoSources(t *testing.T) {
	keys, err := drainKeys(t, streamOf(reconcile.Concat("none")))
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestConcat_InvalidCursor(t *testing.T) {
	src := reconcile.Concat("protected", reconciletest.New("a", 1))
	_, err := src.Fetch(context.Background(), "not-a-cursor")
	require.Error(t, err)
	assert.True(t, retry.IsPermanent(err))
}

func TestConcat_ChecksEverySource(t *testing.T) {
	bad := reconciletest.New("bucket-b", 1)
	bad.CheckErr = reconcile.NewConfigurationError("bucket-b", "bucket does not exist", nil)

	src := reconcile.Concat("protected", reconciletest.New("bucket-a", 1), bad)
	chk, ok := src.(reconcile.Checker)
	require.True(t, ok)
	assert.True(t, reconcile.IsConfigurationError(chk.Check(context.Background())))
}
