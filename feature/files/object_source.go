package files

import (
	"context"
	"fmt"

	"inventory-reconciler/core/reconcile"
	"inventory-reconciler/core/retry"
	"inventory-reconciler/core/storage"

	"github.com/minio/minio-go/v7"
)

// ObjectSource lists one protected bucket, optionally under a prefix.
// Its cursor is the last key returned, passed back as StartAfter.
type ObjectSource struct {
	client   storage.Client
	bucket   string
	prefix   string
	pageSize int
}

// NewObjectSource returns a listing of bucket restricted to prefix.
func NewObjectSource(client storage.Client, bucket, prefix string, pageSize int) *ObjectSource {
	if pageSize <= 0 {
		pageSize = 1000
	}
	return &ObjectSource{client: client, bucket: bucket, prefix: prefix, pageSize: pageSize}
}

func (s *ObjectSource) Name() string {
	return "s3://" + s.bucket + "/" + s.prefix
}

// Check verifies that the bucket exists and is readable.
func (s *ObjectSource) Check(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		if code := minio.ToErrorResponse(err).Code; code == "AccessDenied" || code == "NoSuchBucket" {
			return reconcile.NewConfigurationError(s.Name(), "bucket not accessible", err)
		}
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		return reconcile.NewConfigurationError(s.Name(), "bucket does not exist", nil)
	}
	return nil
}

func (s *ObjectSource) Fetch(ctx context.Context, cursor reconcile.Cursor) (reconcile.Page, error) {
	// The listing goroutine stops once lctx is cancelled.
	lctx, cancel := context.WithCancel(ctx)
	defer cancel()

	objects := s.client.ListObjects(lctx, s.bucket, minio.ListObjectsOptions{
		Prefix:     s.prefix,
		Recursive:  true,
		StartAfter: string(cursor),
		MaxKeys:    s.pageSize,
	})
	defer func() {
		cancel()
		for range objects {
		}
	}()

	records := make([]reconcile.InventoryRecord, 0, s.pageSize)
	last := string(cursor)
	for obj := range objects {
		if obj.Err != nil {
			return reconcile.Page{}, s.classify(obj.Err)
		}
		rec, err := ObjectRecord(ObjectRow{Bucket: s.bucket, Key: obj.Key, Size: obj.Size, ETag: obj.ETag})
		if err != nil {
			return reconcile.Page{}, err
		}
		records = append(records, rec)
		last = obj.Key
		if len(records) == s.pageSize {
			return reconcile.Page{Records: records, Next: reconcile.Cursor(last)}, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return reconcile.Page{}, err
	}
	return reconcile.Page{Records: records, Next: reconcile.Cursor(last), Done: true}, nil
}

func (s *ObjectSource) classify(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchBucket":
		return reconcile.NewConfigurationError(s.Name(), "bucket does not exist", err)
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return retry.Permanent(fmt.Errorf("list %s: %w", s.Name(), err))
	}
	return &reconcile.TransientSourceError{Source: s.Name(), Err: err}
}

// ObjectSources returns one listing per protected bucket, concatenated in
// bucket name order.
func ObjectSources(client storage.Client, buckets []storage.Bucket, prefix string, pageSize int) reconcile.PaginatedSource {
	sources := make([]reconcile.PaginatedSource, 0, len(buckets))
	for _, b := range buckets {
		sources = append(sources, NewObjectSource(client, b.Name, prefix, pageSize))
	}
	return reconcile.Concat("s3 protected buckets", sources...)
}
