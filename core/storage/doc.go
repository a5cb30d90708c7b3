// Package storage wraps the MinIO client used to reach the deployment's
// object store.
//
// The Client interface is what the rest of the module depends on; tests use
// the testify mock in core/storage/mocks.
//
// # Bucket map
//
// A deployment describes its buckets in <stack>/workflows/buckets.json in the
// system bucket. LoadBucketsConfig reads it; BucketsConfig answers lookups
// by name, logical key and type (ByType("protected") drives the files
// comparison).
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	buckets, err := storage.LoadBucketsConfig(ctx, client, cfg.Storage)
//	for _, b := range buckets.ByType(storage.BucketProtected) {
//	    ...
//	}
package storage
