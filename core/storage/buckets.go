package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/minio/minio-go/v7"
)

// Bucket types found in a deployment's bucket map.
const (
	BucketProtected = "protected"
	BucketPublic    = "public"
	BucketPrivate   = "private"
	BucketInternal  = "internal"
	BucketShared    = "shared"
)

// ErrBucketsConfigNotFound is returned when the bucket map object is missing.
var ErrBucketsConfigNotFound = errors.New("buckets config not found")

// Bucket is one entry of the bucket map.
type Bucket struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// BucketsConfig maps logical bucket keys (e.g. "protected") to buckets.
type BucketsConfig struct {
	buckets map[string]Bucket
}

// NewBucketsConfig wraps a decoded bucket map.
func NewBucketsConfig(buckets map[string]Bucket) *BucketsConfig {
	if buckets == nil {
		buckets = map[string]Bucket{}
	}
	return &BucketsConfig{buckets: buckets}
}

// LoadBucketsConfig reads <stack>/workflows/buckets.json from the system bucket.
func LoadBucketsConfig(ctx context.Context, client Client, cfg Config) (*BucketsConfig, error) {
	key := cfg.BucketsConfigKey()
	reader, err := client.GetObject(ctx, cfg.SystemBucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, wrapBucketsErr(cfg.SystemBucket, key, err)
	}
	defer reader.Close()

	var buckets map[string]Bucket
	if err := json.NewDecoder(reader).Decode(&buckets); err != nil {
		return nil, wrapBucketsErr(cfg.SystemBucket, key, err)
	}
	return NewBucketsConfig(buckets), nil
}

func wrapBucketsErr(bucket, key string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("%w: s3://%s/%s: %v", ErrBucketsConfigNotFound, bucket, key, err)
	}
	return fmt.Errorf("failed to read buckets config s3://%s/%s: %w", bucket, key, err)
}

// ByType returns the buckets of the given type ordered by name.
func (b *BucketsConfig) ByType(bucketType string) []Bucket {
	var out []Bucket
	for _, v := range b.buckets {
		if v.Type == bucketType {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}
