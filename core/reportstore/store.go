package reportstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"inventory-reconciler/core/reconcile"
	"inventory-reconciler/core/storage"

	"github.com/minio/minio-go/v7"
)

// ReportFilePrefix starts the file name of every inventory report.
const ReportFilePrefix = "inventoryReport-"

// ErrNotFound is returned by Read when the report does not exist.
var ErrNotFound = errors.New("report not found")

// Store persists reports as JSON objects in the system bucket.
type Store struct {
	client storage.Client
	bucket string
	prefix string
}

// New returns a Store writing under cfg.ReportsPrefix() in cfg.SystemBucket.
func New(client storage.Client, cfg storage.Config) *Store {
	return &Store{client: client, bucket: cfg.SystemBucket, prefix: cfg.ReportsPrefix()}
}

// Namespace returns the default key prefix.
func (s *Store) Namespace() string {
	return s.prefix
}

// KeyFor returns the key a report generated at t is stored under. The
// first characters of reportID follow the timestamp so runs finishing in
// the same millisecond get distinct keys; keys still sort by time.
func (s *Store) KeyFor(t time.Time, reportID string) string {
	t = t.UTC()
	stamp := fmt.Sprintf("%s%03d", t.Format("20060102T150405"), t.Nanosecond()/int(time.Millisecond))
	if suffix := idSuffix(reportID); suffix != "" {
		stamp += "-" + suffix
	}
	return s.prefix + ReportFilePrefix + stamp + ".json"
}

const idSuffixLen = 8

// idSuffix keeps the leading letters and digits of id.
func idSuffix(id string) string {
	var b strings.Builder
	for _, r := range id {
		if b.Len() == idSuffixLen {
			break
		}
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Write stores report and returns its key.
func (s *Store) Write(ctx context.Context, report *reconcile.Report) (string, error) {
	if report == nil {
		return "", fmt.Errorf("nil report")
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report %s: %w", report.ReportID, err)
	}

	key := s.KeyFor(report.GeneratedAt, report.ReportID)
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
		UserMetadata: map[string]string{
			"report-id": report.ReportID,
			"status":    string(report.Status),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report to s3://%s/%s: %w", s.bucket, key, err)
	}
	return key, nil
}

// Read loads a stored report.
func (s *Store) Read(ctx context.Context, key string) (*reconcile.Report, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.wrapReadErr(key, err)
	}
	defer obj.Close()

	var report reconcile.Report
	if err := json.NewDecoder(obj).Decode(&report); err != nil {
		return nil, s.wrapReadErr(key, err)
	}
	return &report, nil
}

func (s *Store) wrapReadErr(key string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%w: s3://%s/%s", ErrNotFound, s.bucket, key)
	}
	return fmt.Errorf("failed to read report s3://%s/%s: %w", s.bucket, key, err)
}

// ListReportKeys returns the report keys under namespace, oldest first.
// An empty namespace lists the default prefix.
func (s *Store) ListReportKeys(ctx context.Context, namespace string) ([]string, error) {
	if namespace == "" {
		namespace = s.prefix
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var keys []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: namespace, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list reports in s3://%s/%s: %w", s.bucket, namespace, obj.Err)
		}
		name := path.Base(obj.Key)
		if strings.HasPrefix(name, ReportFilePrefix) && strings.HasSuffix(name, ".json") {
			keys = append(keys, obj.Key)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Timestamps are fixed width, so lexical order is chronological.
	sort.Strings(keys)
	return keys, nil
}

// Delete removes one report.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete report s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

// Prune deletes all but the newest keep reports under namespace and returns
// the deleted keys.
func (s *Store) Prune(ctx context.Context, namespace string, keep int) ([]string, error) {
	if keep <= 0 {
		return nil, fmt.Errorf("keep must be positive, got %d", keep)
	}
	keys, err := s.ListReportKeys(ctx, namespace)
	if err != nil {
		return nil, err
	}
	if len(keys) <= keep {
		return nil, nil
	}

	stale := keys[:len(keys)-keep]
	deleted := make([]string, 0, len(stale))
	for _, key := range stale {
		if err := s.Delete(ctx, key); err != nil {
			return deleted, err
		}
		deleted = append(deleted, key)
	}
	return deleted, nil
}
