// Package reconciletest provides in-memory sources for reconciliation tests.
package reconciletest

import (
	"context"
	"strconv"
	"sync"

	"inventory-reconciler/core/reconcile"
)

// Source serves fixed records in pages of PageSize.
// Errors queued with FailNext are returned by the following Fetch calls.
type Source struct {
	SourceName string
	PageSize   int
	Records    []reconcile.InventoryRecord
	CheckErr   error

	mu       sync.Mutex
	failures []error
	failAt   map[reconcile.Cursor]error
	calls    int
}

// New returns a Source named name serving records in pages of pageSize.
func New(name string, pageSize int, records ...reconcile.InventoryRecord) *Source {
	return &Source{SourceName: name, PageSize: pageSize, Records: records}
}

// Keyed builds records of the given kind, one per key.
func Keyed(kind reconcile.SourceKind, keys ...string) []reconcile.InventoryRecord {
	out := make([]reconcile.InventoryRecord, len(keys))
	for i, k := range keys {
		out[i] = reconcile.InventoryRecord{Kind: kind, Key: k}
	}
	return out
}

// FailNext queues errors for the next Fetch calls, in order.
func (s *Source) FailNext(errs ...error) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, errs...)
	return s
}

// FailAt makes every Fetch of cursor return err. Pages before it are
// served normally, so the failure happens mid-listing.
func (s *Source) FailAt(cursor reconcile.Cursor, err error) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAt == nil {
		s.failAt = make(map[reconcile.Cursor]error)
	}
	s.failAt[cursor] = err
	return s
}

// Calls returns the number of Fetch calls so far.
func (s *Source) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *Source) Name() string {
	return s.SourceName
}

func (s *Source) Check(ctx context.Context) error {
	return s.CheckErr
}

func (s *Source) Fetch(ctx context.Context, cursor reconcile.Cursor) (reconcile.Page, error) {
	s.mu.Lock()
	s.calls++
	if len(s.failures) > 0 {
		err := s.failures[0]
		s.failures = s.failures[1:]
		s.mu.Unlock()
		return reconcile.Page{}, err
	}
	if err, ok := s.failAt[cursor]; ok {
		s.mu.Unlock()
		return reconcile.Page{}, err
	}
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return reconcile.Page{}, err
	}

	offset := 0
	if cursor != "" {
		n, err := strconv.Atoi(string(cursor))
		if err != nil {
			return reconcile.Page{}, err
		}
		offset = n
	}

	size := s.PageSize
	if size <= 0 {
		size = len(s.Records)
	}
	end := offset + size
	if end >= len(s.Records) {
		return reconcile.Page{Records: s.Records[offset:], Done: true}, nil
	}
	return reconcile.Page{Records: s.Records[offset:end], Next: reconcile.Cursor(strconv.Itoa(end))}, nil
}

// Store is an in-memory report writer.
type Store struct {
	mu      sync.Mutex
	Err     error
	Reports []*reconcile.Report
}

func (s *Store) Write(ctx context.Context, report *reconcile.Report) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	s.Reports = append(s.Reports, report)
	return "reports/" + report.ReportID + ".json", nil
}
