package reconcile

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"inventory-reconciler/core/metrics"
	"inventory-reconciler/core/retry"

	"go.uber.org/zap"
)

// Cursor is an opaque continuation token. The empty cursor opens a listing.
type Cursor string

// Page is one batch returned by a PaginatedSource.
type Page struct {
	// Records holds the keyed records of this page.
	Records []InventoryRecord
	// Next is the cursor for the following page. Ignored when Done is set.
	Next Cursor
	// Done is true when no further page exists.
	Done bool
}

// PaginatedSource is a backend's paged read capability.
//
// Fetch must be safe to call again with the same cursor after a failure so
// the retry policy can repeat it. Errors that should not be retried must be
// wrapped with retry.Permanent.
type PaginatedSource interface {
	// Name identifies the source in logs, metrics and errors.
	Name() string
	// Fetch returns the page starting at cursor.
	Fetch(ctx context.Context, cursor Cursor) (Page, error)
}

// Checker is implemented by sources that can validate their location
// (bucket, table, endpoint) before a run starts.
type Checker interface {
	Check(ctx context.Context) error
}

// StreamOptions configures a Stream.
type StreamOptions struct {
	Policy  *retry.Policy
	Logger  *zap.Logger
	Metrics *metrics.Recorder
}

// Stream turns a PaginatedSource into a lazy, finite, non-restartable
// sequence of pages.
type Stream struct {
	src     PaginatedSource
	policy  *retry.Policy
	logger  *zap.Logger
	metrics *metrics.Recorder

	cursor Cursor
	done   bool
	pages  int
	count  int
}

// NewStream opens src. No request is made until Next is called.
func NewStream(src PaginatedSource, opts StreamOptions) *Stream {
	policy := opts.Policy
	if policy == nil {
		policy = retry.NewPolicy(retry.DefaultConfig())
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stream{
		src:     src,
		policy:  policy,
		logger:  logger.With(zap.String("source", src.Name())),
		metrics: opts.Metrics,
	}
}

// Name returns the underlying source's name.
func (s *Stream) Name() string {
	return s.src.Name()
}

// Count returns the number of records yielded so far.
func (s *Stream) Count() int {
	return s.count
}

// Next returns the next non-empty batch of records, or io.EOF once the
// source is exhausted. Transient fetch failures are retried with the
// stream's policy.
func (s *Stream) Next(ctx context.Context) ([]InventoryRecord, error) {
	for !s.done {
		cursor := s.cursor
		attempt := 0
		page, err := retry.DoWithResult(ctx, s.policy, func() (Page, error) {
			attempt++
			if attempt > 1 {
				s.metrics.Retried(s.src.Name())
				s.logger.Debug("Retrying page fetch",
					zap.Int("page", s.pages+1),
					zap.Int("attempt", attempt),
				)
			}
			return s.src.Fetch(ctx, cursor)
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("source %s page %d: %w", s.src.Name(), s.pages+1, err)
		}

		s.pages++
		s.metrics.PageFetched(s.src.Name())

		if page.Done {
			s.done = true
		} else if page.Next == cursor {
			return nil, retry.Permanent(fmt.Errorf("source %s page %d: cursor %q did not advance", s.src.Name(), s.pages, cursor))
		}
		s.cursor = page.Next

		if len(page.Records) > 0 {
			s.count += len(page.Records)
			return page.Records, nil
		}
	}
	return nil, io.EOF
}

// Drain calls fn for every record of the stream until it is exhausted.
func Drain(ctx context.Context, s *Stream, fn func(InventoryRecord) error) error {
	start := time.Now()
	for {
		batch, err := s.Next(ctx)
		if err == io.EOF {
			s.logger.Debug("Source drained",
				zap.Int("pages", s.pages),
				zap.Int("records", s.count),
				zap.Duration("took", time.Since(start)),
			)
			return nil
		}
		if err != nil {
			return err
		}
		for _, rec := range batch {
			if err := fn(rec); err != nil {
				return err
			}
		}
	}
}

// Unavailable returns a source whose every fetch fails with err. It stands
// in for a source that could not be built, so only its comparison fails.
func Unavailable(name string, err error) PaginatedSource {
	return &unavailableSource{name: name, err: retry.Permanent(err)}
}

type unavailableSource struct {
	name string
	err  error
}

func (u *unavailableSource) Name() string {
	return u.name
}

func (u *unavailableSource) Fetch(ctx context.Context, cursor Cursor) (Page, error) {
	return Page{}, u.err
}

// Concat chains sources into one; each is exhausted before the next starts.
// Its cursor encodes the index of the active source and that source's own
// cursor.
func Concat(name string, sources ...PaginatedSource) PaginatedSource {
	return &concatSource{name: name, sources: sources}
}

type concatSource struct {
	name    string
	sources []PaginatedSource
}

func (c *concatSource) Name() string {
	return c.name
}

func (c *concatSource) Check(ctx context.Context) error {
	for _, src := range c.sources {
		if chk, ok := src.(Checker); ok {
			if err := chk.Check(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *concatSource) Fetch(ctx context.Context, cursor Cursor) (Page, error) {
	idx, inner, err := splitConcatCursor(cursor)
	if err != nil {
		return Page{}, retry.Permanent(err)
	}
	if idx >= len(c.sources) {
		return Page{Done: true}, nil
	}

	page, err := c.sources[idx].Fetch(ctx, inner)
	if err != nil {
		return Page{}, err
	}

	if !page.Done {
		page.Next = joinConcatCursor(idx, page.Next)
		return page, nil
	}
	if idx+1 >= len(c.sources) {
		return page, nil
	}
	page.Done = false
	page.Next = joinConcatCursor(idx+1, "")
	return page, nil
}

func joinConcatCursor(idx int, inner Cursor) Cursor {
	return Cursor(strconv.Itoa(idx) + ":" + string(inner))
}

func splitConcatCursor(c Cursor) (int, Cursor, error) {
	if c == "" {
		return 0, "", nil
	}
	head, tail, ok := strings.Cut(string(c), ":")
	if !ok {
		return 0, "", fmt.Errorf("invalid concat cursor %q", c)
	}
	idx, err := strconv.Atoi(head)
	if err != nil || idx < 0 {
		return 0, "", fmt.Errorf("invalid concat cursor %q", c)
	}
	return idx, Cursor(tail), nil
}
