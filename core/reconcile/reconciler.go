package reconcile

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"
)

// BuildSide selects which stream is materialized into the lookup table.
type BuildSide int

const (
	// BuildLeft indexes the left stream and probes it with the right one.
	BuildLeft BuildSide = iota
	// BuildRight indexes the right stream and probes it with the left one.
	BuildRight
)

// DefaultPrefetch is the number of probe pages buffered while the build
// side is still draining.
const DefaultPrefetch = 4

// ReconcilerOptions tunes a SetReconciler.
type ReconcilerOptions struct {
	// Build is the side held in memory. Pick the bounded one.
	Build BuildSide
	// Prefetch bounds the probe pages fetched ahead of the build side.
	Prefetch int
}

// SetReconciler computes the presence partition of two keyed streams.
//
// The build stream is drained into a hash table while the probe stream is
// paginated concurrently into a bounded buffer. Once the table is complete
// the buffered and remaining probe pages are streamed through it: hits mark
// the entry matched, misses are kept in a deduplicated set. Memory is bounded
// by the build side plus the probe side's misses.
type SetReconciler struct {
	opts ReconcilerOptions
}

// NewSetReconciler returns a reconciler with the given options.
func NewSetReconciler(opts ReconcilerOptions) *SetReconciler {
	if opts.Prefetch <= 0 {
		opts.Prefetch = DefaultPrefetch
	}
	return &SetReconciler{opts: opts}
}

type buildEntry struct {
	rec     InventoryRecord
	matched bool
}

// Reconcile drains both streams and returns the partition of their keys.
// Both output lists are sorted by key.
func (r *SetReconciler) Reconcile(ctx context.Context, left, right *Stream) (Partition, error) {
	build, probe := left, right
	if r.opts.Build == BuildRight {
		build, probe = right, left
	}

	g, gctx := errgroup.WithContext(ctx)

	index := make(map[string]*buildEntry)
	built := make(chan struct{})
	pages := make(chan []InventoryRecord, r.opts.Prefetch)

	g.Go(func() error {
		err := Drain(gctx, build, func(rec InventoryRecord) error {
			if e, ok := index[rec.Key]; ok {
				e.rec = rec
				return nil
			}
			index[rec.Key] = &buildEntry{rec: rec}
			return nil
		})
		if err != nil {
			return fmt.Errorf("build side %s: %w", build.Name(), err)
		}
		close(built)
		return nil
	})

	g.Go(func() error {
		defer close(pages)
		for {
			batch, err := probe.Next(gctx)
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("probe side %s: %w", probe.Name(), err)
			}
			select {
			case pages <- batch:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	misses := make(map[string]InventoryRecord)
	matched := 0
	g.Go(func() error {
		select {
		case <-built:
		case <-gctx.Done():
			return gctx.Err()
		}
		for batch := range pages {
			for _, rec := range batch {
				if e, ok := index[rec.Key]; ok {
					if !e.matched {
						e.matched = true
						matched++
					}
					continue
				}
				misses[rec.Key] = rec
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return Partition{}, err
	}

	onlyBuild := make([]InventoryRecord, 0, len(index)-matched)
	for _, e := range index {
		if !e.matched {
			onlyBuild = append(onlyBuild, e.rec)
		}
	}
	onlyProbe := make([]InventoryRecord, 0, len(misses))
	for _, rec := range misses {
		onlyProbe = append(onlyProbe, rec)
	}
	sortRecords(onlyBuild)
	sortRecords(onlyProbe)

	if r.opts.Build == BuildRight {
		return Partition{OnlyInLeft: onlyProbe, OnlyInRight: onlyBuild, Matched: matched}, nil
	}
	return Partition{OnlyInLeft: onlyBuild, OnlyInRight: onlyProbe, Matched: matched}, nil
}
