package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inventory-reconciler/core/metrics"
	"inventory-reconciler/core/retry"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Comparison is one reconciliation pass between two sources.
type Comparison struct {
	// Name is one of ComparisonFiles, ComparisonCollections, ComparisonGranules.
	Name string
	// Left and Right are reported as the first and second "only in" lists.
	Left  PaginatedSource
	Right PaginatedSource
	// Build selects the side held in memory.
	Build BuildSide
	// Disabled comparisons are reported as skipped.
	Disabled bool
}

// ReportWriter persists an assembled report and returns its key.
type ReportWriter interface {
	Write(ctx context.Context, report *Report) (string, error)
}

// Engine runs comparisons concurrently and persists the merged report.
// An Engine keeps no per-run state; Run may be called repeatedly.
type Engine struct {
	cfg       Config
	store     ReportWriter
	logger    *zap.Logger
	metrics   *metrics.Recorder
	policy    *retry.Policy
	assembler *Assembler
}

// NewEngine creates an Engine. metrics may be nil.
func NewEngine(cfg Config, store ReportWriter, logger *zap.Logger, m *metrics.Recorder) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:       cfg,
		store:     store,
		logger:    logger,
		metrics:   m,
		policy:    retry.NewPolicy(cfg.RetryConfig()),
		assembler: NewAssembler(cfg.MaxSampleSize),
	}
}

// Result is a persisted report and the key it was written under.
type Result struct {
	Report *Report
	Key    string
}

// Run executes the comparisons and writes the report.
//
// Configuration errors found while checking sources abort the run before any
// comparison starts. A comparison that fails is recorded as a failed section
// and does not stop the others. A cancelled or timed-out run returns
// ErrRunCancelled and writes nothing. A failed write returns a
// PersistenceError.
func (e *Engine) Run(ctx context.Context, comparisons []Comparison) (*Result, error) {
	if timeout := e.cfg.RunTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	started := time.Now()
	e.logger.Info("Starting reconciliation run", zap.Int("comparisons", len(comparisons)))

	if err := e.checkSources(ctx, comparisons); err != nil {
		e.metrics.RunFinished("CONFIG_ERROR")
		return nil, err
	}

	outcomes := make([]Outcome, len(comparisons))
	var g errgroup.Group
	for i, c := range comparisons {
		if c.Disabled {
			outcomes[i] = Outcome{Comparison: c.Name, Skipped: true}
			e.logger.Info("Comparison disabled", zap.String("comparison", c.Name))
			continue
		}
		g.Go(func() error {
			outcomes[i] = e.runComparison(ctx, c)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		e.metrics.RunFinished("CANCELLED")
		e.logger.Warn("Reconciliation run cancelled", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrRunCancelled, err)
	}

	report := e.assembler.Assemble(started, outcomes)

	key, err := e.store.Write(ctx, report)
	if err != nil {
		e.metrics.RunFinished("PERSISTENCE_ERROR")
		e.logger.Error("Failed to write reconciliation report", zap.Error(err))
		return nil, &PersistenceError{Err: err}
	}

	e.metrics.RunFinished(string(report.Status))
	e.logger.Info("Reconciliation report written",
		zap.String("report_id", report.ReportID),
		zap.String("key", key),
		zap.String("status", string(report.Status)),
		zap.Duration("took", time.Since(started)),
	)
	return &Result{Report: report, Key: key}, nil
}

// checkSources validates every enabled source that implements Checker.
// Only configuration errors are fatal here; anything else is left for the
// comparison itself to retry or fail on.
func (e *Engine) checkSources(ctx context.Context, comparisons []Comparison) error {
	for _, c := range comparisons {
		if c.Disabled {
			continue
		}
		for _, src := range []PaginatedSource{c.Left, c.Right} {
			if src == nil {
				return &ConfigurationError{Source: c.Name, Reason: "source not configured"}
			}
			chk, ok := src.(Checker)
			if !ok {
				continue
			}
			err := chk.Check(ctx)
			if err == nil {
				continue
			}
			if IsConfigurationError(err) {
				var ce *ConfigurationError
				errors.As(err, &ce)
				e.logger.Error("Invalid source configuration",
					zap.String("comparison", c.Name),
					zap.String("source", src.Name()),
					zap.Error(err),
				)
				return ce
			}
			e.logger.Warn("Source check failed, continuing",
				zap.String("comparison", c.Name),
				zap.String("source", src.Name()),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (e *Engine) runComparison(ctx context.Context, c Comparison) Outcome {
	start := time.Now()
	l := e.logger.With(zap.String("comparison", c.Name))
	l.Info("Comparison started",
		zap.String("left", c.Left.Name()),
		zap.String("right", c.Right.Name()),
	)

	opts := StreamOptions{Policy: e.policy, Logger: l, Metrics: e.metrics}
	left := NewStream(c.Left, opts)
	right := NewStream(c.Right, opts)

	rec := NewSetReconciler(ReconcilerOptions{Build: c.Build, Prefetch: e.cfg.PrefetchPages})
	p, err := rec.Reconcile(ctx, left, right)
	if err != nil {
		e.metrics.ComparisonFinished(c.Name, string(SectionFailed), time.Since(start))
		l.Error("Comparison failed", zap.Error(err), zap.Duration("took", time.Since(start)))
		return Outcome{Comparison: c.Name, Err: &ComparisonFailedError{Comparison: c.Name, Err: err}}
	}

	e.metrics.ComparisonFinished(c.Name, string(SectionCompleted), time.Since(start))
	e.metrics.Discrepancies(c.Name, "only_in_left", len(p.OnlyInLeft), "only_in_right", len(p.OnlyInRight), p.Matched)
	l.Info("Comparison finished",
		zap.Int("matched", p.Matched),
		zap.Int("only_in_left", len(p.OnlyInLeft)),
		zap.Int("only_in_right", len(p.OnlyInRight)),
		zap.Int("left_records", left.Count()),
		zap.Int("right_records", right.Count()),
		zap.Duration("took", time.Since(start)),
	)
	return Outcome{Comparison: c.Name, Partition: p}
}
