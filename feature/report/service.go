package report

import (
	"context"
	"errors"
	"fmt"
	"path"

	"inventory-reconciler/core/catalog"
	"inventory-reconciler/core/metrics"
	"inventory-reconciler/core/reconcile"
	"inventory-reconciler/core/reportstore"
	"inventory-reconciler/core/retry"
	"inventory-reconciler/core/storage"
	"inventory-reconciler/feature/collections"
	"inventory-reconciler/feature/files"
	"inventory-reconciler/feature/granules"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// Options are the settings a Service needs from configuration.
type Options struct {
	Reconcile       reconcile.Config
	Storage         storage.Config
	CatalogProvider string
	CatalogPageSize int
}

// Service builds the comparisons of a deployment and runs them.
type Service struct {
	opts     Options
	client   storage.Client
	db       *gorm.DB
	searcher catalog.Searcher
	store    *reportstore.Store
	engine   *reconcile.Engine
	logger   *zap.Logger
	runs     singleflight.Group
}

// NewService wires the engine to the given backends. searcher may be nil
// when no catalog is configured; m may be nil.
func NewService(opts Options, client storage.Client, db *gorm.DB, searcher catalog.Searcher, logger *zap.Logger, m *metrics.Recorder) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	store := reportstore.New(client, opts.Storage)
	return &Service{
		opts:     opts,
		client:   client,
		db:       db,
		searcher: searcher,
		store:    store,
		engine:   reconcile.NewEngine(opts.Reconcile, store, logger, m),
		logger:   logger,
	}
}

// Engine exposes the underlying engine.
func (s *Service) Engine() *reconcile.Engine {
	return s.engine
}

// Store exposes the report store.
func (s *Service) Store() *reportstore.Store {
	return s.store
}

// Comparisons returns the three comparisons for this deployment. Disabled
// comparisons are returned with Disabled set. A missing or empty bucket map
// is a configuration error; any other failure to read it fails the files
// comparison alone.
func (s *Service) Comparisons(ctx context.Context) ([]reconcile.Comparison, error) {
	cfg := s.opts.Reconcile

	filesCmp := reconcile.Comparison{Name: reconcile.ComparisonFiles, Disabled: true}
	if cfg.CompareFiles {
		protected, err := s.protectedBuckets(ctx)
		switch {
		case reconcile.IsConfigurationError(err):
			return nil, err
		case err != nil:
			// Only the files comparison depends on the bucket map.
			s.logger.Error("Bucket map unavailable, files comparison will fail", zap.Error(err))
			filesCmp = reconcile.Comparison{
				Name:  reconcile.ComparisonFiles,
				Left:  reconcile.Unavailable("s3 protected buckets", err),
				Right: reconcile.Unavailable("db files", err),
				Build: reconcile.BuildRight,
			}
		default:
			filesCmp = files.Comparison(s.client, s.db, protected, cfg.FilePrefix, cfg.PageSize)
		}
	}

	collectionsCmp := collections.Comparison(s.db, s.searcher, s.opts.CatalogProvider, cfg.PageSize, s.opts.CatalogPageSize)
	collectionsCmp.Disabled = !cfg.CompareCollections

	granulesCmp := granules.Comparison(s.db, s.searcher, s.opts.CatalogProvider, cfg.PageSize, s.opts.CatalogPageSize)
	granulesCmp.Disabled = !cfg.CompareGranules

	return []reconcile.Comparison{filesCmp, collectionsCmp, granulesCmp}, nil
}

func (s *Service) protectedBuckets(ctx context.Context) ([]storage.Bucket, error) {
	policy := retry.NewPolicy(s.opts.Reconcile.RetryConfig())
	buckets, err := retry.DoWithResult(ctx, policy, func() (*storage.BucketsConfig, error) {
		b, err := storage.LoadBucketsConfig(ctx, s.client, s.opts.Storage)
		if errors.Is(err, storage.ErrBucketsConfigNotFound) {
			return nil, retry.Permanent(err)
		}
		return b, err
	})
	if err != nil {
		if errors.Is(err, storage.ErrBucketsConfigNotFound) {
			return nil, &reconcile.ConfigurationError{Source: "buckets config", Reason: "bucket map not found", Err: err}
		}
		return nil, fmt.Errorf("failed to load buckets config: %w", err)
	}

	protected := buckets.ByType(storage.BucketProtected)
	if len(protected) == 0 {
		return nil, &reconcile.ConfigurationError{Source: "buckets config", Reason: "no protected buckets configured"}
	}
	s.logger.Debug("Protected buckets loaded", zap.Int("count", len(protected)))
	return protected, nil
}

// Run executes one reconciliation and persists its report. Concurrent calls
// share the run that is already in progress. When retain_reports is set,
// older reports are pruned after a successful write.
func (s *Service) Run(ctx context.Context) (*reconcile.Result, error) {
	v, err, shared := s.runs.Do("run", func() (any, error) {
		return s.run(ctx)
	})
	if shared {
		s.logger.Info("Joined reconciliation run already in progress")
	}
	if err != nil {
		return nil, err
	}
	return v.(*reconcile.Result), nil
}

func (s *Service) run(ctx context.Context) (*reconcile.Result, error) {
	comparisons, err := s.Comparisons(ctx)
	if err != nil {
		s.logger.Error("Failed to prepare comparisons", zap.Error(err))
		return nil, err
	}

	result, err := s.engine.Run(ctx, comparisons)
	if err != nil {
		return nil, err
	}

	if keep := s.opts.Reconcile.RetainReports; keep > 0 {
		deleted, err := s.store.Prune(ctx, "", keep)
		if err != nil {
			s.logger.Warn("Failed to prune old reports", zap.Error(err))
		} else if len(deleted) > 0 {
			s.logger.Info("Pruned old reports", zap.Int("deleted", len(deleted)))
		}
	}
	return result, nil
}

// List returns the stored report keys, oldest first.
func (s *Service) List(ctx context.Context) ([]string, error) {
	return s.store.ListReportKeys(ctx, "")
}

// Get reads a report by key or by file name inside the reports namespace.
func (s *Service) Get(ctx context.Context, keyOrName string) (*reconcile.Report, error) {
	return s.store.Read(ctx, s.resolve(keyOrName))
}

// Delete removes a report by key or file name.
func (s *Service) Delete(ctx context.Context, keyOrName string) error {
	return s.store.Delete(ctx, s.resolve(keyOrName))
}

// Prune keeps the newest keep reports.
func (s *Service) Prune(ctx context.Context, keep int) ([]string, error) {
	return s.store.Prune(ctx, "", keep)
}

func (s *Service) resolve(keyOrName string) string {
	if path.Base(keyOrName) == keyOrName {
		return s.store.Namespace() + keyOrName
	}
	return keyOrName
}
