package cmd

import (
	"fmt"

	"inventory-reconciler/core/catalog"
	"inventory-reconciler/core/config"
	"inventory-reconciler/core/database"
	"inventory-reconciler/core/logger"
	"inventory-reconciler/core/metrics"
	"inventory-reconciler/core/storage"
	"inventory-reconciler/feature/report"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds the dependencies shared by the commands.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	client  storage.Client
	db      *gorm.DB
	metrics *metrics.Recorder
	service *report.Service
}

// newApp loads configuration and connects to storage. Commands that
// reconcile also need the database and catalog; withInventory opens them.
// override, when set, adjusts the loaded configuration from command flags.
func newApp(withInventory bool, override func(*config.Config)) (*app, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if override != nil {
		override(cfg)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to storage: %w", err)
	}

	m, err := metrics.New(prometheus.NewRegistry())
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	a := &app{cfg: cfg, log: l, client: client, metrics: m}

	var searcher catalog.Searcher
	if withInventory {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}

		db, err := database.Connect(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.db = db
		l.Info("Connected to inventory database", zap.String("driver", cfg.Database.Driver))

		if cfg.Catalog.URL != "" {
			c, err := catalog.NewClient(cfg.Catalog, nil)
			if err != nil {
				return nil, fmt.Errorf("failed to create catalog client: %w", err)
			}
			searcher = c
		}
	}

	a.service = report.NewService(report.Options{
		Reconcile:       cfg.Reconcile,
		Storage:         cfg.Storage,
		CatalogProvider: cfg.Catalog.Provider,
		CatalogPageSize: cfg.Catalog.EffectivePageSize(),
	}, client, a.db, searcher, l, m)
	return a, nil
}

func (a *app) close() {
	_ = database.Close(a.db)
	_ = a.log.Sync()
}
