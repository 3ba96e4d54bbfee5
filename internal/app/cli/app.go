package cli

import (
	"context"
	"log/slog"

	"participations-app/config"
	"participations-app/database"
	"participations-app/internal/domain/collection"
	"participations-app/internal/domain/embedding"
	"participations-app/internal/infra/sanity"
	"participations-app/internal/infra/store"
	"participations-app/internal/infra/telemetry"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const serviceName = "participations-app"

var errContentStoreDisabled = errors.New("content store not configured: set SANITY_PROJECT_ID or SANITY_BASE_URL")

// app is the wired object graph shared by serve and sync.
type app struct {
	db         *gorm.DB
	repository *store.Repository
	embedder   *embedding.Embedder
	syncer     *collection.Syncer
	metrics    *telemetry.Metrics
	shutdown   func(context.Context) error
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	if logger == nil {
		logger = slog.Default()
	}
	policy, err := collection.ParsePolicy(cfg.SyncPolicy)
	if err != nil {
		return nil, err
	}

	shutdown, err := telemetry.SetupTracing(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		return nil, errors.Wrap(err, "setup tracing")
	}

	db, err := database.Open(cfg.DBDriver, cfg.DBURL)
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}

	a := &app{
		db:         db,
		repository: store.NewRepository(db, cfg.DBMaxConcurrency),
		metrics:    telemetry.NewMetrics(),
		shutdown:   shutdown,
	}
	a.embedder = embedding.New(a.repository)

	if cfg.SanityProjectID == "" && cfg.SanityBaseURL == "" {
		logger.Warn("content store not configured, sync disabled")
		return a, nil
	}

	client, err := sanity.New(sanity.Config{
		ProjectID:  cfg.SanityProjectID,
		Dataset:    cfg.SanityDataset,
		Token:      cfg.SanityToken,
		APIVersion: cfg.SanityAPIVersion,
		BaseURL:    cfg.SanityBaseURL,
	})
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.syncer = collection.NewSyncer(a.repository, a.embedder, client, collection.SyncerConfig{
		Policy:  policy,
		Options: collection.BuildOptions{IncludeEvents: cfg.SyncIncludeEvents},
		Logger:  logger,
		Metrics: a.metrics,
	})
	return a, nil
}

// Run implements the sync handler's runner, failing when no content store
// is configured.
func (a *app) Run(ctx context.Context) (collection.Result, error) {
	if a.syncer == nil {
		return collection.Result{}, errContentStoreDisabled
	}
	return a.syncer.Run(ctx)
}

func (a *app) Close(ctx context.Context) {
	if err := a.shutdown(ctx); err != nil {
		slog.Warn("tracer shutdown failed", "error", err)
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
