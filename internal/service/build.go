package service

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/ppiankov/sieve/internal/cache"
	"github.com/ppiankov/sieve/internal/kb"
	"github.com/ppiankov/sieve/internal/logging"
	"github.com/ppiankov/sieve/internal/model"
	"github.com/ppiankov/sieve/internal/predict"
	"github.com/ppiankov/sieve/internal/storage/sqlite"
	"github.com/ppiankov/sieve/internal/worker"
)

// Runtime is a service assembled from configuration together with the
// resources it owns
type Runtime struct {
	*Service
	repo *sqlite.Repository
}

// Close releases the database, if any
func (r *Runtime) Close() error {
	if r.repo == nil {
		return nil
	}
	return r.repo.Close()
}

// NewFromConfig opens storage, loads the knowledge base and builds the
// predictor. A predictor that cannot be built is replaced by predict.Disabled
// with a warning, so the rule engine stays usable.
func NewFromConfig(ctx context.Context, cfg *model.Config) (*Runtime, error) {
	log := logging.ComponentLogger("service")

	var storeOpts []kb.Option
	if cfg.Cache.Enabled {
		storeOpts = append(storeOpts, kb.WithCache(cache.NewMemoryCache(cfg.Cache.TTL, cfg.Cache.Cleanup)))
	}

	var repo *sqlite.Repository
	if cfg.Storage.Path != "" {
		var err error
		repo, err = openRepository(ctx, cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		storeOpts = append(storeOpts, kb.WithRepository(repo))
	}

	store := kb.NewStore(storeOpts...)
	if err := store.Load(ctx); err != nil {
		if repo != nil {
			_ = repo.Close()
		}
		return nil, err
	}

	p, err := predict.NewPredictor(predict.ConfigFromModel(cfg.Predictor))
	if err != nil {
		log.Warnw("predictor disabled", "provider", cfg.Predictor.Provider, "error", err)
		p = predict.Disabled{}
	} else {
		limiter := worker.NewLimiter(cfg.Predictor.RequestsPerSecond, cfg.Predictor.Burst)
		p = predict.Throttle(p, limiter)
	}

	svc := New(store,
		WithPredictor(p),
		WithBatchWorkers(cfg.Batch.Workers),
		WithLogger(log),
	)

	snap := store.Snapshot()
	log.Infow("knowledge base loaded",
		"storage", cfg.Storage.Path,
		"classes", len(snap.ClassNames()),
		"properties", len(snap.PropertyNames()),
		"predictor", p.Name())

	return &Runtime{Service: svc, repo: repo}, nil
}

var (
	sqliteMigrations = sqlite.RunMigrations

	// runMigrations is replaced in tests
	runMigrations = sqliteMigrations
)

// openRepository opens and migrates the database; the handle is closed again
// when migrating fails
func openRepository(ctx context.Context, path string) (*sqlite.Repository, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open database %s", path)
	}
	repo := sqlite.NewRepository(db)
	if err := runMigrations(ctx, db); err != nil {
		_ = repo.Close()
		return nil, errors.Wrap(err, "run migrations")
	}
	return repo, nil
}
