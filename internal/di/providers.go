// Package di wires the application together: configuration, logging,
// the cache store with its no-op fallback, the Postgres repositories,
// the services and the HTTP router.
package di

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"dealradar-backend/internal/config"
	"dealradar-backend/internal/infrastructure/cache"
	"dealradar-backend/internal/infrastructure/connectors"
	"dealradar-backend/internal/infrastructure/observability"
	"dealradar-backend/internal/repository"
	"dealradar-backend/internal/repository/postgres"
	"dealradar-backend/internal/service"
)

func provideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsDevelopment() {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	if level, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
		zapCfg.Level = level
	}
	return zapCfg.Build()
}

func provideMetrics(cfg *config.Config) *observability.Collector {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewCollector("dealradar")
}

// provideCacheStore connects to Redis, degrading to the no-op store when
// caching is disabled or Redis does not answer the startup ping. The
// service then runs cacheless; every read goes to the system of record.
func provideCacheStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) cache.Store {
	if !cfg.CacheEnabled {
		logger.Info("caching disabled by configuration")
		return cache.NewNoopStore()
	}

	store := cache.NewRedisStore(cache.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := store.Ping(ctx); err != nil {
		logger.Warn("redis unreachable, continuing without cache",
			zap.String("addr", cfg.Redis.Addr),
			zap.Error(err),
		)
		store.Close()
		return cache.NewNoopStore()
	}

	logger.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
	return store
}

func provideDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func provideProductRepository(db *sql.DB, metrics *observability.Collector) repository.ProductRepository {
	return postgres.NewProductRepository(db, metrics)
}

func provideOfferRepository(db *sql.DB, metrics *observability.Collector) repository.OfferRepository {
	return postgres.NewOfferRepository(db, metrics)
}

func provideSnapshotRepository(db *sql.DB, metrics *observability.Collector) repository.SnapshotRepository {
	return postgres.NewSnapshotRepository(db, metrics)
}

func provideCacheService(store cache.Store, cfg *config.Config, logger *zap.Logger, metrics *observability.Collector) *service.CacheService {
	return service.NewCacheService(store, cfg.Cache, logger, metrics)
}

func provideEbayClient(cfg *config.Config, logger *zap.Logger) *connectors.EbayClient {
	return connectors.NewEbayClient(cfg.Ebay, logger)
}

func provideScraperClient(cfg *config.Config, logger *zap.Logger) *connectors.ScraperClient {
	return connectors.NewScraperClient(cfg.Scraper, logger)
}
