package di

import (
	"context"
	"database/sql"
	"net/http"

	"go.uber.org/zap"

	"dealradar-backend/internal/config"
	"dealradar-backend/internal/infrastructure/cache"
	"dealradar-backend/internal/infrastructure/connectors"
	"dealradar-backend/internal/infrastructure/observability"
	httpiface "dealradar-backend/internal/interfaces/http"
	"dealradar-backend/internal/repository"
	"dealradar-backend/internal/service"
)

// Container holds every wired component of the application.
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *observability.Collector

	Store cache.Store
	DB    *sql.DB

	Products  repository.ProductRepository
	Offers    repository.OfferRepository
	Snapshots repository.SnapshotRepository

	CacheService        *service.CacheService
	ProductReadService  *service.ProductReadService
	PriceHistoryService *service.PriceHistoryService
	IngestionService    *service.IngestionService

	EbayClient    *connectors.EbayClient
	ScraperClient *connectors.ScraperClient

	Router http.Handler
}

// Shutdown releases the container's external resources.
func (c *Container) Shutdown(ctx context.Context) {
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			c.Logger.Warn("cache store close failed", zap.Error(err))
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			c.Logger.Warn("database close failed", zap.Error(err))
		}
	}
	c.Logger.Sync()
}

// WatchConfig attaches a config file watcher that hot-reloads the cache
// TTLs. Used in development; a nil watcher error means no CONFIG_FILE is
// set and nothing is watched.
func (c *Container) WatchConfig(path string) (*config.Watcher, error) {
	watcher, err := config.NewWatcher(path, c.Config, c.Logger)
	if err != nil {
		return nil, err
	}
	watcher.OnReload(func(cfg *config.Config) {
		c.CacheService.SetTTLs(cfg.Cache)
	})
	return watcher, nil
}

func newContainer(
	cfg *config.Config,
	logger *zap.Logger,
	metrics *observability.Collector,
	store cache.Store,
	db *sql.DB,
	products repository.ProductRepository,
	offers repository.OfferRepository,
	snapshots repository.SnapshotRepository,
	cacheService *service.CacheService,
	reads *service.ProductReadService,
	prices *service.PriceHistoryService,
	ingest *service.IngestionService,
	ebay *connectors.EbayClient,
	scraper *connectors.ScraperClient,
	handlers *httpiface.Handlers,
) *Container {
	return &Container{
		Config:              cfg,
		Logger:              logger,
		Metrics:             metrics,
		Store:               store,
		DB:                  db,
		Products:            products,
		Offers:              offers,
		Snapshots:           snapshots,
		CacheService:        cacheService,
		ProductReadService:  reads,
		PriceHistoryService: prices,
		IngestionService:    ingest,
		EbayClient:          ebay,
		ScraperClient:       scraper,
		Router:              httpiface.NewRouter(handlers, cfg),
	}
}
