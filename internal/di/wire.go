//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"dealradar-backend/internal/config"
	httpiface "dealradar-backend/internal/interfaces/http"
	"dealradar-backend/internal/service"
)

// InitializeContainer builds the full application graph.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(
		provideLogger,
		provideMetrics,
		provideCacheStore,
		provideDatabase,
		provideProductRepository,
		provideOfferRepository,
		provideSnapshotRepository,
		provideCacheService,
		service.NewProductReadService,
		service.NewPriceHistoryService,
		service.NewIngestionService,
		provideEbayClient,
		provideScraperClient,
		httpiface.NewHandlers,
		newContainer,
	)
	return nil, nil
}
