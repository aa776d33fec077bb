package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"dealradar-backend/internal/config"
	"dealradar-backend/internal/infrastructure/cache"
	"dealradar-backend/internal/infrastructure/connectors"
	"dealradar-backend/internal/infrastructure/observability"
	"dealradar-backend/internal/service"
)

// Handlers bundles the services the REST surface is built on.
type Handlers struct {
	reads   *service.ProductReadService
	prices  *service.PriceHistoryService
	ingest  *service.IngestionService
	ebay    *connectors.EbayClient
	scraper *connectors.ScraperClient
	store   cache.Store
	metrics *observability.Collector
	logger  *zap.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(
	reads *service.ProductReadService,
	prices *service.PriceHistoryService,
	ingest *service.IngestionService,
	ebay *connectors.EbayClient,
	scraper *connectors.ScraperClient,
	store cache.Store,
	metrics *observability.Collector,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		reads:   reads,
		prices:  prices,
		ingest:  ingest,
		ebay:    ebay,
		scraper: scraper,
		store:   store,
		metrics: metrics,
		logger:  logger,
	}
}

// NewRouter assembles the chi router with middleware and all routes.
func NewRouter(h *Handlers, cfg *config.Config) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(requestLogger(h.logger))
	if cfg.EnableMetrics && h.metrics != nil {
		router.Use(requestMetrics(h.metrics))
	}

	if cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	router.Get("/health", h.health)
	router.Get("/ready", h.ready)
	if cfg.EnableMetrics && h.metrics != nil {
		router.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/search", h.searchProducts)
			r.Get("/popular", h.popularProducts)
			r.Get("/{productID}", h.getProduct)
			r.Get("/{productID}/offers", h.getProductOffers)
			r.Get("/{productID}/history", h.productPriceHistory)
			r.Post("/{productID}/invalidate", h.invalidateProduct)
		})

		r.Route("/offers", func(r chi.Router) {
			r.Get("/{offerID}/history", h.offerPriceHistory)
		})

		r.Route("/cache", func(r chi.Router) {
			r.Post("/warm", h.warmCache)
			r.Get("/stats", h.cacheStats)
		})

		r.Route("/prices", func(r chi.Router) {
			r.Post("/bulk", h.bulkUpdatePrices)
		})

		r.Get("/market/trends", h.marketTrends)

		r.Route("/connectors", func(r chi.Router) {
			r.Post("/ebay/ingest", h.ingestEbay)
			r.Post("/scraper/ingest", h.ingestScraper)
		})
	})

	return router
}

func (h *Handlers) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ready reports readiness: the cache store must answer a ping. The
// no-op store always answers, which is correct: the service serves
// cacheless when the cache backend is out.
func (h *Handlers) ready(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "cache store unreachable", "CACHE_DOWN")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
