package service

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"dealradar-backend/internal/domain/catalog"
	apperrors "dealradar-backend/internal/errors"
	"dealradar-backend/internal/infrastructure/observability"
	"dealradar-backend/internal/repository"
)

// priceEpsilon is the minimum price movement worth a snapshot. Smaller
// deltas only advance last_checked_at, which keeps float/currency
// rounding noise out of the series.
const priceEpsilon = 0.01

// PriceHistoryService maintains the append-only price series per offer
// and derives trend statistics from it.
type PriceHistoryService struct {
	offers    repository.OfferRepository
	snapshots repository.SnapshotRepository
	logger    *zap.Logger
	metrics   *observability.Collector
	now       func() time.Time
}

// NewPriceHistoryService creates the price history service.
func NewPriceHistoryService(
	offers repository.OfferRepository,
	snapshots repository.SnapshotRepository,
	logger *zap.Logger,
	metrics *observability.Collector,
) *PriceHistoryService {
	return &PriceHistoryService{
		offers:    offers,
		snapshots: snapshots,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
	}
}

// RecordPriceSnapshot stores a new observation for the offer. When the
// observed price moves more than the epsilon, a snapshot row is appended
// and the offer's current price updated; otherwise only last_checked_at
// advances. A missing offer is a logged no-op, not an error: the offer
// can be deleted between a scrape and its price update arriving.
func (s *PriceHistoryService) RecordPriceSnapshot(ctx context.Context, offerID string, price float64, currency string) error {
	offer, err := s.offers.FindByID(ctx, offerID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			s.logger.Warn("offer not found for price snapshot", zap.String("offer_id", offerID))
			return nil
		}
		return err
	}

	now := s.now()
	if math.Abs(offer.CurrentPrice-price) > priceEpsilon {
		snapshot := &catalog.PriceSnapshot{
			OfferID:   offerID,
			Timestamp: now,
			Price:     price,
			Currency:  currency,
		}
		if err := s.snapshots.Insert(ctx, snapshot); err != nil {
			return err
		}
		if err := s.offers.UpdatePrice(ctx, offerID, price, now); err != nil {
			return err
		}
		if s.metrics != nil {
			s.metrics.SnapshotsRecorded.Inc()
		}
		s.logger.Info("price snapshot recorded",
			zap.String("offer_id", offerID),
			zap.Float64("old_price", offer.CurrentPrice),
			zap.Float64("new_price", price),
			zap.Float64("change_percent", catalog.Round2((price-offer.CurrentPrice)/offer.CurrentPrice*100)),
		)
		return nil
	}

	return s.offers.Touch(ctx, offerID, now)
}

// GetPriceHistory returns the offer's price series over the trailing
// window plus derived statistics. An offer with zero snapshots yields a
// well-defined degenerate history: a single point at the current price,
// trend stable, zero spread.
func (s *PriceHistoryService) GetPriceHistory(ctx context.Context, offerID string, days int) (*catalog.PriceHistory, error) {
	if days <= 0 {
		return nil, apperrors.Validation("INVALID_DAYS", "days must be positive")
	}

	offer, err := s.offers.FindByID(ctx, offerID)
	if err != nil {
		return nil, err
	}

	since := s.now().AddDate(0, 0, -days)
	snapshots, err := s.snapshots.FindByOfferSince(ctx, offerID, since)
	if err != nil {
		return nil, err
	}

	if len(snapshots) == 0 {
		// Degenerate but well-defined: a single point at the current
		// price, stable trend, zero spread.
		return &catalog.PriceHistory{
			OfferID:      offerID,
			CurrentPrice: offer.CurrentPrice,
			History: []catalog.PricePoint{
				{Timestamp: s.now(), Price: offer.CurrentPrice},
			},
			Stats: catalog.PriceStats{
				MinPrice:          offer.CurrentPrice,
				MaxPrice:          offer.CurrentPrice,
				AvgPrice:          offer.CurrentPrice,
				PriceTrend:        catalog.TrendStable,
				LastChangePercent: 0,
			},
		}, nil
	}

	points := make([]catalog.PricePoint, len(snapshots))
	minPrice, maxPrice, sum := snapshots[0].Price, snapshots[0].Price, 0.0
	for i, snapshot := range snapshots {
		point := catalog.PricePoint{Timestamp: snapshot.Timestamp, Price: snapshot.Price}
		if i > 0 {
			prev := snapshots[i-1].Price
			point.ChangePercent = (snapshot.Price - prev) / prev * 100
		}
		points[i] = point

		minPrice = math.Min(minPrice, snapshot.Price)
		maxPrice = math.Max(maxPrice, snapshot.Price)
		sum += snapshot.Price
	}

	first := snapshots[0].Price
	last := snapshots[len(snapshots)-1].Price
	lastChange := (last - first) / first * 100

	return &catalog.PriceHistory{
		OfferID:      offerID,
		CurrentPrice: offer.CurrentPrice,
		History:      points,
		Stats: catalog.PriceStats{
			MinPrice:          minPrice,
			MaxPrice:          maxPrice,
			AvgPrice:          catalog.Round2(sum / float64(len(snapshots))),
			PriceTrend:        catalog.ClassifyTrend(lastChange),
			LastChangePercent: catalog.Round2(lastChange),
		},
	}, nil
}

// GetProductPriceHistory aggregates per-offer histories for a product and
// derives the best current and historical prices across its offers.
// Not-found only when the product has zero offers.
func (s *PriceHistoryService) GetProductPriceHistory(ctx context.Context, productID string, days int) (*catalog.ProductPriceHistory, error) {
	offers, err := s.offers.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if len(offers) == 0 {
		return nil, apperrors.NotFound("PRODUCT_HISTORY_NOT_FOUND", "product has no offers").
			WithResource("product")
	}

	result := &catalog.ProductPriceHistory{
		ProductID: productID,
		Offers:    make([]catalog.OfferPriceHistory, 0, len(offers)),
	}
	currentBest := math.Inf(1)
	historicalBest := math.Inf(1)

	for _, offer := range offers {
		history, err := s.GetPriceHistory(ctx, offer.ID, days)
		if err != nil {
			if apperrors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		result.Offers = append(result.Offers, catalog.OfferPriceHistory{
			PriceHistory: *history,
			SellerName:   offer.SellerName,
			SellerSite:   offer.SellerSite,
		})
		currentBest = math.Min(currentBest, history.CurrentPrice)
		historicalBest = math.Min(historicalBest, history.Stats.MinPrice)
	}

	if !math.IsInf(currentBest, 1) {
		result.BestPrice.Current = currentBest
	}
	if !math.IsInf(historicalBest, 1) {
		result.BestPrice.Historical = historicalBest
	}
	return result, nil
}

// PriceUpdate is one entry of a bulk price update.
type PriceUpdate struct {
	ID       string  `json:"id" validate:"required"`
	Price    float64 `json:"price" validate:"gt=0"`
	Currency string  `json:"currency"`
}

// BulkResult reports how a bulk operation fared overall.
type BulkResult struct {
	Updated int `json:"updated"`
	Errors  int `json:"errors"`
}

// BulkUpdatePrices applies RecordPriceSnapshot to each entry
// independently; one item's failure never blocks the rest.
func (s *PriceHistoryService) BulkUpdatePrices(ctx context.Context, updates []PriceUpdate) BulkResult {
	var result BulkResult
	for _, update := range updates {
		if err := s.RecordPriceSnapshot(ctx, update.ID, update.Price, update.Currency); err != nil {
			result.Errors++
			s.logger.Error("bulk price update item failed",
				zap.String("offer_id", update.ID),
				zap.Error(err),
			)
			continue
		}
		result.Updated++
	}
	s.logger.Info("bulk price update completed",
		zap.Int("updated", result.Updated),
		zap.Int("errors", result.Errors),
		zap.Int("total", len(updates)),
	)
	return result
}

// GetMarketTrends buckets every offer with observations in the window by
// the percent change from its earliest-in-window snapshot to its current
// price, and reports the mean change across offers.
func (s *PriceHistoryService) GetMarketTrends(ctx context.Context, category string, days int) (*catalog.MarketTrends, error) {
	if days <= 0 {
		days = 30
	}
	since := s.now().AddDate(0, 0, -days)

	observations, err := s.snapshots.FindSince(ctx, since, category)
	if err != nil {
		return nil, err
	}

	type offerTrend struct {
		current float64
		first   float64
	}
	trendsByOffer := make(map[string]offerTrend)
	// Observations arrive in ascending time order, so the first one seen
	// per offer is its earliest in the window.
	for _, obs := range observations {
		if _, seen := trendsByOffer[obs.OfferID]; !seen {
			trendsByOffer[obs.OfferID] = offerTrend{current: obs.CurrentPrice, first: obs.Price}
		}
	}

	result := &catalog.MarketTrends{Category: category, TotalOffers: len(trendsByOffer)}
	var totalChange float64
	for _, trend := range trendsByOffer {
		change := (trend.current - trend.first) / trend.first * 100
		totalChange += change
		switch catalog.ClassifyTrend(change) {
		case catalog.TrendUp:
			result.Trends.Increasing++
		case catalog.TrendDown:
			result.Trends.Decreasing++
		default:
			result.Trends.Stable++
		}
	}
	if len(trendsByOffer) > 0 {
		result.AvgPriceChange = catalog.Round2(totalChange / float64(len(trendsByOffer)))
	}
	return result, nil
}
