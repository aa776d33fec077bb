package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dealradar-backend/internal/domain/catalog"
	apperrors "dealradar-backend/internal/errors"
	"dealradar-backend/internal/repository/mocks"
)

type historyFixture struct {
	svc       *PriceHistoryService
	offers    *mocks.OfferRepository
	snapshots *mocks.SnapshotRepository
	clock     time.Time
}

func newHistoryFixture() *historyFixture {
	offers := mocks.NewOfferRepository()
	snapshots := mocks.NewSnapshotRepository(offers)
	f := &historyFixture{
		svc:       NewPriceHistoryService(offers, snapshots, zap.NewNop(), nil),
		offers:    offers,
		snapshots: snapshots,
		clock:     time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *historyFixture) seedOffer(id string, price float64) {
	f.offers.Seed(catalog.Offer{
		ID: id, ProductID: "p1", SellerName: "TechStore", SellerSite: "ebay",
		SellerSiteID: "site-" + id, CurrentPrice: price, Currency: "USD",
	})
}

func (f *historyFixture) seedSnapshot(offerID string, daysAgo int, price float64) {
	f.snapshots.Seed(catalog.PriceSnapshot{
		OfferID:   offerID,
		Timestamp: f.clock.AddDate(0, 0, -daysAgo),
		Price:     price,
		Currency:  "USD",
	})
}

func TestRecordPriceSnapshotOnChange(t *testing.T) {
	f := newHistoryFixture()
	f.seedOffer("o1", 100.00)
	ctx := context.Background()

	require.NoError(t, f.svc.RecordPriceSnapshot(ctx, "o1", 85.00, "USD"))

	assert.Equal(t, 1, f.snapshots.Count("o1"))
	offer, _ := f.offers.Get("o1")
	assert.Equal(t, 85.00, offer.CurrentPrice)
}

func TestRecordPriceSnapshotWithinEpsilon(t *testing.T) {
	f := newHistoryFixture()
	f.seedOffer("o1", 100.00)
	ctx := context.Background()

	// A sub-cent move is rounding noise, not a price change.
	require.NoError(t, f.svc.RecordPriceSnapshot(ctx, "o1", 100.005, "USD"))

	assert.Equal(t, 0, f.snapshots.Count("o1"))
	offer, _ := f.offers.Get("o1")
	assert.Equal(t, 100.00, offer.CurrentPrice)
	assert.False(t, offer.LastCheckedAt.IsZero())
}

func TestRecordPriceSnapshotMissingOfferIsNoOp(t *testing.T) {
	f := newHistoryFixture()

	require.NoError(t, f.svc.RecordPriceSnapshot(context.Background(), "ghost", 50.00, "USD"))
	assert.Equal(t, 0, f.snapshots.Count("ghost"))
}

func TestGetPriceHistoryValidation(t *testing.T) {
	f := newHistoryFixture()
	f.seedOffer("o1", 100.00)

	_, err := f.svc.GetPriceHistory(context.Background(), "o1", 0)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	_, err = f.svc.GetPriceHistory(context.Background(), "ghost", 30)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGetPriceHistoryDegenerate(t *testing.T) {
	f := newHistoryFixture()
	f.seedOffer("o1", 100.00)

	history, err := f.svc.GetPriceHistory(context.Background(), "o1", 30)
	require.NoError(t, err)

	require.Len(t, history.History, 1)
	assert.Equal(t, 100.00, history.History[0].Price)
	assert.Equal(t, 100.00, history.Stats.MinPrice)
	assert.Equal(t, 100.00, history.Stats.MaxPrice)
	assert.Equal(t, 100.00, history.Stats.AvgPrice)
	assert.Equal(t, catalog.TrendStable, history.Stats.PriceTrend)
	assert.Zero(t, history.Stats.LastChangePercent)
}

func TestGetPriceHistoryStats(t *testing.T) {
	f := newHistoryFixture()
	f.seedOffer("o1", 80.00)
	f.seedSnapshot("o1", 20, 100.00)
	f.seedSnapshot("o1", 10, 90.00)
	f.seedSnapshot("o1", 1, 80.00)

	history, err := f.svc.GetPriceHistory(context.Background(), "o1", 30)
	require.NoError(t, err)

	require.Len(t, history.History, 3)
	assert.Equal(t, 80.00, history.CurrentPrice)
	assert.Zero(t, history.History[0].ChangePercent)
	assert.InDelta(t, -10.0, history.History[1].ChangePercent, 0.001)
	assert.InDelta(t, -11.111, history.History[2].ChangePercent, 0.001)

	assert.Equal(t, 80.00, history.Stats.MinPrice)
	assert.Equal(t, 100.00, history.Stats.MaxPrice)
	assert.Equal(t, 90.00, history.Stats.AvgPrice)
	assert.Equal(t, catalog.TrendDown, history.Stats.PriceTrend)
	assert.Equal(t, -20.0, history.Stats.LastChangePercent)
}

func TestGetPriceHistorySingleSnapshotStats(t *testing.T) {
	f := newHistoryFixture()
	f.seedOffer("o1", 100.00)
	ctx := context.Background()

	require.NoError(t, f.svc.RecordPriceSnapshot(ctx, "o1", 85.00, "USD"))

	history, err := f.svc.GetPriceHistory(ctx, "o1", 7)
	require.NoError(t, err)

	assert.Equal(t, 85.00, history.CurrentPrice)
	require.Len(t, history.History, 1)
	assert.Equal(t, 85.00, history.History[0].Price)
	assert.Equal(t, 0.0, history.History[0].ChangePercent)

	// One point: zero spread, stable trend.
	assert.Equal(t, 85.00, history.Stats.MinPrice)
	assert.Equal(t, 85.00, history.Stats.MaxPrice)
	assert.Equal(t, 85.00, history.Stats.AvgPrice)
	assert.Equal(t, catalog.TrendStable, history.Stats.PriceTrend)
	assert.Equal(t, 0.0, history.Stats.LastChangePercent)
}

func TestGetPriceHistoryWindowExcludesOldSnapshots(t *testing.T) {
	f := newHistoryFixture()
	f.seedOffer("o1", 80.00)
	f.seedSnapshot("o1", 60, 150.00)
	f.seedSnapshot("o1", 5, 80.00)

	history, err := f.svc.GetPriceHistory(context.Background(), "o1", 30)
	require.NoError(t, err)

	require.Len(t, history.History, 1)
	assert.Equal(t, 80.00, history.Stats.MaxPrice)
}

func TestGetProductPriceHistory(t *testing.T) {
	f := newHistoryFixture()
	f.seedOffer("o1", 80.00)
	f.seedOffer("o2", 95.00)
	f.seedSnapshot("o1", 10, 100.00)
	f.seedSnapshot("o1", 1, 80.00)
	f.seedSnapshot("o2", 5, 75.00)

	result, err := f.svc.GetProductPriceHistory(context.Background(), "p1", 30)
	require.NoError(t, err)

	require.Len(t, result.Offers, 2)
	assert.Equal(t, 80.00, result.BestPrice.Current)
	assert.Equal(t, 75.00, result.BestPrice.Historical)
}

func TestGetProductPriceHistoryNoOffers(t *testing.T) {
	f := newHistoryFixture()

	_, err := f.svc.GetProductPriceHistory(context.Background(), "empty", 30)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestBulkUpdatePricesPartialFailure(t *testing.T) {
	f := newHistoryFixture()
	f.seedOffer("o1", 100.00)
	f.seedOffer("o2", 200.00)

	result := f.svc.BulkUpdatePrices(context.Background(), []PriceUpdate{
		{ID: "o1", Price: 90.00, Currency: "USD"},
		{ID: "ghost", Price: 10.00, Currency: "USD"}, // missing offer: no-op, not a failure
		{ID: "o2", Price: 180.00, Currency: "USD"},
	})

	assert.Equal(t, 3, result.Updated)
	assert.Equal(t, 0, result.Errors)
	assert.Equal(t, 1, f.snapshots.Count("o1"))
	assert.Equal(t, 1, f.snapshots.Count("o2"))
	assert.Equal(t, 0, f.snapshots.Count("ghost"))
}

func TestGetMarketTrends(t *testing.T) {
	f := newHistoryFixture()
	// Down: 100 -> 80 (-20%), up: 50 -> 60 (+20%), stable: 100 -> 101 (+1%).
	f.seedOffer("down", 80.00)
	f.seedOffer("up", 60.00)
	f.seedOffer("flat", 101.00)
	f.seedSnapshot("down", 20, 100.00)
	f.seedSnapshot("down", 5, 90.00)
	f.seedSnapshot("up", 15, 50.00)
	f.seedSnapshot("flat", 10, 100.00)
	for id, category := range map[string]string{"down": "Laptops", "up": "Laptops", "flat": "Laptops"} {
		f.snapshots.Categories[id] = category
	}

	trends, err := f.svc.GetMarketTrends(context.Background(), "laptops", 30)
	require.NoError(t, err)

	assert.Equal(t, 3, trends.TotalOffers)
	assert.Equal(t, 1, trends.Trends.Increasing)
	assert.Equal(t, 1, trends.Trends.Decreasing)
	assert.Equal(t, 1, trends.Trends.Stable)
	// (-20 + 20 + 1) / 3
	assert.InDelta(t, 0.33, trends.AvgPriceChange, 0.001)
}

func TestGetMarketTrendsEmptyWindow(t *testing.T) {
	f := newHistoryFixture()

	trends, err := f.svc.GetMarketTrends(context.Background(), "", 30)
	require.NoError(t, err)
	assert.Zero(t, trends.TotalOffers)
	assert.Zero(t, trends.AvgPriceChange)
}
