package postgres

import (
	"context"
	"database/sql"
	"time"

	"dealradar-backend/internal/domain/catalog"
	apperrors "dealradar-backend/internal/errors"
	"dealradar-backend/internal/infrastructure/observability"
	"dealradar-backend/internal/repository"
)

// SnapshotRepository implements repository.SnapshotRepository on Postgres.
type SnapshotRepository struct {
	db      *sql.DB
	metrics *observability.Collector
}

// NewSnapshotRepository creates a snapshot repository over db.
func NewSnapshotRepository(db *sql.DB, metrics *observability.Collector) *SnapshotRepository {
	return &SnapshotRepository{db: db, metrics: metrics}
}

func (r *SnapshotRepository) Insert(ctx context.Context, snapshot *catalog.PriceSnapshot) error {
	defer track(r.metrics, "insert", "price_snapshots")()

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO price_snapshots (offer_id, observed_at, price, currency)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		snapshot.OfferID, snapshot.Timestamp, snapshot.Price, snapshot.Currency,
	).Scan(&snapshot.ID)
	if err != nil {
		return apperrors.Internal("SNAPSHOT_INSERT", "failed to insert price snapshot").
			WithResource("price_snapshot").WithCause(err)
	}
	return nil
}

func (r *SnapshotRepository) FindByOfferSince(ctx context.Context, offerID string, since time.Time) ([]catalog.PriceSnapshot, error) {
	defer track(r.metrics, "select", "price_snapshots")()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, offer_id, observed_at, price, currency
		FROM price_snapshots
		WHERE offer_id = $1 AND observed_at >= $2
		ORDER BY observed_at ASC`,
		offerID, since)
	if err != nil {
		return nil, apperrors.Internal("SNAPSHOT_QUERY", "failed to load price snapshots").
			WithResource("price_snapshot").WithCause(err)
	}
	defer rows.Close()

	var snapshots []catalog.PriceSnapshot
	for rows.Next() {
		var s catalog.PriceSnapshot
		if err := rows.Scan(&s.ID, &s.OfferID, &s.Timestamp, &s.Price, &s.Currency); err != nil {
			return nil, apperrors.Internal("SNAPSHOT_SCAN", "failed to read snapshot row").WithCause(err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal("SNAPSHOT_QUERY", "failed to load price snapshots").WithCause(err)
	}
	return snapshots, nil
}

func (r *SnapshotRepository) FindSince(ctx context.Context, since time.Time, category string) ([]repository.OfferObservation, error) {
	defer track(r.metrics, "select", "price_snapshots")()

	query := `
		SELECT offers.id, offers.current_price, price_snapshots.price, price_snapshots.observed_at
		FROM price_snapshots
		JOIN offers ON offers.id = price_snapshots.offer_id
		JOIN products ON products.id = offers.product_id
		WHERE price_snapshots.observed_at >= $1`
	args := []any{since}
	if category != "" {
		query += ` AND products.category ILIKE $2`
		args = append(args, "%"+category+"%")
	}
	query += ` ORDER BY price_snapshots.observed_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Internal("SNAPSHOT_QUERY", "failed to load market observations").
			WithResource("price_snapshot").WithCause(err)
	}
	defer rows.Close()

	var observations []repository.OfferObservation
	for rows.Next() {
		var o repository.OfferObservation
		if err := rows.Scan(&o.OfferID, &o.CurrentPrice, &o.Price, &o.Timestamp); err != nil {
			return nil, apperrors.Internal("SNAPSHOT_SCAN", "failed to read observation row").WithCause(err)
		}
		observations = append(observations, o)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal("SNAPSHOT_QUERY", "failed to load market observations").WithCause(err)
	}
	return observations, nil
}
