// Package postgres implements the repository interfaces on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"dealradar-backend/internal/infrastructure/observability"
)

// Connect opens a connection pool to the database at dsn and verifies it
// with a ping.
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// schema mirrors the products / offers / price_snapshots tables. Applied
// idempotently at startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id UUID PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		brand VARCHAR(255),
		attributes JSONB NOT NULL DEFAULT '{}',
		canonical_description TEXT,
		images JSONB NOT NULL DEFAULT '[]',
		category VARCHAR(255),
		avg_rating NUMERIC(3,2),
		review_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS products_title_idx ON products (title)`,
	`CREATE INDEX IF NOT EXISTS products_brand_idx ON products (brand)`,
	`CREATE INDEX IF NOT EXISTS products_category_idx ON products (category)`,
	`CREATE INDEX IF NOT EXISTS products_created_at_idx ON products (created_at)`,
	`CREATE TABLE IF NOT EXISTS offers (
		id UUID PRIMARY KEY,
		product_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		seller_name VARCHAR(255) NOT NULL,
		seller_site VARCHAR(255) NOT NULL,
		seller_site_id VARCHAR(255) NOT NULL,
		current_price NUMERIC(10,2) NOT NULL,
		currency CHAR(3) NOT NULL DEFAULT 'USD',
		url TEXT NOT NULL,
		availability VARCHAR(20) NOT NULL DEFAULT 'available',
		shipping_info JSONB NOT NULL DEFAULT '{}',
		rating NUMERIC(3,2),
		review_count INTEGER NOT NULL DEFAULT 0,
		last_checked_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (seller_site, seller_site_id)
	)`,
	`CREATE INDEX IF NOT EXISTS offers_product_id_idx ON offers (product_id)`,
	`CREATE INDEX IF NOT EXISTS offers_current_price_idx ON offers (current_price)`,
	`CREATE INDEX IF NOT EXISTS offers_last_checked_at_idx ON offers (last_checked_at)`,
	`CREATE TABLE IF NOT EXISTS price_snapshots (
		id BIGSERIAL PRIMARY KEY,
		offer_id UUID NOT NULL REFERENCES offers(id) ON DELETE CASCADE,
		observed_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		price NUMERIC(10,2) NOT NULL,
		currency CHAR(3) NOT NULL DEFAULT 'USD'
	)`,
	`CREATE INDEX IF NOT EXISTS price_snapshots_offer_idx ON price_snapshots (offer_id, observed_at)`,
}

// EnsureSchema applies the table definitions if they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// track records one database operation's count and duration.
func track(metrics *observability.Collector, operation, table string) func() {
	start := time.Now()
	return func() {
		if metrics == nil {
			return
		}
		metrics.DBOperations.WithLabelValues(operation, table).Inc()
		metrics.DBDuration.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
