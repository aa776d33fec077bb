package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"dealradar-backend/internal/domain/catalog"
	apperrors "dealradar-backend/internal/errors"
	"dealradar-backend/internal/infrastructure/observability"
	"dealradar-backend/internal/repository"
)

const productColumns = `id, title, brand, attributes, canonical_description, images,
	category, avg_rating, review_count, created_at, updated_at`

// Qualified variant for queries that join offers, where several column
// names are ambiguous.
const qualifiedProductColumns = `products.id, products.title, products.brand,
	products.attributes, products.canonical_description, products.images,
	products.category, products.avg_rating, products.review_count,
	products.created_at, products.updated_at`

// ProductRepository implements repository.ProductRepository on Postgres.
type ProductRepository struct {
	db      *sql.DB
	metrics *observability.Collector
}

// NewProductRepository creates a product repository over db.
func NewProductRepository(db *sql.DB, metrics *observability.Collector) *ProductRepository {
	return &ProductRepository{db: db, metrics: metrics}
}

func (r *ProductRepository) Create(ctx context.Context, product *catalog.Product) error {
	defer track(r.metrics, "insert", "products")()

	attrs, err := json.Marshal(orEmptyMap(product.Attributes))
	if err != nil {
		return apperrors.Internal("PRODUCT_ENCODE", "failed to encode product attributes").WithCause(err)
	}
	images, err := json.Marshal(orEmptyList(product.Images))
	if err != nil {
		return apperrors.Internal("PRODUCT_ENCODE", "failed to encode product images").WithCause(err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO products (id, title, brand, attributes, canonical_description, images, category, avg_rating, review_count)
		VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), $6, NULLIF($7, ''), $8, $9)`,
		product.ID, product.Title, product.Brand, attrs, product.Description,
		images, product.Category, product.AvgRating, product.ReviewCount,
	)
	if err != nil {
		return apperrors.Internal("PRODUCT_INSERT", "failed to insert product").
			WithResource("product").WithCause(err)
	}
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*catalog.Product, error) {
	defer track(r.metrics, "select", "products")()

	row := r.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns), id)
	product, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("PRODUCT_NOT_FOUND", "product not found").
			WithResource("product")
	}
	if err != nil {
		return nil, apperrors.Internal("PRODUCT_QUERY", "failed to load product").
			WithResource("product").WithCause(err)
	}
	return product, nil
}

func (r *ProductRepository) Search(ctx context.Context, query repository.ProductSearch) ([]catalog.Product, error) {
	defer track(r.metrics, "select", "products")()

	var (
		where []string
		joins string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if query.Text != "" {
		p := arg("%" + query.Text + "%")
		where = append(where, fmt.Sprintf(
			"(products.title ILIKE %s OR products.brand ILIKE %s OR products.canonical_description ILIKE %s)", p, p, p))
	}
	if query.Category != "" {
		where = append(where, fmt.Sprintf("products.category ILIKE %s", arg("%"+query.Category+"%")))
	}
	if query.Brand != "" {
		where = append(where, fmt.Sprintf("products.brand ILIKE %s", arg("%"+query.Brand+"%")))
	}
	groupBy := ""
	if query.MinPrice > 0 || query.MaxPrice > 0 {
		joins = " JOIN offers ON offers.product_id = products.id"
		groupBy = " GROUP BY products.id"
		if query.MinPrice > 0 {
			where = append(where, fmt.Sprintf("offers.current_price >= %s", arg(query.MinPrice)))
		}
		if query.MaxPrice > 0 {
			where = append(where, fmt.Sprintf("offers.current_price <= %s", arg(query.MaxPrice)))
		}
	}

	sqlQuery := fmt.Sprintf(`SELECT %s FROM products`, qualifiedProductColumns) + joins
	if len(where) > 0 {
		sqlQuery += " WHERE " + strings.Join(where, " AND ")
	}
	limit := query.Limit
	if limit <= 0 {
		limit = 20
	}
	sqlQuery += groupBy + fmt.Sprintf(" ORDER BY products.created_at DESC LIMIT %s OFFSET %s",
		arg(limit), arg(query.Offset))

	rows, err := r.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, apperrors.Internal("PRODUCT_SEARCH", "product search failed").
			WithResource("product").WithCause(err)
	}
	defer rows.Close()

	var products []catalog.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, apperrors.Internal("PRODUCT_SCAN", "failed to read product row").WithCause(err)
		}
		products = append(products, *product)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal("PRODUCT_SEARCH", "product search failed").WithCause(err)
	}
	return products, nil
}

func (r *ProductRepository) Update(ctx context.Context, product *catalog.Product) error {
	defer track(r.metrics, "update", "products")()

	attrs, err := json.Marshal(orEmptyMap(product.Attributes))
	if err != nil {
		return apperrors.Internal("PRODUCT_ENCODE", "failed to encode product attributes").WithCause(err)
	}
	images, err := json.Marshal(orEmptyList(product.Images))
	if err != nil {
		return apperrors.Internal("PRODUCT_ENCODE", "failed to encode product images").WithCause(err)
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET title = $2, brand = NULLIF($3, ''), attributes = $4,
			canonical_description = NULLIF($5, ''), images = $6,
			category = NULLIF($7, ''), avg_rating = $8, review_count = $9,
			updated_at = now()
		WHERE id = $1`,
		product.ID, product.Title, product.Brand, attrs, product.Description,
		images, product.Category, product.AvgRating, product.ReviewCount,
	)
	if err != nil {
		return apperrors.Internal("PRODUCT_UPDATE", "failed to update product").
			WithResource("product").WithCause(err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return apperrors.NotFound("PRODUCT_NOT_FOUND", "product not found").
			WithResource("product")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*catalog.Product, error) {
	var (
		product     catalog.Product
		brand       sql.NullString
		description sql.NullString
		category    sql.NullString
		avgRating   sql.NullFloat64
		attrs       []byte
		images      []byte
	)
	err := row.Scan(
		&product.ID, &product.Title, &brand, &attrs, &description, &images,
		&category, &avgRating, &product.ReviewCount, &product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	product.Brand = brand.String
	product.Description = description.String
	product.Category = category.String
	if avgRating.Valid {
		product.AvgRating = &avgRating.Float64
	}
	if err := json.Unmarshal(attrs, &product.Attributes); err != nil {
		product.Attributes = map[string]any{}
	}
	if err := json.Unmarshal(images, &product.Images); err != nil {
		product.Images = []string{}
	}
	return &product, nil
}

func orEmptyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func orEmptyList(l []string) []string {
	if l == nil {
		return []string{}
	}
	return l
}
