// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/storage"
)

// PoolConfig controls the Postgres connection pool.
type PoolConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type dbPool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Close()
}

func newPool(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pool, nil
}

// ProductStore persists harvested products in Postgres.
type ProductStore struct {
	pool dbPool
}

// NewProductStore creates a Postgres-backed ProductStore using the provided config.
func NewProductStore(ctx context.Context, cfg PoolConfig) (*ProductStore, error) {
	pool, err := newPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &ProductStore{pool: pool}, nil
}

// NewProductStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewProductStoreWithPool(pool dbPool) (*ProductStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &ProductStore{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *ProductStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// ExistsBySourceURL reports whether a product with the URL is stored.
func (s *ProductStore) ExistsBySourceURL(ctx context.Context, sourceURL string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM products WHERE source_url = $1)`,
		sourceURL,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check product exists: %w", err)
	}
	return exists, nil
}

// Insert stores a product and returns its id. A conflicting source URL
// yields storage.ErrDuplicate.
func (s *ProductStore) Insert(ctx context.Context, p storage.Product) (int64, error) {
	if p.SourceURL == "" {
		return 0, fmt.Errorf("product source url is required")
	}
	imageURLs, err := json.Marshal(p.ImageURLs)
	if err != nil {
		return 0, fmt.Errorf("marshal image urls: %w", err)
	}
	rawMeta, err := json.Marshal(p.RawMetadata)
	if err != nil {
		return 0, fmt.Errorf("marshal raw metadata: %w", err)
	}
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var id int64
	err = s.pool.QueryRow(ctx, `
INSERT INTO products (
	source_url,
	name,
	jewel_type,
	metal,
	gemstone,
	gemstone_color,
	metal_color,
	color,
	price_amount,
	price_currency,
	description,
	summary,
	vibe,
	image_dir,
	image_urls,
	raw_metadata,
	created_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17
)
ON CONFLICT (source_url) DO NOTHING
RETURNING id`,
		p.SourceURL,
		p.Name,
		p.JewelType,
		p.Metal,
		p.Gemstone,
		p.GemstoneColor,
		p.MetalColor,
		p.Color,
		p.PriceAmount,
		p.PriceCurrency,
		p.Description,
		p.Summary,
		p.Vibe,
		p.ImageDir,
		imageURLs,
		rawMeta,
		createdAt,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, storage.ErrDuplicate
	}
	if err != nil {
		return 0, fmt.Errorf("insert product: %w", err)
	}
	return id, nil
}

// List returns stored products matching the filter, newest first.
func (s *ProductStore) List(ctx context.Context, f storage.ProductFilter) ([]storage.Product, error) {
	where, args := buildFilterClause(f)
	query := `
SELECT id, source_url, name, jewel_type, metal, gemstone, gemstone_color,
       metal_color, color, price_amount, price_currency, description,
       summary, vibe, image_dir, image_urls, raw_metadata, created_at
FROM products` + where + `
ORDER BY id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []storage.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// Count returns the number of products matching the filter, ignoring
// Limit and Offset.
func (s *ProductStore) Count(ctx context.Context, f storage.ProductFilter) (int, error) {
	where, args := buildFilterClause(f)
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// FilterValues returns the distinct facet values with product counts.
func (s *ProductStore) FilterValues(ctx context.Context) (storage.FilterValues, error) {
	fv := storage.FilterValues{}
	facets := []struct {
		column string
		dest   *map[string]int
	}{
		{"jewel_type", &fv.JewelTypes},
		{"metal", &fv.Metals},
		{"gemstone", &fv.Gemstones},
		{"vibe", &fv.Vibes},
	}
	for _, facet := range facets {
		counts, err := s.facetCounts(ctx, facet.column)
		if err != nil {
			return storage.FilterValues{}, err
		}
		*facet.dest = counts
	}
	return fv, nil
}

func (s *ProductStore) facetCounts(ctx context.Context, column string) (map[string]int, error) {
	query := fmt.Sprintf(
		`SELECT %s, COUNT(*) FROM products WHERE %s <> '' GROUP BY %s`,
		column, column, column,
	)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count %s facet: %w", column, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var value string
		var n int
		if err := rows.Scan(&value, &n); err != nil {
			return nil, fmt.Errorf("scan %s facet: %w", column, err)
		}
		counts[value] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count %s facet: %w", column, err)
	}
	return counts, nil
}

func buildFilterClause(f storage.ProductFilter) (string, []any) {
	var clauses []string
	var args []any
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("jewel_type", f.JewelType)
	add("metal", f.Metal)
	add("gemstone", f.Gemstone)
	add("vibe", f.Vibe)
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanProduct(rows pgx.Rows) (storage.Product, error) {
	var p storage.Product
	var imageURLs, rawMeta []byte
	err := rows.Scan(
		&p.ID,
		&p.SourceURL,
		&p.Name,
		&p.JewelType,
		&p.Metal,
		&p.Gemstone,
		&p.GemstoneColor,
		&p.MetalColor,
		&p.Color,
		&p.PriceAmount,
		&p.PriceCurrency,
		&p.Description,
		&p.Summary,
		&p.Vibe,
		&p.ImageDir,
		&imageURLs,
		&rawMeta,
		&p.CreatedAt,
	)
	if err != nil {
		return storage.Product{}, fmt.Errorf("scan product: %w", err)
	}
	if len(imageURLs) > 0 {
		if err := json.Unmarshal(imageURLs, &p.ImageURLs); err != nil {
			return storage.Product{}, fmt.Errorf("unmarshal image urls: %w", err)
		}
	}
	if len(rawMeta) > 0 {
		if err := json.Unmarshal(rawMeta, &p.RawMetadata); err != nil {
			return storage.Product{}, fmt.Errorf("unmarshal raw metadata: %w", err)
		}
	}
	return p, nil
}
