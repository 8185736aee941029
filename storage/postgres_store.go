package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"product-insights/models"
	"product-insights/utils"
)

const productColumns = 5

// PostgresStore mirrors the raw product table into PostgreSQL. Only raw
// fields are stored; derived columns are recomputed after FetchAll.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection, waits for the server with retries,
// runs schema migrations and returns a ready-to-use store.
func NewPostgresStore(ctx context.Context, dsn string, retry *utils.RetryConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	err = retry.Do(ctx, "postgres-ping", func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return ps, nil
}

func (ps *PostgresStore) migrate(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS products (
			id           SERIAL PRIMARY KEY,
			product_name TEXT NOT NULL DEFAULT '',
			price        TEXT NOT NULL DEFAULT '',
			rating       TEXT NOT NULL DEFAULT '',
			reviews      TEXT NOT NULL DEFAULT '',
			category_url TEXT NOT NULL DEFAULT '',
			loaded_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_url);
	`)
	return err
}

// WriteRaw replaces the stored table with products in one transaction.
func (ps *PostgresStore) WriteRaw(ctx context.Context, products []*models.RawProduct) error {
	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM products"); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}

	const batchSize = 200
	for i := 0; i < len(products); i += batchSize {
		end := i + batchSize
		if end > len(products) {
			end = len(products)
		}
		query, args := insertBatchQuery(products[i:end])
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("postgres: insert batch at %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func insertBatchQuery(batch []*models.RawProduct) (string, []any) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*productColumns)

	for idx, p := range batch {
		base := idx * productColumns
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d)", base+1, base+2, base+3, base+4, base+5))
		valueArgs = append(valueArgs, p.ProductName, p.Price, p.Rating, p.Reviews, p.CategoryURL)
	}

	query := fmt.Sprintf(
		"INSERT INTO products (product_name, price, rating, reviews, category_url) VALUES %s",
		strings.Join(valueStrings, ","))
	return query, valueArgs
}

// FetchAll returns the stored raw products in insertion order.
func (ps *PostgresStore) FetchAll(ctx context.Context) ([]*models.RawProduct, error) {
	rows, err := ps.db.QueryContext(ctx, `
		SELECT product_name, price, rating, reviews, category_url
		FROM products
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var products []*models.RawProduct
	for rows.Next() {
		p := &models.RawProduct{}
		if err := rows.Scan(&p.ProductName, &p.Price, &p.Rating, &p.Reviews, &p.CategoryURL); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
