package storage

import (
	"context"

	"product-insights/models"
)

// RawProductSource supplies the raw product table.
type RawProductSource interface {
	FetchAll(ctx context.Context) ([]*models.RawProduct, error)
}

// RawProductStore persists the raw product table.
type RawProductStore interface {
	RawProductSource
	WriteRaw(ctx context.Context, products []*models.RawProduct) error
	Close() error
}

// EnrichedWriter exports the enriched base product set.
type EnrichedWriter interface {
	WriteEnriched(products []*models.Product) error
	Close() error
}

var (
	_ RawProductStore = (*PostgresStore)(nil)
	_ EnrichedWriter  = (*CSVWriter)(nil)
)
