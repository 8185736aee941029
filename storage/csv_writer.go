package storage

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"product-insights/models"
)

// EnrichedColumns is the header of the enriched export.
var EnrichedColumns = []string{
	"product_name", "price", "rating", "reviews", "category_url",
	"review_count", "value_score", "price_per_review",
}

// CSVWriter writes the enriched base product set to a CSV file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(EnrichedColumns); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteEnriched appends one row per product. Reviews are written verbatim and
// price and rating in canonical form, so reloading the file through the
// cleaner reproduces the same derived values.
func (c *CSVWriter) WriteEnriched(products []*models.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range products {
		row := []string{
			p.ProductName,
			formatNumber(p.Price),
			formatNumber(p.Rating),
			p.Reviews,
			p.CategoryURL,
			formatNumber(p.ReviewCount),
			formatNumber(p.ValueScore),
			formatNumber(p.PricePerReview),
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

// formatNumber writes missing as an empty field and non-finite values as
// inf, -inf or nan.
func formatNumber(v sql.NullFloat64) string {
	if !v.Valid {
		return ""
	}
	switch {
	case math.IsNaN(v.Float64):
		return "nan"
	case math.IsInf(v.Float64, 1):
		return "inf"
	case math.IsInf(v.Float64, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v.Float64, 'f', -1, 64)
}
