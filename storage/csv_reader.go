package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"product-insights/models"
)

// RequiredColumns must all be present in the input header.
var RequiredColumns = []string{"product_name", "price", "rating", "reviews", "category_url"}

var (
	// ErrMissingColumn is returned when the header lacks a required column.
	ErrMissingColumn = errors.New("missing required column")
	// ErrEmptyInput is returned when the input has no header row.
	ErrEmptyInput = errors.New("input has no header row")
)

// CSVReader loads raw products from a delimited text table with a header row.
type CSVReader struct {
	Delimiter rune
}

// NewCSVReader creates a reader for the given field delimiter.
func NewCSVReader(delimiter rune) *CSVReader {
	if delimiter == 0 {
		delimiter = ','
	}
	return &CSVReader{Delimiter: delimiter}
}

// ReadFile opens path and reads every row.
func (c *CSVReader) ReadFile(path string) ([]*models.RawProduct, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer f.Close()
	return c.Read(f)
}

// Read validates the header and returns one RawProduct per data row.
// Short rows leave the absent fields empty; extra columns are ignored.
func (c *CSVReader) Read(r io.Reader) ([]*models.RawProduct, error) {
	cr := csv.NewReader(r)
	cr.Comma = c.Delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}

	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var products []*models.RawProduct
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: read row %d: %w", len(products)+2, err)
		}

		field := func(name string) string {
			i := index[name]
			if i >= len(row) {
				return ""
			}
			return row[i]
		}

		products = append(products, &models.RawProduct{
			ProductName: field("product_name"),
			Price:       field("price"),
			Rating:      field("rating"),
			Reviews:     field("reviews"),
			CategoryURL: field("category_url"),
		})
	}
	return products, nil
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("csv: %w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return index, nil
}
