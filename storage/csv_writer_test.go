package storage

import (
	"database/sql"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"product-insights/models"
)

func TestCSVWriterWriteEnriched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "enriched.csv")
	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}

	products := []*models.Product{
		{
			ProductName:    "Free Sample",
			Price:          sql.NullFloat64{Float64: 0, Valid: true},
			Rating:         sql.NullFloat64{Float64: 4, Valid: true},
			Reviews:        "12 reviews",
			CategoryURL:    "c1",
			ReviewCount:    sql.NullFloat64{Float64: 12, Valid: true},
			ValueScore:     sql.NullFloat64{Float64: math.Inf(1), Valid: true},
			PricePerReview: sql.NullFloat64{Float64: 0, Valid: true},
		},
		{ProductName: "Unknown", Reviews: "none", CategoryURL: "c2"},
	}
	if err := w.WriteEnriched(products); err != nil {
		t.Fatalf("WriteEnriched: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(rows[0], EnrichedColumns) {
		t.Errorf("header: got %v", rows[0])
	}
	want1 := []string{"Free Sample", "0", "4", "12 reviews", "c1", "12", "inf", "0"}
	if !reflect.DeepEqual(rows[1], want1) {
		t.Errorf("row 1: got %v, want %v", rows[1], want1)
	}
	want2 := []string{"Unknown", "", "", "none", "c2", "", "", ""}
	if !reflect.DeepEqual(rows[2], want2) {
		t.Errorf("row 2: got %v, want %v", rows[2], want2)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   sql.NullFloat64
		want string
	}{
		{sql.NullFloat64{}, ""},
		{sql.NullFloat64{Float64: 1.5, Valid: true}, "1.5"},
		{sql.NullFloat64{Float64: math.Inf(-1), Valid: true}, "-inf"},
		{sql.NullFloat64{Float64: math.NaN(), Valid: true}, "nan"},
	}
	for _, tt := range tests {
		if got := formatNumber(tt.in); got != tt.want {
			t.Errorf("formatNumber(%+v) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestInsertBatchQuery(t *testing.T) {
	batch := []*models.RawProduct{
		{ProductName: "A", Price: "1", Rating: "2", Reviews: "3", CategoryURL: "c"},
		{ProductName: "B", Price: "x", Rating: "", Reviews: "", CategoryURL: "d"},
	}
	query, args := insertBatchQuery(batch)

	wantQuery := "INSERT INTO products (product_name, price, rating, reviews, category_url) VALUES ($1,$2,$3,$4,$5),($6,$7,$8,$9,$10)"
	if query != wantQuery {
		t.Errorf("query: got %q", query)
	}
	if len(args) != 10 || args[5] != "B" || args[6] != "x" {
		t.Errorf("args: got %v", args)
	}
}
