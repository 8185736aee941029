package services

import (
	"bytes"
	"database/sql"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"product-insights/models"
	"product-insights/storage"
	"product-insights/utils"
)

func newTestLogger() *utils.Logger {
	var buf bytes.Buffer
	return utils.NewLoggerTo(&buf, &buf, utils.LevelDebug)
}

func num(v float64) sql.NullFloat64 { return sql.NullFloat64{Float64: v, Valid: true} }

var missing = sql.NullFloat64{}

func TestCoerceNumeric(t *testing.T) {
	tests := []struct {
		raw  string
		want sql.NullFloat64
	}{
		{"19.99", num(19.99)},
		{"  7 ", num(7)},
		{"-3.5", num(-3.5)},
		{"1e3", num(1000)},
		{"0", num(0)},
		{"", missing},
		{"abc", missing},
		{"US$12.00", missing},
		{"1,299", missing},
		{"NaN", missing},
		{"0x1p3", missing},
		{"1_000", missing},
		{"1e400", num(math.Inf(1))},
		{"-1e400", num(math.Inf(-1))},
		{"1e-400", num(0)},
	}

	for _, tt := range tests {
		got := CoerceNumeric(tt.raw)
		if got != tt.want {
			t.Errorf("CoerceNumeric(%q) = %+v; want %+v", tt.raw, got, tt.want)
		}
	}
}

func TestExtractReviewCount(t *testing.T) {
	tests := []struct {
		raw  string
		want sql.NullFloat64
	}{
		{"1,234 sold", num(1)},
		{"sold: 987", num(987)},
		{"no data", missing},
		{"", missing},
		{"123 reviews", num(123)},
		{"(45) 67", num(45)},
		{"0 reviews", num(0)},
		{"007", num(7)},
		{"٣ reviews, 50 sold", num(3)},
		{"１２ reviews", num(12)},
		{"sold ४२", num(42)},
		{"1٣ mixed", num(13)},
		{"\U0001D7D7\U0001D7D8 bold", num(90)},
		{strings.Repeat("9", 400), num(math.Inf(1))},
	}

	for _, tt := range tests {
		got := ExtractReviewCount(tt.raw)
		if got != tt.want {
			t.Errorf("ExtractReviewCount(%q) = %+v; want %+v", tt.raw, got, tt.want)
		}
	}
}

func TestComputeValueScore(t *testing.T) {
	if got := ComputeValueScore(num(4), num(2)); got != num(2) {
		t.Errorf("4/2: got %+v", got)
	}
	if got := ComputeValueScore(missing, num(2)); got.Valid {
		t.Errorf("missing rating should propagate, got %+v", got)
	}
	if got := ComputeValueScore(num(4), missing); got.Valid {
		t.Errorf("missing price should propagate, got %+v", got)
	}

	got := ComputeValueScore(num(4), num(0))
	if !got.Valid || !math.IsInf(got.Float64, 1) {
		t.Errorf("zero price must give a present +Inf, got %+v", got)
	}
	got = ComputeValueScore(num(0), num(0))
	if !got.Valid || !math.IsNaN(got.Float64) {
		t.Errorf("0/0 must give a present NaN, got %+v", got)
	}
}

func TestComputePricePerReview(t *testing.T) {
	if got := ComputePricePerReview(num(10), missing); got.Valid {
		t.Errorf("missing review count should propagate, got %+v", got)
	}
	if got := ComputePricePerReview(missing, num(3)); got.Valid {
		t.Errorf("missing price should propagate, got %+v", got)
	}
	if got := ComputePricePerReview(num(10), num(0)); got != num(10) {
		t.Errorf("10/(0+1): got %+v, want 10", got)
	}
	if got := ComputePricePerReview(num(10), num(4)); got != num(2) {
		t.Errorf("10/(4+1): got %+v, want 2", got)
	}
}

func sampleRaw() []*models.RawProduct {
	return []*models.RawProduct{
		{ProductName: "Drone", Price: "100", Rating: "4.5", Reviews: "99 reviews", CategoryURL: "drones"},
		{ProductName: "Cable", Price: "abc", Rating: "4", Reviews: "1,234 sold", CategoryURL: "cables"},
		{ProductName: "Gift", Price: "0", Rating: "5", Reviews: "no data", CategoryURL: "promo"},
		{ProductName: "Lamp", Price: "20", Rating: "", Reviews: "", CategoryURL: ""},
	}
}

func TestCleanerEnrichKeepsEveryRecord(t *testing.T) {
	c := NewCleaner(newTestLogger())
	raw := sampleRaw()
	products := c.Enrich(raw)

	if len(products) != len(raw) {
		t.Fatalf("expected %d products, got %d", len(raw), len(products))
	}

	drone := products[0]
	if drone.Price != num(100) || drone.Rating != num(4.5) || drone.ReviewCount != num(99) {
		t.Errorf("drone fields: %+v", drone)
	}
	if drone.ValueScore != num(0.045) {
		t.Errorf("drone value score: got %+v", drone.ValueScore)
	}
	if drone.PricePerReview != num(1) {
		t.Errorf("drone price per review: got %+v", drone.PricePerReview)
	}

	cable := products[1]
	if cable.Price.Valid || cable.ValueScore.Valid || cable.PricePerReview.Valid {
		t.Errorf("cable: malformed price should degrade to missing: %+v", cable)
	}
	if cable.ReviewCount != num(1) {
		t.Errorf("cable review count: got %+v, want 1", cable.ReviewCount)
	}

	gift := products[2]
	if !gift.ValueScore.Valid || !math.IsInf(gift.ValueScore.Float64, 1) {
		t.Errorf("gift value score should be +Inf, got %+v", gift.ValueScore)
	}
	if gift.PricePerReview.Valid {
		t.Errorf("gift has no review count, price per review should be missing")
	}

	if raw[1].Price != "abc" {
		t.Error("Enrich must not modify its input")
	}
}

func TestEnrichIsIdempotentThroughExport(t *testing.T) {
	c := NewCleaner(newTestLogger())
	first := c.Enrich(sampleRaw())

	path := filepath.Join(t.TempDir(), "enriched.csv")
	w, err := storage.NewCSVWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteEnriched(first); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	defer os.Remove(path)

	reloaded, err := storage.NewCSVReader(',').ReadFile(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	second := c.Enrich(reloaded)

	if len(second) != len(first) {
		t.Fatalf("reloaded %d products, want %d", len(second), len(first))
	}
	for i := range first {
		a, b := first[i], second[i]
		for _, f := range []models.Field{models.FieldPrice, models.FieldRating, models.FieldReviewCount, models.FieldValueScore, models.FieldPricePerReview} {
			if !sameNull(a.Value(f), b.Value(f)) {
				t.Errorf("product %d field %s: first %+v, second %+v", i, f, a.Value(f), b.Value(f))
			}
		}
	}
}

func sameNull(a, b sql.NullFloat64) bool {
	if a.Valid != b.Valid {
		return false
	}
	if math.IsNaN(a.Float64) && math.IsNaN(b.Float64) {
		return true
	}
	return a.Float64 == b.Float64
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		raw, want string
	}{
		{"https://example.com/c-1.html", "https://example.com/c-1.html"},
		{"NA", ""},
		{"N/A", ""},
		{"null", ""},
		{"NULL", ""},
		{"None", ""},
		{"nan", ""},
		{"<NA>", ""},
		{" NA ", " NA "},
		{"Not available", "Not available"},
	}

	for _, tt := range tests {
		if got := CleanText(tt.raw); got != tt.want {
			t.Errorf("CleanText(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestEnrichDropsMissingCategoryMarkers(t *testing.T) {
	products := NewCleaner(newTestLogger()).Enrich([]*models.RawProduct{
		{ProductName: "A", Price: "10", Rating: "5", Reviews: "1", CategoryURL: "NA"},
		{ProductName: "B", Price: "10", Rating: "4", Reviews: "1", CategoryURL: "null"},
		{ProductName: "C", Price: "10", Rating: "3", Reviews: "1", CategoryURL: "tools"},
	})

	groups, err := GroupAndAggregate(products, models.GroupByCategory, models.FieldRating, AggMean)
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 1 || groups[0].Key != "tools" {
		t.Errorf("missing-marker categories should not form groups, got %+v", groups)
	}
}
