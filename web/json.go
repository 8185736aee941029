package web

import (
	"database/sql"
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"product-insights/models"
)

// number encodes finite values as JSON numbers and non-finite ones as the
// strings "Infinity", "-Infinity" and "NaN".
type number float64

func (n number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	switch {
	case math.IsNaN(f):
		return []byte(`"NaN"`), nil
	case math.IsInf(f, 1):
		return []byte(`"Infinity"`), nil
	case math.IsInf(f, -1):
		return []byte(`"-Infinity"`), nil
	}
	return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
}

// nullable returns nil for a missing value so it encodes as null.
func nullable(v sql.NullFloat64) *number {
	if !v.Valid {
		return nil
	}
	n := number(v.Float64)
	return &n
}

type productJSON struct {
	ProductName    string  `json:"product_name"`
	CategoryURL    string  `json:"category_url"`
	Reviews        string  `json:"reviews"`
	Price          *number `json:"price"`
	Rating         *number `json:"rating"`
	ReviewCount    *number `json:"review_count"`
	ValueScore     *number `json:"value_score"`
	PricePerReview *number `json:"price_per_review"`
}

func newProductsJSON(products []*models.Product) []productJSON {
	out := make([]productJSON, 0, len(products))
	for _, p := range products {
		out = append(out, productJSON{
			ProductName:    p.ProductName,
			CategoryURL:    p.CategoryURL,
			Reviews:        p.Reviews,
			Price:          nullable(p.Price),
			Rating:         nullable(p.Rating),
			ReviewCount:    nullable(p.ReviewCount),
			ValueScore:     nullable(p.ValueScore),
			PricePerReview: nullable(p.PricePerReview),
		})
	}
	return out
}

type groupJSON struct {
	Key   string `json:"key"`
	Value number `json:"value"`
	Count int    `json:"count"`
}

type rangeJSON struct {
	Min number `json:"min"`
	Max number `json:"max"`
}

func newRangeJSON(r models.PriceRange) rangeJSON {
	return rangeJSON{Min: number(r.Min), Max: number(r.Max)}
}

type reportJSON struct {
	Bounds          rangeJSON             `json:"bounds"`
	Filter          rangeJSON             `json:"filter"`
	TotalRecords    int                   `json:"total_records"`
	FilteredRecords int                   `json:"filtered_records"`
	Filtered        []productJSON         `json:"filtered"`
	PriceBox        models.BoxStats       `json:"price_box"`
	RatingVsPrice   []models.ScatterPoint `json:"rating_vs_price"`
	TopReviewed     []productJSON         `json:"top_reviewed"`
	CategoryValue   []groupJSON           `json:"category_value"`
	ReviewHistogram []models.HistogramBin `json:"review_histogram"`
}

func newReportJSON(r *models.DashboardReport) reportJSON {
	out := reportJSON{
		Bounds:          newRangeJSON(r.Bounds),
		Filter:          newRangeJSON(r.Filter),
		TotalRecords:    r.TotalRecords,
		FilteredRecords: len(r.Filtered),
		PriceBox:        r.PriceBox,
		RatingVsPrice:   r.RatingVsPrice,
		Filtered:        newProductsJSON(r.Filtered),
		TopReviewed:     newProductsJSON(r.TopReviewed),
		CategoryValue:   make([]groupJSON, 0, len(r.CategoryValue)),
		ReviewHistogram: r.ReviewHistogram,
	}
	for _, g := range r.CategoryValue {
		out.CategoryValue = append(out.CategoryValue, groupJSON{Key: g.Key, Value: number(g.Value), Count: g.Count})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
