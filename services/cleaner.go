package services

import (
	"database/sql"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"product-insights/models"
	"product-insights/utils"
)

// digitRunRegexp matches a maximal run of decimal digits in any script;
// only the first run is used.
var digitRunRegexp = regexp.MustCompile(`\p{Nd}+`)

// naMarkers are the text cells read as missing, as pandas read_csv does by default.
var naMarkers = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// Cleaner turns RawProducts into enriched Products.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Enrich coerces the numeric fields of every raw row and computes the derived
// columns. Rows are never dropped and the input slice is not modified.
func (c *Cleaner) Enrich(raw []*models.RawProduct) []*models.Product {
	result := make([]*models.Product, 0, len(raw))
	var badPrice, badRating, noReviews, nonFinite int

	for _, r := range raw {
		p := EnrichOne(r)

		if !p.Price.Valid {
			badPrice++
			c.logger.Debug("[cleaner] Unparseable price %q for %q", r.Price, r.ProductName)
		}
		if !p.Rating.Valid {
			badRating++
		}
		if !p.ReviewCount.Valid {
			noReviews++
		}
		if p.ValueScore.Valid && !isFinite(p.ValueScore.Float64) {
			nonFinite++
		}

		result = append(result, p)
	}

	c.logger.Info("[cleaner] Enriched %d products (missing price: %d, missing rating: %d, no review count: %d)",
		len(result), badPrice, badRating, noReviews)
	if nonFinite > 0 {
		c.logger.Warn("[cleaner] %d products have a non-finite value score (zero price)", nonFinite)
	}
	return result
}

// EnrichOne derives a Product from a single raw row. It depends on nothing but r.
func EnrichOne(r *models.RawProduct) *models.Product {
	price := CoerceNumeric(r.Price)
	rating := CoerceNumeric(r.Rating)
	reviewCount := ExtractReviewCount(r.Reviews)

	return &models.Product{
		ProductName:    CleanText(r.ProductName),
		CategoryURL:    CleanText(r.CategoryURL),
		Reviews:        r.Reviews,
		Price:          price,
		Rating:         rating,
		ReviewCount:    reviewCount,
		ValueScore:     ComputeValueScore(rating, price),
		PricePerReview: ComputePricePerReview(price, reviewCount),
	}
}

// CoerceNumeric parses a strict decimal number. Anything else, including the
// empty string and "NaN", is missing. Values beyond float64 range become ±Inf.
func CoerceNumeric(raw string) sql.NullFloat64 {
	s := strings.TrimSpace(raw)
	if s == "" || strings.ContainsAny(s, "_xXpP") {
		return sql.NullFloat64{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return sql.NullFloat64{}
	}
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// CleanText returns raw unchanged, or "" when raw is a missing-value marker
// such as "NA", "N/A" or "null".
func CleanText(raw string) string {
	if _, ok := naMarkers[raw]; ok {
		return ""
	}
	return raw
}

// ExtractReviewCount returns the first run of digits in raw.
//
//	"1,234 sold" → 1
//	"sold: 987"  → 987
//	"no data"    → missing
//	"٣ reviews"  → 3
func ExtractReviewCount(raw string) sql.NullFloat64 {
	match := digitRunRegexp.FindString(raw)
	if match == "" {
		return sql.NullFloat64{}
	}
	v, err := strconv.ParseFloat(asciiDigits(match), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// asciiDigits rewrites a run of Nd digits as '0'-'9'.
func asciiDigits(run string) string {
	var b strings.Builder
	b.Grow(len(run))
	for _, r := range run {
		b.WriteByte(byte('0' + digitValue(r)))
	}
	return b.String()
}

// digitValue returns the decimal value of an Nd rune. Every Nd range starts
// at a zero digit and runs in blocks of ten.
func digitValue(r rune) int {
	if r >= '0' && r <= '9' {
		return int(r - '0')
	}
	for _, rg := range unicode.Nd.R16 {
		if lo, hi := rune(rg.Lo), rune(rg.Hi); r >= lo && r <= hi {
			return int((r - lo) / rune(rg.Stride) % 10)
		}
	}
	for _, rg := range unicode.Nd.R32 {
		if lo, hi := rune(rg.Lo), rune(rg.Hi); r >= lo && r <= hi {
			return int((r - lo) / rune(rg.Stride) % 10)
		}
	}
	return 0
}

// ComputeValueScore returns rating / price. A zero price gives a non-finite
// result that is kept Valid so callers can see it.
func ComputeValueScore(rating, price sql.NullFloat64) sql.NullFloat64 {
	if !rating.Valid || !price.Valid {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: rating.Float64 / price.Float64, Valid: true}
}

// ComputePricePerReview returns price / (reviewCount + 1).
func ComputePricePerReview(price, reviewCount sql.NullFloat64) sql.NullFloat64 {
	if !price.Valid || !reviewCount.Valid {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: price.Float64 / (reviewCount.Float64 + 1), Valid: true}
}

func isFinite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}
