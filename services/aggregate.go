package services

import (
	"fmt"
	"math"
	"sort"

	"product-insights/models"
)

// Agg reduces the present values of a group to one number.
type Agg string

const (
	AggMean  Agg = "mean"
	AggSum   Agg = "sum"
	AggMin   Agg = "min"
	AggMax   Agg = "max"
	AggCount Agg = "count"
)

// FilterByPriceRange returns the products whose price lies in [min, max].
// Products with a missing price are excluded. The result is a new slice that
// shares the input's records; min > max yields an empty result.
func FilterByPriceRange(products []*models.Product, min, max float64) []*models.Product {
	result := make([]*models.Product, 0, len(products))
	if min > max {
		return result
	}
	for _, p := range products {
		if !p.Price.Valid {
			continue
		}
		if p.Price.Float64 >= min && p.Price.Float64 <= max {
			result = append(result, p)
		}
	}
	return result
}

// PriceBounds returns the smallest and largest present price.
// ok is false when no product has a price.
func PriceBounds(products []*models.Product) (min, max float64, ok bool) {
	for _, p := range products {
		if !p.Price.Valid {
			continue
		}
		v := p.Price.Float64
		if !ok {
			min, max, ok = v, v, true
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max, ok
}

// TopNBy returns up to n products with the largest value of field, largest
// first. Missing and NaN values are skipped; equal values keep input order.
func TopNBy(products []*models.Product, field models.Field, n int) ([]*models.Product, error) {
	if !field.Valid() {
		return nil, fmt.Errorf("insights: unknown field %q", field)
	}
	if n <= 0 {
		return []*models.Product{}, nil
	}

	ranked := make([]*models.Product, 0, len(products))
	for _, p := range products {
		v := p.Value(field)
		if v.Valid && !math.IsNaN(v.Float64) {
			ranked = append(ranked, p)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Value(field).Float64 > ranked[j].Value(field).Float64
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked, nil
}

// GroupAndAggregate groups products by key, reduces the present values of
// field with agg, and returns the groups sorted descending by the aggregate.
// Empty keys are not grouped. Groups whose aggregate is NaN sort last.
func GroupAndAggregate(products []*models.Product, key models.GroupKey, field models.Field, agg Agg) ([]models.GroupAggregate, error) {
	if !field.Valid() {
		return nil, fmt.Errorf("insights: unknown field %q", field)
	}

	type acc struct {
		sum, min, max float64
		count         int
	}
	groups := make(map[string]*acc)
	for _, p := range products {
		k := p.Key(key)
		if k == "" {
			continue
		}
		g, ok := groups[k]
		if !ok {
			g = &acc{min: math.Inf(1), max: math.Inf(-1)}
			groups[k] = g
		}
		v := p.Value(field)
		if !v.Valid || math.IsNaN(v.Float64) {
			continue
		}
		g.sum += v.Float64
		g.count++
		g.min = math.Min(g.min, v.Float64)
		g.max = math.Max(g.max, v.Float64)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]models.GroupAggregate, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		var v float64
		switch agg {
		case AggMean, "":
			v = math.NaN()
			if g.count > 0 {
				v = g.sum / float64(g.count)
			}
		case AggSum:
			v = g.sum
		case AggMin, AggMax:
			v = math.NaN()
			if g.count > 0 && agg == AggMin {
				v = g.min
			} else if g.count > 0 {
				v = g.max
			}
		case AggCount:
			v = float64(g.count)
		default:
			return nil, fmt.Errorf("insights: unknown aggregation %q", agg)
		}
		result = append(result, models.GroupAggregate{Key: k, Value: v, Count: g.count})
	}

	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i].Value, result[j].Value
		if math.IsNaN(b) {
			return !math.IsNaN(a)
		}
		return a > b
	})
	return result, nil
}

// PriceBox computes box-plot statistics over the present, finite prices.
// Quartiles use linear interpolation between closest ranks.
func PriceBox(products []*models.Product) models.BoxStats {
	values := finiteValues(products, models.FieldPrice)
	if len(values) == 0 {
		return models.BoxStats{}
	}
	sort.Float64s(values)
	return models.BoxStats{
		Count:  len(values),
		Min:    values[0],
		Q1:     quantile(values, 0.25),
		Median: quantile(values, 0.5),
		Q3:     quantile(values, 0.75),
		Max:    values[len(values)-1],
	}
}

// RatingVsPrice returns one point per product that has both a finite price
// and a finite rating.
func RatingVsPrice(products []*models.Product) []models.ScatterPoint {
	points := make([]models.ScatterPoint, 0, len(products))
	for _, p := range products {
		if !p.Price.Valid || !p.Rating.Valid || !isFinite(p.Price.Float64) || !isFinite(p.Rating.Float64) {
			continue
		}
		pt := models.ScatterPoint{
			ProductName: p.ProductName,
			Price:       p.Price.Float64,
			Rating:      p.Rating.Float64,
		}
		if p.ReviewCount.Valid && isFinite(p.ReviewCount.Float64) {
			pt.ReviewCount = p.ReviewCount.Float64
		}
		points = append(points, pt)
	}
	return points
}

// Histogram splits the present, finite values of field into bins equal-width
// buckets spanning [min, max]. A single distinct value yields one bin.
func Histogram(products []*models.Product, field models.Field, bins int) ([]models.HistogramBin, error) {
	if !field.Valid() {
		return nil, fmt.Errorf("insights: unknown field %q", field)
	}
	if bins <= 0 {
		return nil, fmt.Errorf("insights: bins must be positive, got %d", bins)
	}

	values := finiteValues(products, field)
	if len(values) == 0 {
		return []models.HistogramBin{}, nil
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		return []models.HistogramBin{{Lower: lo, Upper: hi, Count: len(values)}}, nil
	}

	result := make([]models.HistogramBin, bins)
	for i := range result {
		result[i].Lower = binEdge(lo, hi, i, bins)
		result[i].Upper = binEdge(lo, hi, i+1, bins)
	}
	result[0].Lower = lo
	result[bins-1].Upper = hi

	for _, v := range values {
		result[binIndex(v, lo, hi, bins)].Count++
	}
	return result, nil
}

// binEdge returns the i-th of bins+1 equally spaced edges over [lo, hi].
// The span hi-lo may overflow for extreme values; the edge never does.
func binEdge(lo, hi float64, i, bins int) float64 {
	t := float64(i) / float64(bins)
	if span := hi - lo; !math.IsInf(span, 0) {
		return lo + span*t
	}
	return lo*(1-t) + hi*t
}

// binIndex places v in [0, bins-1]; v == hi lands in the last bin.
func binIndex(v, lo, hi float64, bins int) int {
	var pos float64
	if span := hi - lo; !math.IsInf(span, 0) {
		pos = (v - lo) / (span / float64(bins))
	} else {
		pos = (v/2 - lo/2) / (hi/2 - lo/2) * float64(bins)
	}
	switch {
	case math.IsNaN(pos) || pos < 0:
		return 0
	case pos >= float64(bins):
		return bins - 1
	}
	return int(pos)
}

func finiteValues(products []*models.Product, field models.Field) []float64 {
	values := make([]float64, 0, len(products))
	for _, p := range products {
		v := p.Value(field)
		if v.Valid && isFinite(v.Float64) {
			values = append(values, v.Float64)
		}
	}
	return values
}

// quantile expects sorted input.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	frac := pos - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*frac
}
