package services

import (
	"database/sql"
	"fmt"
	"math"
	"strings"

	"product-insights/models"
	"product-insights/utils"
)

type InsightService struct {
	logger *utils.Logger
	topN   int
	bins   int
}

func NewInsightService(logger *utils.Logger, topN, bins int) *InsightService {
	if topN <= 0 {
		topN = 10
	}
	if bins <= 0 {
		bins = 20
	}
	return &InsightService{logger: logger, topN: topN, bins: bins}
}

// Build assembles the dashboard for the price range [min, max]. The base set
// is read only; every section except the category chart uses the filtered view.
func (s *InsightService) Build(base []*models.Product, min, max float64) (*models.DashboardReport, error) {
	report := &models.DashboardReport{
		TotalRecords: len(base),
		Filter:       models.PriceRange{Min: min, Max: max},
	}
	if lo, hi, ok := PriceBounds(base); ok {
		report.Bounds = models.PriceRange{Min: lo, Max: hi}
	}

	filtered := FilterByPriceRange(base, min, max)
	report.Filtered = filtered
	s.logger.Debug("[insights] Price filter [%.2f, %.2f] kept %d of %d products",
		min, max, len(filtered), len(base))

	report.PriceBox = PriceBox(filtered)
	report.RatingVsPrice = RatingVsPrice(filtered)

	top, err := TopNBy(filtered, models.FieldReviewCount, s.topN)
	if err != nil {
		return nil, err
	}
	report.TopReviewed = top

	categories, err := GroupAndAggregate(base, models.GroupByCategory, models.FieldValueScore, AggMean)
	if err != nil {
		return nil, err
	}
	report.CategoryValue = categories

	hist, err := Histogram(filtered, models.FieldReviewCount, s.bins)
	if err != nil {
		return nil, err
	}
	report.ReviewHistogram = hist

	return report, nil
}

// BuildFullRange builds the report with the filter set to the overall price bounds.
func (s *InsightService) BuildFullRange(base []*models.Product) (*models.DashboardReport, error) {
	lo, hi, _ := PriceBounds(base)
	return s.Build(base, lo, hi)
}

func (s *InsightService) Print(r *models.DashboardReport) {
	sep := strings.Repeat("═", 64)
	thin := strings.Repeat("─", 64)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  📊 PRODUCT ANALYSIS DASHBOARD\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Filtered Dataset\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Price range  : $%.2f – $%.2f (available $%.2f – $%.2f)\n",
		r.Filter.Min, r.Filter.Max, r.Bounds.Min, r.Bounds.Max)
	fmt.Printf("  Products     : \033[1m%d\033[0m of %d\n", len(r.Filtered), r.TotalRecords)
	fmt.Println()
	printFilteredTable(r.Filtered)
	fmt.Println()

	fmt.Printf("\033[1;33m  1. Price Distribution\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if r.PriceBox.Count == 0 {
		fmt.Printf("  No price data available\n")
	} else {
		b := r.PriceBox
		fmt.Printf("  min $%.2f | Q1 $%.2f | median $%.2f | Q3 $%.2f | max $%.2f  (n=%d)\n",
			b.Min, b.Q1, b.Median, b.Q3, b.Max, b.Count)
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  2. Rating vs Price\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  %d products with both price and rating\n", len(r.RatingVsPrice))
	fmt.Println()

	fmt.Printf("\033[1;33m  3. Top Reviewed Products\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.TopReviewed) == 0 {
		fmt.Printf("  No reviewed products found\n")
	} else {
		for i, p := range r.TopReviewed {
			fmt.Printf("  \033[1m%2d.\033[0m %-38s %7.0f reviews  %s  %s\n",
				i+1, truncate(p.ProductName, 38), p.ReviewCount.Float64,
				formatNull(p.Price, "$%.2f"), formatNull(p.Rating, "%.1f ★"))
		}
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  4. Best Value Score per Category\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.CategoryValue) == 0 {
		fmt.Printf("  No category data\n")
	} else {
		for _, g := range r.CategoryValue {
			fmt.Printf("  %-44s %s\n", truncate(g.Key, 44), formatFloat(g.Value, "%.4f"))
		}
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  5. Review Count Distribution\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.ReviewHistogram) == 0 {
		fmt.Printf("  No review data\n")
	} else {
		peak := 0
		for _, b := range r.ReviewHistogram {
			if b.Count > peak {
				peak = b.Count
			}
		}
		for _, b := range r.ReviewHistogram {
			bar := strings.Repeat("█", scaleBar(b.Count, peak, 30))
			fmt.Printf("  %8.0f – %-8.0f %s (%d)\n", b.Lower, b.Upper, bar, b.Count)
		}
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func printFilteredTable(products []*models.Product) {
	if len(products) == 0 {
		fmt.Printf("  No products in range\n")
		return
	}
	fmt.Printf("  \033[1m%-30s %10s %6s %8s %12s %14s  %s\033[0m\n",
		"product_name", "price", "rating", "reviews", "value_score", "price/review", "category_url")
	for _, p := range products {
		fmt.Printf("  %-30s %10s %6s %8s %12s %14s  %s\n",
			truncate(p.ProductName, 30),
			formatNull(p.Price, "%.2f"),
			formatNull(p.Rating, "%.1f"),
			formatNull(p.ReviewCount, "%.0f"),
			formatNull(p.ValueScore, "%.4f"),
			formatNull(p.PricePerReview, "%.4f"),
			p.CategoryURL)
	}
}

func scaleBar(n, peak, width int) int {
	if peak <= 0 {
		return 0
	}
	return int(math.Round(float64(n) / float64(peak) * float64(width)))
}

func formatNull(v sql.NullFloat64, format string) string {
	if !v.Valid {
		return "n/a"
	}
	return formatFloat(v.Float64, format)
}

func formatFloat(f float64, format string) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	}
	return fmt.Sprintf(format, f)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
