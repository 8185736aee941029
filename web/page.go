package web

import (
	"database/sql"
	"embed"
	"fmt"
	"html/template"
	"io"
	"math"

	"product-insights/models"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	chartWidth  = 640.0
	chartHeight = 320.0
	chartPad    = 36.0
)

type pageRenderer struct {
	tmpl *template.Template
}

func newPageRenderer() (*pageRenderer, error) {
	tmpl, err := template.New("dashboard.html").Funcs(template.FuncMap{
		"num":  formatNum,
		"cell": formatCell,
	}).ParseFS(templateFS, "templates/dashboard.html")
	if err != nil {
		return nil, err
	}
	return &pageRenderer{tmpl: tmpl}, nil
}

func (p *pageRenderer) render(w io.Writer, r *models.DashboardReport, section string) error {
	return p.tmpl.Execute(w, newPageView(r, section))
}

type pageView struct {
	Report  *models.DashboardReport
	Section string
	Show    map[string]bool

	Width, Height float64
	Box           boxView
	Points        []pointView
	Categories    []barView
	Histogram     []barView
}

type boxView struct {
	Present bool
	MinX    float64
	Q1X     float64
	MedX    float64
	Q3X     float64
	MaxX    float64
	BoxW    float64
}

type pointView struct {
	X, Y, R float64
	Label   string
}

type barView struct {
	Label   string
	Value   string
	Count   int
	Percent float64
}

func newPageView(r *models.DashboardReport, section string) pageView {
	v := pageView{
		Report:  r,
		Section: section,
		Show:    make(map[string]bool, len(Sections)),
		Width:   chartWidth,
		Height:  chartHeight,
	}
	for _, s := range Sections {
		v.Show[s] = section == "" || section == s
	}

	if b := r.PriceBox; b.Count > 0 {
		x := linearScale(b.Min, b.Max, chartPad, chartWidth-chartPad)
		v.Box = boxView{Present: true, MinX: x(b.Min), Q1X: x(b.Q1), MedX: x(b.Median), Q3X: x(b.Q3), MaxX: x(b.Max)}
		v.Box.BoxW = v.Box.Q3X - v.Box.Q1X
	}

	v.Points = scatterView(r.RatingVsPrice)
	v.Categories = categoryBars(r.CategoryValue)
	v.Histogram = histogramBars(r.ReviewHistogram)
	return v
}

func scatterView(points []models.ScatterPoint) []pointView {
	if len(points) == 0 {
		return nil
	}
	minP, maxP := points[0].Price, points[0].Price
	maxR, maxC := 0.0, 0.0
	for _, pt := range points {
		minP = math.Min(minP, pt.Price)
		maxP = math.Max(maxP, pt.Price)
		maxR = math.Max(maxR, pt.Rating)
		maxC = math.Max(maxC, pt.ReviewCount)
	}
	if maxR == 0 {
		maxR = 5
	}

	x := linearScale(minP, maxP, chartPad, chartWidth-chartPad)
	y := linearScale(0, maxR, chartHeight-chartPad, chartPad)

	out := make([]pointView, 0, len(points))
	for _, pt := range points {
		radius := 3.0
		if maxC > 0 {
			radius += 12 * math.Sqrt(pt.ReviewCount/maxC)
		}
		out = append(out, pointView{
			X:     x(pt.Price),
			Y:     y(pt.Rating),
			R:     radius,
			Label: fmt.Sprintf("%s: $%.2f, %.1f★, %.0f reviews", pt.ProductName, pt.Price, pt.Rating, pt.ReviewCount),
		})
	}
	return out
}

func categoryBars(groups []models.GroupAggregate) []barView {
	peak := 0.0
	for _, g := range groups {
		if !math.IsInf(g.Value, 0) && !math.IsNaN(g.Value) {
			peak = math.Max(peak, math.Abs(g.Value))
		}
	}

	out := make([]barView, 0, len(groups))
	for _, g := range groups {
		bar := barView{Label: g.Key, Value: formatNum(g.Value), Count: g.Count}
		switch {
		case math.IsInf(g.Value, 1):
			bar.Percent = 100
		case math.IsNaN(g.Value) || math.IsInf(g.Value, -1) || peak == 0:
			bar.Percent = 0
		default:
			bar.Percent = math.Abs(g.Value) / peak * 100
		}
		out = append(out, bar)
	}
	return out
}

func histogramBars(bins []models.HistogramBin) []barView {
	peak := 0
	for _, b := range bins {
		if b.Count > peak {
			peak = b.Count
		}
	}
	out := make([]barView, 0, len(bins))
	for _, b := range bins {
		bar := barView{
			Label: fmt.Sprintf("%.0f–%.0f", b.Lower, b.Upper),
			Value: fmt.Sprintf("%d", b.Count),
			Count: b.Count,
		}
		if peak > 0 {
			bar.Percent = float64(b.Count) / float64(peak) * 100
		}
		out = append(out, bar)
	}
	return out
}

// linearScale maps [d0, d1] onto [r0, r1]; a degenerate domain maps to the midpoint.
func linearScale(d0, d1, r0, r1 float64) func(float64) float64 {
	if d1 == d0 {
		mid := (r0 + r1) / 2
		return func(float64) float64 { return mid }
	}
	return func(v float64) float64 {
		return r0 + (v-d0)/(d1-d0)*(r1-r0)
	}
}

func formatNum(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	}
	return fmt.Sprintf("%.4g", f)
}

// formatCell renders a table cell; missing values are blank.
func formatCell(v sql.NullFloat64) string {
	if !v.Valid {
		return ""
	}
	return formatNum(v.Float64)
}
