package models

// GroupAggregate is one row of a grouped aggregation.
type GroupAggregate struct {
	Key   string
	Value float64
	Count int
}

// BoxStats summarises a numeric distribution for a box plot.
type BoxStats struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// ScatterPoint is one product on the rating-vs-price chart.
type ScatterPoint struct {
	ProductName string  `json:"product_name"`
	Price       float64 `json:"price"`
	Rating      float64 `json:"rating"`
	// ReviewCount drives marker size; zero when missing.
	ReviewCount float64 `json:"review_count"`
}

// HistogramBin is a half-open [Lower, Upper) bucket; the last bin is closed.
type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// PriceRange is an inclusive price filter.
type PriceRange struct {
	Min float64
	Max float64
}

// DashboardReport holds the five dashboard sections for one price filter.
type DashboardReport struct {
	Bounds       PriceRange
	Filter       PriceRange
	TotalRecords int
	Filtered     []*Product

	PriceBox        BoxStats
	RatingVsPrice   []ScatterPoint
	TopReviewed     []*Product
	CategoryValue   []GroupAggregate
	ReviewHistogram []HistogramBin
}
