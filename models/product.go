package models

import "database/sql"

// RawProduct holds one row of the input table exactly as it was read.
// Numeric-looking fields stay as text until the cleaner coerces them.
type RawProduct struct {
	ProductName string
	Price       string
	Rating      string
	Reviews     string
	CategoryURL string
}

// Product is the enriched record consumed by the report builders.
// A field with Valid == false is missing; that is distinct from zero.
type Product struct {
	ProductName string
	CategoryURL string
	Reviews     string

	Price       sql.NullFloat64
	Rating      sql.NullFloat64
	ReviewCount sql.NullFloat64

	// ValueScore may hold ±Inf or NaN when Price is zero.
	ValueScore     sql.NullFloat64
	PricePerReview sql.NullFloat64
}

// Field names a numeric column of Product for ranking and grouping.
type Field string

const (
	FieldPrice          Field = "price"
	FieldRating         Field = "rating"
	FieldReviewCount    Field = "review_count"
	FieldValueScore     Field = "value_score"
	FieldPricePerReview Field = "price_per_review"
)

// Value returns the product's value for f. Unknown fields are missing.
func (p *Product) Value(f Field) sql.NullFloat64 {
	switch f {
	case FieldPrice:
		return p.Price
	case FieldRating:
		return p.Rating
	case FieldReviewCount:
		return p.ReviewCount
	case FieldValueScore:
		return p.ValueScore
	case FieldPricePerReview:
		return p.PricePerReview
	}
	return sql.NullFloat64{}
}

// Valid reports whether f names a known numeric column.
func (f Field) Valid() bool {
	switch f {
	case FieldPrice, FieldRating, FieldReviewCount, FieldValueScore, FieldPricePerReview:
		return true
	}
	return false
}

// GroupKey names a text column usable for grouping.
type GroupKey string

const (
	GroupByCategory    GroupKey = "category_url"
	GroupByProductName GroupKey = "product_name"
)

// Key returns the product's grouping value for k.
func (p *Product) Key(k GroupKey) string {
	if k == GroupByProductName {
		return p.ProductName
	}
	return p.CategoryURL
}
