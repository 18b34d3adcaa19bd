package domain

import (
	"github.com/shopspring/decimal"
)

// RatingPlaces is the number of fractional digits kept for average ratings.
const RatingPlaces = 1

// Rating is a one-decimal score average. It stores as a SQL decimal and
// serializes as a fixed-point string ("4.5", "0.0").
type Rating struct {
	decimal.Decimal
}

// NewRating rounds d half away from zero to RatingPlaces digits.
func NewRating(d decimal.Decimal) Rating {
	return Rating{d.Round(RatingPlaces)}
}

// MeanRating returns the mean of count scores that add up to sum, rounded to
// RatingPlaces. A zero count yields exactly 0.0.
func MeanRating(sum, count int64) Rating {
	if count <= 0 {
		return Rating{decimal.Zero}
	}
	return Rating{decimal.NewFromInt(sum).DivRound(decimal.NewFromInt(count), RatingPlaces)}
}

// String returns the fixed one-digit representation.
func (r Rating) String() string { return r.StringFixed(RatingPlaces) }

// Float64 returns the rating as a float for metrics and span attributes.
func (r Rating) Float64() float64 {
	f, _ := r.Decimal.Float64()
	return f
}

// MarshalJSON encodes the rating as a quoted fixed-point string.
func (r Rating) MarshalJSON() ([]byte, error) {
	return []byte(`"` + r.String() + `"`), nil
}
