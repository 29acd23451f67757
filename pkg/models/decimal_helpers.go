package models

import "github.com/shopspring/decimal"

// ToFloat64 safely converts decimal to float64
func ToFloat64(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// PercentChange returns (current - previous) / previous * 100.
// A zero previous value yields 0 rather than dividing by zero.
func PercentChange(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		return 0
	}
	return ToFloat64(current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)))
}
