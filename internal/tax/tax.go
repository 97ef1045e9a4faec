// Package tax computes IVA amounts. Everything here is pure.
package tax

import "github.com/shopspring/decimal"

const (
	// RateItems applies to the five-item calculation.
	RateItems = 21.0
	// RateProduct applies to catalog product lookups.
	RateProduct = 15.0
)

var hundred = decimal.NewFromInt(100)

// Result is the IVA amount and the tax-inclusive total, both rounded to cents.
type Result struct {
	Amount float64
	Total  float64
}

// ComputeTax returns round2(basis*rate/100) and round2(basis+amount).
// basis must be non-negative; callers validate it.
func ComputeTax(basis, rate float64) Result {
	b := decimal.NewFromFloat(basis)
	amount := b.Mul(decimal.NewFromFloat(rate)).Div(hundred).Round(2)
	total := b.Add(amount).Round(2)
	return Result{
		Amount: amount.InexactFloat64(),
		Total:  total.InexactFloat64(),
	}
}

// Sum adds prices in decimal so that 0.1+0.2 stays 0.3.
func Sum(prices ...float64) float64 {
	total := decimal.Zero
	for _, p := range prices {
		total = total.Add(decimal.NewFromFloat(p))
	}
	return total.InexactFloat64()
}

// Round2 rounds v to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
