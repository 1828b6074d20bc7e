// Package pricing computes effective product prices after percentage
// discounts and renders amounts for display.
package pricing

import "github.com/shopspring/decimal"

// MaxDiscount is the largest discount percentage a product may carry.
const MaxDiscount = 100

var hundred = decimal.NewFromInt(100)

// EffectivePrice returns price reduced by discount percent. A non-positive
// discount leaves the price untouched; discounts above MaxDiscount are
// clamped so the result is never negative. No rounding is applied.
func EffectivePrice(price decimal.Decimal, discount int) decimal.Decimal {
	if discount <= 0 {
		return price
	}
	if discount > MaxDiscount {
		discount = MaxDiscount
	}
	off := price.Mul(decimal.NewFromInt(int64(discount))).Div(hundred)
	return price.Sub(off)
}

// Savings returns the amount taken off price by discount.
func Savings(price decimal.Decimal, discount int) decimal.Decimal {
	return price.Sub(EffectivePrice(price, discount))
}

// LineTotal returns the effective price multiplied by quantity.
func LineTotal(price decimal.Decimal, discount, quantity int) decimal.Decimal {
	return EffectivePrice(price, discount).Mul(decimal.NewFromInt(int64(quantity)))
}
