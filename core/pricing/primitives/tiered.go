// Package primitives - Centralized discount math
// Resolvers declare intent, not do math.
// All price arithmetic flows through these primitives.
package primitives

import (
	"github.com/shopspring/decimal"

	"wholesale-pricing/core/types"
)

var hundred = decimal.NewFromInt(100)

// PercentOff returns price - price*percent/100
func PercentOff(price, percent decimal.Decimal) decimal.Decimal {
	if percent.LessThanOrEqual(decimal.Zero) {
		return price
	}
	return price.Sub(price.Mul(percent).Div(hundred))
}

// ApplyTierRule applies a quantity discount on top of an already resolved
// price. The boolean reports whether the rule fired.
func ApplyTierRule(price decimal.Decimal, rule *types.TierRule, quantity int) (decimal.Decimal, bool) {
	if !rule.AppliesTo(quantity) {
		return price, false
	}
	return PercentOff(price, rule.DiscountPercent), true
}

// ClampNonNegative floors a price at zero
func ClampNonNegative(price decimal.Decimal) decimal.Decimal {
	if price.IsNegative() {
		return decimal.Zero
	}
	return price
}

// ClampPercent limits a percentage to [0, 100]
func ClampPercent(percent decimal.Decimal) decimal.Decimal {
	if percent.IsNegative() {
		return decimal.Zero
	}
	if percent.GreaterThan(hundred) {
		return hundred
	}
	return percent
}
