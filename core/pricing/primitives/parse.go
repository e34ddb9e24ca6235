package primitives

import (
	"strings"

	"github.com/shopspring/decimal"

	"wholesale-pricing/internal/errors"
)

// ParsePositivePrice parses a stored override leniently.
// Blank, non-numeric and non-positive values report false.
func ParsePositivePrice(raw string) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}

// ParsePrice parses a caller supplied base price strictly
func ParsePrice(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, errors.Wrap(errors.TypeInput, "price is not numeric", err).WithContext("value", raw)
	}
	if d.IsNegative() {
		return decimal.Zero, errors.Inputf("price must not be negative: %s", raw)
	}
	return d, nil
}

// ParsePercent parses a discount percentage and clamps it to [0, 100].
// Unparseable values read as zero.
func ParsePercent(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return ClampPercent(d)
}
