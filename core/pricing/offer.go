package pricing

import (
	"context"

	"github.com/shopspring/decimal"

	"wholesale-pricing/core/types"
)

// QuantityOffer describes the quantity discount shown on a product page
type QuantityOffer struct {
	MinQuantity     int             `json:"min_quantity"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	RegularPrice    decimal.Decimal `json:"regular_price"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
}

// Offer returns the quantity offer for a wholesale customer, or nil when the
// customer is retail or the product has no active rule.
func (r *Resolver) Offer(ctx context.Context, product types.Product, tier *types.Tier) (*QuantityOffer, error) {
	if tier == nil || !product.TierRule.Active() {
		return nil, nil
	}

	rule := product.TierRule
	regular := product
	regular.TierRule = nil
	below, err := r.Resolve(ctx, types.PricingRequest{Product: regular, Tier: tier, Quantity: rule.MinQuantity})
	if err != nil {
		return nil, err
	}
	at, err := r.Resolve(ctx, types.PricingRequest{Product: product, Tier: tier, Quantity: rule.MinQuantity})
	if err != nil {
		return nil, err
	}

	return &QuantityOffer{
		MinQuantity:     rule.MinQuantity,
		DiscountPercent: rule.DiscountPercent,
		RegularPrice:    below.UnitPrice,
		UnitPrice:       at.UnitPrice,
	}, nil
}
