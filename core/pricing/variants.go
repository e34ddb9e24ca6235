package pricing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"wholesale-pricing/core/types"
)

// PriceRange is the aggregate of independently resolved variant prices
type PriceRange struct {
	SKU      string                `json:"sku"`
	Tier     string                `json:"tier"`
	Min      decimal.Decimal       `json:"min"`
	Max      decimal.Decimal       `json:"max"`
	Variants []types.PricingResult `json:"variants"`
}

// IsSingle reports whether every variant resolved to the same price
func (p PriceRange) IsSingle() bool {
	return p.Min.Equal(p.Max)
}

// VariantView returns a variant as priced: linked to its parent, carrying
// the parent's quantity rule when the parent defines one, and wholesale-only
// when the parent is.
func VariantView(parent, variant types.Product) types.Product {
	v := variant
	if v.ParentSKU == "" {
		v.ParentSKU = parent.SKU
	}
	if parent.TierRule.Active() {
		v.TierRule = parent.TierRule
	}
	v.WholesaleOnly = v.WholesaleOnly || parent.WholesaleOnly
	v.Variants = nil
	return v
}

// ResolveVariants resolves every variant of a product on its own base price.
// A simple product yields a single-entry range.
func (r *Resolver) ResolveVariants(ctx context.Context, product types.Product, tier *types.Tier, quantity int) (PriceRange, error) {
	req := types.PricingRequest{Tier: tier, Quantity: quantity}
	out := PriceRange{SKU: product.SKU, Tier: req.TierKey()}

	variants := product.Variants
	if len(variants) == 0 {
		variants = []types.Product{product}
	}

	for i, variant := range variants {
		if product.IsVariable() {
			variant = VariantView(product, variant)
		}
		req.Product = variant

		res, err := r.Resolve(ctx, req)
		if err != nil {
			return PriceRange{}, fmt.Errorf("variant %s: %w", variant.SKU, err)
		}
		out.Variants = append(out.Variants, res)

		if i == 0 || res.UnitPrice.LessThan(out.Min) {
			out.Min = res.UnitPrice
		}
		if i == 0 || res.UnitPrice.GreaterThan(out.Max) {
			out.Max = res.UnitPrice
		}
	}
	return out, nil
}

// RangeKey is the cache key for a product's price range. It mixes in the
// tier key and the tier discount so a reconfigured tier never reads a stale
// range.
func RangeKey(sku string, tier *types.Tier) string {
	req := types.PricingRequest{Tier: tier}
	key := sku + "|" + req.TierKey()
	if tier != nil {
		key += "|" + tier.DiscountPercent.String()
	}
	return key
}
