// Package types - Wholesale pricing types
package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TierID identifies a wholesale customer tier
type TierID string

const (
	TierBronze TierID = "bronze"
	TierSilver TierID = "silver"
	TierGold   TierID = "gold"
)

// RetailKey is the tier key used for customers without a tier
const RetailKey = "retail"

// KnownTiers returns the fixed tier enumeration in ascending order
func KnownTiers() []TierID {
	return []TierID{TierBronze, TierSilver, TierGold}
}

// IsKnown reports whether the id is one of the fixed tiers
func (t TierID) IsKnown() bool {
	switch t {
	case TierBronze, TierSilver, TierGold:
		return true
	}
	return false
}

// String returns the string representation
func (t TierID) String() string {
	return string(t)
}

// ParseTierID accepts "gold", "Gold" and the platform role form "wh_gold".
// Empty and "retail" parse to the empty id.
func ParseTierID(s string) (TierID, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "wh_")
	if s == "" || s == RetailKey {
		return "", true
	}
	id := TierID(s)
	return id, id.IsKnown()
}

// Tier is a configured wholesale customer class
type Tier struct {
	// ID is the tier identifier
	ID TierID `json:"id"`

	// Label is the display name
	Label string `json:"label,omitempty"`

	// DiscountPercent is the tier-wide discount (0-100)
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// TierTable maps tier ids to their configuration
type TierTable map[TierID]Tier

// Lookup returns the tier for an id, or nil for retail and unknown ids
func (t TierTable) Lookup(id TierID) *Tier {
	if id == "" {
		return nil
	}
	tier, ok := t[id]
	if !ok {
		return nil
	}
	return &tier
}

// TierRule is a per-product quantity discount
type TierRule struct {
	// MinQuantity is the quantity threshold (inclusive)
	MinQuantity int `json:"min_quantity"`

	// DiscountPercent is applied on top of the resolved price
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// Active reports whether the rule can ever apply
func (r *TierRule) Active() bool {
	return r != nil && r.MinQuantity > 0 && r.DiscountPercent.GreaterThan(decimal.Zero)
}

// AppliesTo reports whether the rule applies at the given quantity
func (r *TierRule) AppliesTo(quantity int) bool {
	return r.Active() && quantity >= r.MinQuantity
}

// Product is a catalog entry as seen by the pricing core
type Product struct {
	// SKU identifies the product or variant
	SKU string `json:"sku"`

	// ParentSKU is set on variants
	ParentSKU string `json:"parent_sku,omitempty"`

	// Name is the display name
	Name string `json:"name,omitempty"`

	// BasePrice is the retail price
	BasePrice decimal.Decimal `json:"base_price"`

	// FixedPrices holds raw per-tier overrides. Values are kept as stored so
	// that blank or stray entries degrade to "not set".
	FixedPrices map[TierID]string `json:"fixed_prices,omitempty"`

	// FixedPricesLoaded is set by catalogs that load every stored tier price
	// with the product; the resolver then skips its fixed-price source
	FixedPricesLoaded bool `json:"-"`

	// TierRule is the optional quantity discount
	TierRule *TierRule `json:"tier_rule,omitempty"`

	// WholesaleOnly hides the product from retail customers
	WholesaleOnly bool `json:"wholesale_only,omitempty"`

	// Variants are the purchasable variations of a variable product
	Variants []Product `json:"variants,omitempty"`
}

// IsVariable reports whether the product has variants
func (p *Product) IsVariable() bool {
	return len(p.Variants) > 0
}

// Customer is the shopper a price is computed for
type Customer struct {
	ID            string `json:"id,omitempty"`
	Tier          TierID `json:"tier,omitempty"`
	Authenticated bool   `json:"authenticated"`
}

// IsWholesale reports whether the customer holds a known tier
func (c Customer) IsWholesale() bool {
	return c.Tier.IsKnown()
}

// Basis records which rule determined a price
type Basis string

const (
	BasisRetail          Basis = "RETAIL"
	BasisFixedTier       Basis = "FIXED_TIER"
	BasisPercentDiscount Basis = "PERCENT_DISCOUNT"
)

// PricingRequest is the unit of work for the resolver
type PricingRequest struct {
	// Product supplies the base price, overrides and tier rule
	Product Product

	// Tier is nil for retail customers
	Tier *Tier

	// Quantity defaults to 1
	Quantity int
}

// TierKey returns the tier component callers mix into price cache keys
func (r PricingRequest) TierKey() string {
	if r.Tier == nil || r.Tier.ID == "" {
		return RetailKey
	}
	return string(r.Tier.ID)
}

// EffectiveQuantity returns the quantity, treating anything below 1 as 1
func (r PricingRequest) EffectiveQuantity() int {
	if r.Quantity < 1 {
		return 1
	}
	return r.Quantity
}

// PricingResult is the resolved unit price
type PricingResult struct {
	// SKU is the resolved product
	SKU string `json:"sku,omitempty"`

	// UnitPrice is never negative
	UnitPrice decimal.Decimal `json:"unit_price"`

	// Basis is the rule that determined the price
	Basis Basis `json:"basis"`

	// TierDiscountApplied reports a quantity discount
	TierDiscountApplied bool `json:"tier_discount_applied"`

	// Tier is the tier the price was resolved for
	Tier TierID `json:"tier,omitempty"`
}
