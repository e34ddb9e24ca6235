// Package catalog - Catalog validation
// Rejects products the resolver would treat as a caller contract violation.
package catalog

import (
	stderrors "errors"
	"fmt"

	"github.com/shopspring/decimal"

	"wholesale-pricing/core/types"
)

// ValidationRule is a product validation rule
type ValidationRule func(*types.Product) error

// DefaultValidationRules returns the standard validation rules
func DefaultValidationRules() []ValidationRule {
	return []ValidationRule{
		validateSKU,
		validateBasePrice,
		validateTierRule,
		validateFixedPriceTiers,
		validateVariants,
	}
}

// Validate checks a product against validation rules
func Validate(p *types.Product, rules []ValidationRule) []error {
	var errs []error
	for _, rule := range rules {
		if err := rule(p); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.SKU, err))
		}
	}
	return errs
}

func validateSKU(p *types.Product) error {
	if p.SKU == "" {
		return fmt.Errorf("sku is required")
	}
	return nil
}

func validateBasePrice(p *types.Product) error {
	if p.BasePrice.IsNegative() {
		return fmt.Errorf("base price %s is negative", p.BasePrice)
	}
	return nil
}

func validateTierRule(p *types.Product) error {
	if p.TierRule == nil {
		return nil
	}
	if p.TierRule.MinQuantity < 0 {
		return fmt.Errorf("tier rule min quantity %d is negative", p.TierRule.MinQuantity)
	}
	d := p.TierRule.DiscountPercent
	if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("tier rule discount %s is outside 0-100", d)
	}
	return nil
}

// Stray values are allowed; unknown tiers are not.
func validateFixedPriceTiers(p *types.Product) error {
	for id := range p.FixedPrices {
		if !id.IsKnown() {
			return fmt.Errorf("fixed price for unknown tier %q", id)
		}
	}
	return nil
}

func validateVariants(p *types.Product) error {
	seen := make(map[string]bool, len(p.Variants))
	for i := range p.Variants {
		v := &p.Variants[i]
		if v.IsVariable() {
			return fmt.Errorf("variant %s has its own variants", v.SKU)
		}
		if v.ParentSKU != "" && v.ParentSKU != p.SKU {
			return fmt.Errorf("variant %s belongs to %s", v.SKU, v.ParentSKU)
		}
		if seen[v.SKU] || v.SKU == p.SKU {
			return fmt.Errorf("duplicate variant sku %s", v.SKU)
		}
		seen[v.SKU] = true
		for _, rule := range []ValidationRule{validateSKU, validateBasePrice, validateTierRule, validateFixedPriceTiers} {
			if err := rule(v); err != nil {
				return fmt.Errorf("variant %s: %w", v.SKU, err)
			}
		}
	}
	return nil
}

func joinErrors(errs []error) error {
	return stderrors.Join(errs...)
}
