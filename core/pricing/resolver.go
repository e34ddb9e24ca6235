// Package pricing resolves the unit price a customer pays.
// Precedence: fixed tier price, else tier percentage discount, then the
// product's quantity discount on top of whichever price was chosen.
package pricing

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"wholesale-pricing/core/pricing/primitives"
	"wholesale-pricing/core/types"
	"wholesale-pricing/internal/errors"
	"wholesale-pricing/internal/logging"
)

// FixedPriceSource supplies per-tier overrides that are not carried on the
// product itself, typically the catalog backend. Lookups receive the
// resolution context, so a source that calls back into the resolver gets a
// passthrough price instead of recursing.
type FixedPriceSource interface {
	FixedPrice(ctx context.Context, sku string, tier types.TierID) (string, error)
}

// Resolver resolves wholesale prices. It holds no mutable state and is safe
// for concurrent use.
type Resolver struct {
	fixed  FixedPriceSource
	logger *zap.Logger
}

// Option configures a Resolver
type Option func(*Resolver)

// WithFixedPriceSource sets the fallback source for fixed tier prices
func WithFixedPriceSource(src FixedPriceSource) Option {
	return func(r *Resolver) {
		r.fixed = src
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

// NewResolver creates a resolver
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logging.Named("pricing")
	}
	return r
}

// Resolve computes the unit price for one request.
// A negative base price is an input error; every other gap in the
// configuration falls through to the next rule.
func (r *Resolver) Resolve(ctx context.Context, req types.PricingRequest) (types.PricingResult, error) {
	base := req.Product.BasePrice
	if base.IsNegative() {
		return types.PricingResult{}, errors.Inputf("base price must not be negative: %s", base).
			WithContext("sku", req.Product.SKU)
	}

	result := types.PricingResult{
		SKU:       req.Product.SKU,
		UnitPrice: base,
		Basis:     types.BasisRetail,
	}

	if req.Tier == nil || req.Tier.ID == "" {
		return result, nil
	}

	ctx, release, ok := enterResolution(ctx)
	if !ok {
		r.logger.Debug("nested price resolution, passing base price through",
			zap.String("sku", req.Product.SKU))
		return result, nil
	}
	defer release()

	result.Tier = req.Tier.ID

	price, basis := r.tierPrice(ctx, req)
	price, applied := primitives.ApplyTierRule(price, req.Product.TierRule, req.EffectiveQuantity())

	result.UnitPrice = primitives.ClampNonNegative(price)
	result.Basis = basis
	result.TierDiscountApplied = applied
	return result, nil
}

// tierPrice applies the fixed price or, failing that, the tier discount
func (r *Resolver) tierPrice(ctx context.Context, req types.PricingRequest) (decimal.Decimal, types.Basis) {
	base := req.Product.BasePrice

	if fixed, ok := r.fixedPrice(ctx, req.Product, req.Tier.ID); ok {
		return fixed, types.BasisFixedTier
	}

	discount := req.Tier.DiscountPercent
	if !discount.IsPositive() || !base.IsPositive() {
		return base, types.BasisRetail
	}
	return primitives.PercentOff(base, discount), types.BasisPercentDiscount
}

func (r *Resolver) fixedPrice(ctx context.Context, product types.Product, tier types.TierID) (decimal.Decimal, bool) {
	raw, found := product.FixedPrices[tier]
	if !found && !product.FixedPricesLoaded && r.fixed != nil && product.SKU != "" {
		var err error
		raw, err = r.fixed.FixedPrice(ctx, product.SKU, tier)
		if err != nil {
			r.logger.Warn("fixed price lookup failed",
				zap.String("sku", product.SKU),
				zap.String("tier", tier.String()),
				zap.Error(err))
			return decimal.Zero, false
		}
	}

	price, ok := primitives.ParsePositivePrice(raw)
	if !ok && raw != "" {
		r.logger.Debug("ignoring unusable fixed price",
			zap.String("sku", product.SKU),
			zap.String("tier", tier.String()),
			zap.String("value", raw))
	}
	return price, ok
}
