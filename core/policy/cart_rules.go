package policy

import (
	"context"
	"fmt"

	"wholesale-pricing/core/types"
	"wholesale-pricing/internal/errors"
)

// CouponsUnavailableMessage is shown when a wholesale customer applies a coupon
const CouponsUnavailableMessage = "Coupons are not available for wholesale customers."

// MinimumOrderRule enforces the minimum wholesale order subtotal
type MinimumOrderRule struct {
	Settings Settings
}

func (r *MinimumOrderRule) Name() string { return "minimum_order_value" }

func (r *MinimumOrderRule) Description() string {
	return "Wholesale orders must reach the configured minimum subtotal"
}

func (r *MinimumOrderRule) Evaluate(ctx context.Context, cart *Cart) *RuleResult {
	minimum := r.Settings.MinCartValue
	if !cart.Customer.IsWholesale() || !minimum.IsPositive() || cart.Subtotal.GreaterThanOrEqual(minimum) {
		return pass(r.Name())
	}

	return &RuleResult{
		RuleName: r.Name(),
		Passed:   false,
		Severity: SeverityBlock,
		Message: fmt.Sprintf("Wholesale customers must have a minimum order value of %s. Your current cart total is %s.",
			r.Settings.FormatMoney(minimum), r.Settings.FormatMoney(cart.Subtotal)),
		Details: map[string]interface{}{
			"minimum":  minimum.String(),
			"subtotal": cart.Subtotal.String(),
		},
	}
}

// CouponRule blocks coupons for wholesale customers when configured
type CouponRule struct {
	Settings Settings
}

func (r *CouponRule) Name() string { return "wholesale_coupons" }

func (r *CouponRule) Description() string {
	return "Coupons can be disabled for wholesale customers"
}

func (r *CouponRule) Evaluate(ctx context.Context, cart *Cart) *RuleResult {
	if len(cart.Coupons) == 0 || CouponsEnabled(r.Settings, cart.Customer) {
		return pass(r.Name())
	}
	return &RuleResult{
		RuleName: r.Name(),
		Passed:   false,
		Severity: SeverityBlock,
		Message:  CouponsUnavailableMessage,
		Details:  map[string]interface{}{"coupons": cart.Coupons},
	}
}

// CouponsEnabled reports whether the customer may use coupons at all
func CouponsEnabled(settings Settings, customer types.Customer) bool {
	return !(settings.DisableCoupons && customer.IsWholesale())
}

// ValidateCoupon returns a policy error when a coupon may not be applied
func ValidateCoupon(settings Settings, customer types.Customer, code string) error {
	if CouponsEnabled(settings, customer) {
		return nil
	}
	return errors.Policy(CouponsUnavailableMessage).WithContext("coupon", code)
}
