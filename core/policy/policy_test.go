package policy

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"wholesale-pricing/core/types"
	"wholesale-pricing/internal/errors"
)

func settings() Settings {
	return Settings{
		MinCartValue:   decimal.RequireFromString("150"),
		DisableCoupons: true,
		Currency:       "USD",
		Decimals:       2,
	}
}

var (
	gold   = types.Customer{ID: "1", Tier: types.TierGold, Authenticated: true}
	retail = types.Customer{ID: "2", Authenticated: true}
	guest  = types.Customer{}
)

func TestMinimumOrderRule(t *testing.T) {
	tests := []struct {
		name     string
		customer types.Customer
		subtotal string
		passed   bool
	}{
		{"wholesale below minimum", gold, "149.99", false},
		{"wholesale at minimum", gold, "150", true},
		{"retail below minimum", retail, "10", true},
	}

	rule := &MinimumOrderRule{Settings: settings()}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := rule.Evaluate(context.Background(), &Cart{
				Customer: tt.customer,
				Subtotal: decimal.RequireFromString(tt.subtotal),
			})
			if res.Passed != tt.passed {
				t.Errorf("passed = %v, want %v (%s)", res.Passed, tt.passed, res.Message)
			}
		})
	}
}

func TestMinimumOrderMessage(t *testing.T) {
	rule := &MinimumOrderRule{Settings: settings()}
	res := rule.Evaluate(context.Background(), &Cart{Customer: gold, Subtotal: decimal.RequireFromString("99.5")})

	want := "Wholesale customers must have a minimum order value of 150.00 USD. Your current cart total is 99.50 USD."
	if res.Message != want {
		t.Errorf("message = %q, want %q", res.Message, want)
	}
}

func TestMinimumOrderDisabled(t *testing.T) {
	s := settings()
	s.MinCartValue = decimal.Zero
	res := (&MinimumOrderRule{Settings: s}).Evaluate(context.Background(), &Cart{Customer: gold})
	if !res.Passed {
		t.Error("zero minimum should disable the rule")
	}
}

func TestCoupons(t *testing.T) {
	s := settings()

	if CouponsEnabled(s, gold) {
		t.Error("coupons enabled for wholesale customer")
	}
	if !CouponsEnabled(s, retail) {
		t.Error("coupons disabled for retail customer")
	}

	err := ValidateCoupon(s, gold, "SAVE10")
	if !errors.IsType(err, errors.TypePolicy) {
		t.Errorf("expected policy error, got %v", err)
	}
	if err := ValidateCoupon(s, retail, "SAVE10"); err != nil {
		t.Errorf("retail coupon rejected: %v", err)
	}

	s.DisableCoupons = false
	if err := ValidateCoupon(s, gold, "SAVE10"); err != nil {
		t.Errorf("coupon rejected with coupons enabled: %v", err)
	}
}

func TestEvaluator(t *testing.T) {
	e := NewEvaluator(settings())

	res := e.Evaluate(context.Background(), &Cart{
		Customer: gold,
		Subtotal: decimal.RequireFromString("100"),
		Coupons:  []string{"SAVE10"},
	})
	if !res.Blocked || res.FailedCount != 2 || res.PassedCount != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}

	res = e.Evaluate(context.Background(), &Cart{Customer: retail, Subtotal: decimal.RequireFromString("5"), Coupons: []string{"X"}})
	if res.Blocked || res.PassedCount != 2 {
		t.Errorf("retail cart blocked: %+v", res)
	}

	if err := e.RegisterRule(&CouponRule{}); err == nil {
		t.Error("duplicate rule registered")
	}
}

func TestVisibility(t *testing.T) {
	private := Visibility{Settings: Settings{PrivateStore: true}}
	open := Visibility{}

	if private.CanPurchase(guest) || private.PricesVisible(guest) {
		t.Error("guest can purchase in private store")
	}
	if !private.CanPurchase(retail) {
		t.Error("logged-in retail customer blocked in private store")
	}
	if !open.CanPurchase(guest) {
		t.Error("guest blocked in open store")
	}

	products := []types.Product{
		{SKU: "a"},
		{SKU: "b", WholesaleOnly: true},
		{SKU: "c"},
	}
	if got := open.Filter(products, retail); len(got) != 2 || got[1].SKU != "c" {
		t.Errorf("retail filter = %+v", got)
	}
	if got := open.Filter(products, gold); len(got) != 3 {
		t.Errorf("wholesale filter = %+v", got)
	}
}
