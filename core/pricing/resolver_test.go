// Package pricing - Resolver tests
// Each scenario pins one precedence rule of the resolver.
package pricing

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"wholesale-pricing/core/types"
	domainerrors "wholesale-pricing/internal/errors"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func tier(id types.TierID, discount string) *types.Tier {
	return &types.Tier{ID: id, DiscountPercent: dec(discount)}
}

func newTestResolver(opts ...Option) *Resolver {
	return NewResolver(append([]Option{WithLogger(zap.NewNop())}, opts...)...)
}

func TestResolveScenarios(t *testing.T) {
	tests := []struct {
		name        string
		req         types.PricingRequest
		wantPrice   string
		wantBasis   types.Basis
		wantApplied bool
	}{
		{
			name: "percentage discount",
			req: types.PricingRequest{
				Product:  types.Product{SKU: "p1", BasePrice: dec("100")},
				Tier:     tier(types.TierGold, "30"),
				Quantity: 1,
			},
			wantPrice: "70.00",
			wantBasis: types.BasisPercentDiscount,
		},
		{
			name: "fixed price wins over discount",
			req: types.PricingRequest{
				Product: types.Product{
					SKU:         "p1",
					BasePrice:   dec("100"),
					FixedPrices: map[types.TierID]string{types.TierGold: "65.00"},
				},
				Tier: tier(types.TierGold, "30"),
			},
			wantPrice: "65.00",
			wantBasis: types.BasisFixedTier,
		},
		{
			name: "quantity discount on top of tier discount",
			req: types.PricingRequest{
				Product: types.Product{
					SKU:       "p1",
					BasePrice: dec("100"),
					TierRule:  &types.TierRule{MinQuantity: 10, DiscountPercent: dec("15")},
				},
				Tier:     tier(types.TierBronze, "10"),
				Quantity: 12,
			},
			wantPrice:   "76.50",
			wantBasis:   types.BasisPercentDiscount,
			wantApplied: true,
		},
		{
			name: "quantity below threshold",
			req: types.PricingRequest{
				Product: types.Product{
					SKU:       "p1",
					BasePrice: dec("100"),
					TierRule:  &types.TierRule{MinQuantity: 10, DiscountPercent: dec("15")},
				},
				Tier:     tier(types.TierBronze, "10"),
				Quantity: 5,
			},
			wantPrice: "90.00",
			wantBasis: types.BasisPercentDiscount,
		},
		{
			name: "retail customer ignores rules",
			req: types.PricingRequest{
				Product: types.Product{
					SKU:         "p1",
					BasePrice:   dec("100"),
					FixedPrices: map[types.TierID]string{types.TierGold: "65.00"},
					TierRule:    &types.TierRule{MinQuantity: 10, DiscountPercent: dec("15")},
				},
				Quantity: 100,
			},
			wantPrice: "100.00",
			wantBasis: types.BasisRetail,
		},
		{
			name: "full discount clamps at zero",
			req: types.PricingRequest{
				Product: types.Product{SKU: "p1", BasePrice: dec("50")},
				Tier:    tier(types.TierSilver, "100"),
			},
			wantPrice: "0.00",
			wantBasis: types.BasisPercentDiscount,
		},
		{
			name: "unclamped discount still never negative",
			req: types.PricingRequest{
				Product: types.Product{SKU: "p1", BasePrice: dec("50")},
				Tier:    tier(types.TierSilver, "120"),
			},
			wantPrice: "0.00",
			wantBasis: types.BasisPercentDiscount,
		},
		{
			name: "quantity discount on top of fixed price",
			req: types.PricingRequest{
				Product: types.Product{
					SKU:         "p1",
					BasePrice:   dec("100"),
					FixedPrices: map[types.TierID]string{types.TierGold: "60"},
					TierRule:    &types.TierRule{MinQuantity: 2, DiscountPercent: dec("50")},
				},
				Tier:     tier(types.TierGold, "30"),
				Quantity: 2,
			},
			wantPrice:   "30.00",
			wantBasis:   types.BasisFixedTier,
			wantApplied: true,
		},
		{
			name: "zero discount tier still gets quantity discount",
			req: types.PricingRequest{
				Product: types.Product{
					SKU:       "p1",
					BasePrice: dec("40"),
					TierRule:  &types.TierRule{MinQuantity: 3, DiscountPercent: dec("25")},
				},
				Tier:     tier(types.TierBronze, "0"),
				Quantity: 3,
			},
			wantPrice:   "30.00",
			wantBasis:   types.BasisRetail,
			wantApplied: true,
		},
		{
			name: "zero base price is not discounted",
			req: types.PricingRequest{
				Product: types.Product{SKU: "free", BasePrice: decimal.Zero},
				Tier:    tier(types.TierGold, "30"),
			},
			wantPrice: "0.00",
			wantBasis: types.BasisRetail,
		},
	}

	r := newTestResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.UnitPrice.StringFixed(2) != tt.wantPrice {
				t.Errorf("unit price = %s, want %s", got.UnitPrice.StringFixed(2), tt.wantPrice)
			}
			if got.Basis != tt.wantBasis {
				t.Errorf("basis = %s, want %s", got.Basis, tt.wantBasis)
			}
			if got.TierDiscountApplied != tt.wantApplied {
				t.Errorf("tier discount applied = %v, want %v", got.TierDiscountApplied, tt.wantApplied)
			}
		})
	}
}

// TestUnusableFixedPricesFallThrough proves stray overrides degrade to the discount
func TestUnusableFixedPricesFallThrough(t *testing.T) {
	r := newTestResolver()

	for _, raw := range []string{"", "  ", "n/a", "0", "-5"} {
		req := types.PricingRequest{
			Product: types.Product{
				SKU:         "p1",
				BasePrice:   dec("100"),
				FixedPrices: map[types.TierID]string{types.TierGold: raw},
			},
			Tier: tier(types.TierGold, "30"),
		}

		got, err := r.Resolve(context.Background(), req)
		if err != nil {
			t.Fatalf("fixed price %q: unexpected error: %v", raw, err)
		}
		if got.Basis != types.BasisPercentDiscount || !got.UnitPrice.Equal(dec("70")) {
			t.Errorf("fixed price %q: got %s %s, want 70 PERCENT_DISCOUNT", raw, got.UnitPrice, got.Basis)
		}
	}
}

func TestNegativeBasePriceIsInputError(t *testing.T) {
	r := newTestResolver()

	_, err := r.Resolve(context.Background(), types.PricingRequest{
		Product: types.Product{SKU: "bad", BasePrice: dec("-1")},
		Tier:    tier(types.TierGold, "30"),
	})
	if !domainerrors.IsType(err, domainerrors.TypeInput) {
		t.Fatalf("expected input error, got %v", err)
	}

	_, err = r.Resolve(context.Background(), types.PricingRequest{
		Product: types.Product{SKU: "bad", BasePrice: dec("-1")},
	})
	if !domainerrors.IsType(err, domainerrors.TypeInput) {
		t.Fatalf("retail request: expected input error, got %v", err)
	}
}

// TestResolveIsRepeatable proves the quantity discount never compounds
func TestResolveIsRepeatable(t *testing.T) {
	r := newTestResolver()
	req := types.PricingRequest{
		Product: types.Product{
			SKU:       "p1",
			BasePrice: dec("100"),
			TierRule:  &types.TierRule{MinQuantity: 10, DiscountPercent: dec("15")},
		},
		Tier:     tier(types.TierBronze, "10"),
		Quantity: 12,
	}

	first, err := r.Resolve(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Resolve(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !first.UnitPrice.Equal(second.UnitPrice) {
		t.Errorf("repeated resolution drifted: %s then %s", first.UnitPrice, second.UnitPrice)
	}
}

// reentrantSource calls back into the resolver from inside a lookup
type reentrantSource struct {
	resolver *Resolver
	nested   types.PricingResult
	calls    int
}

func (s *reentrantSource) FixedPrice(ctx context.Context, sku string, tierID types.TierID) (string, error) {
	s.calls++
	nested, err := s.resolver.Resolve(ctx, types.PricingRequest{
		Product: types.Product{SKU: sku, BasePrice: dec("80")},
		Tier:    tier(tierID, "50"),
	})
	if err != nil {
		return "", err
	}
	s.nested = nested
	return "", nil
}

// TestReentrantResolutionPassesThrough proves nested calls return the base price
func TestReentrantResolutionPassesThrough(t *testing.T) {
	src := &reentrantSource{}
	r := newTestResolver(WithFixedPriceSource(src))
	src.resolver = r

	got, err := r.Resolve(context.Background(), types.PricingRequest{
		Product: types.Product{SKU: "p1", BasePrice: dec("100")},
		Tier:    tier(types.TierGold, "30"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if src.calls != 1 {
		t.Fatalf("expected exactly one lookup, got %d", src.calls)
	}
	if !src.nested.UnitPrice.Equal(dec("80")) || src.nested.Basis != types.BasisRetail {
		t.Errorf("nested call = %s %s, want passthrough 80 RETAIL", src.nested.UnitPrice, src.nested.Basis)
	}
	if !got.UnitPrice.Equal(dec("70")) {
		t.Errorf("outer call = %s, want 70", got.UnitPrice)
	}
}

func TestGuardReleasedAfterResolve(t *testing.T) {
	var captured context.Context
	src := fixedPriceFunc(func(ctx context.Context, sku string, id types.TierID) (string, error) {
		captured = ctx
		if !Resolving(ctx) {
			t.Error("lookup context not marked as resolving")
		}
		return "", nil
	})
	r := newTestResolver(WithFixedPriceSource(src))

	_, err := r.Resolve(context.Background(), types.PricingRequest{
		Product: types.Product{SKU: "p1", BasePrice: dec("10")},
		Tier:    tier(types.TierGold, "10"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if captured == nil {
		t.Fatal("source was not consulted")
	}
	if Resolving(captured) {
		t.Error("resolution flag leaked past Resolve")
	}
}

type fixedPriceFunc func(ctx context.Context, sku string, tier types.TierID) (string, error)

func (f fixedPriceFunc) FixedPrice(ctx context.Context, sku string, tier types.TierID) (string, error) {
	return f(ctx, sku, tier)
}

func TestFixedPriceSource(t *testing.T) {
	src := fixedPriceFunc(func(ctx context.Context, sku string, id types.TierID) (string, error) {
		if sku == "p1" && id == types.TierGold {
			return "55", nil
		}
		return "", nil
	})
	r := newTestResolver(WithFixedPriceSource(src))

	got, err := r.Resolve(context.Background(), types.PricingRequest{
		Product: types.Product{SKU: "p1", BasePrice: dec("100")},
		Tier:    tier(types.TierGold, "30"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.Basis != types.BasisFixedTier || !got.UnitPrice.Equal(dec("55")) {
		t.Errorf("got %s %s, want 55 FIXED_TIER", got.UnitPrice, got.Basis)
	}

	// An explicit blank override on the product shadows the source.
	got, err = r.Resolve(context.Background(), types.PricingRequest{
		Product: types.Product{
			SKU:         "p1",
			BasePrice:   dec("100"),
			FixedPrices: map[types.TierID]string{types.TierGold: ""},
		},
		Tier: tier(types.TierGold, "30"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.Basis != types.BasisPercentDiscount {
		t.Errorf("basis = %s, want PERCENT_DISCOUNT", got.Basis)
	}
}

func TestLoadedFixedPricesSkipSource(t *testing.T) {
	calls := 0
	src := fixedPriceFunc(func(ctx context.Context, sku string, id types.TierID) (string, error) {
		calls++
		return "55", nil
	})
	r := newTestResolver(WithFixedPriceSource(src))

	got, err := r.Resolve(context.Background(), types.PricingRequest{
		Product: types.Product{SKU: "p1", BasePrice: dec("100"), FixedPricesLoaded: true},
		Tier:    tier(types.TierGold, "30"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 0 {
		t.Errorf("source consulted %d times for a fully loaded product", calls)
	}
	if got.Basis != types.BasisPercentDiscount || !got.UnitPrice.Equal(dec("70")) {
		t.Errorf("got %s %s, want 70 PERCENT_DISCOUNT", got.UnitPrice, got.Basis)
	}
}

func TestFixedPriceSourceErrorDegrades(t *testing.T) {
	src := fixedPriceFunc(func(ctx context.Context, sku string, id types.TierID) (string, error) {
		return "", errors.New("catalog unavailable")
	})
	r := newTestResolver(WithFixedPriceSource(src))

	got, err := r.Resolve(context.Background(), types.PricingRequest{
		Product: types.Product{SKU: "p1", BasePrice: dec("100")},
		Tier:    tier(types.TierGold, "30"),
	})
	if err != nil {
		t.Fatalf("source failure surfaced: %v", err)
	}
	if got.Basis != types.BasisPercentDiscount {
		t.Errorf("basis = %s, want PERCENT_DISCOUNT", got.Basis)
	}
}

func TestConcurrentResolutionsAreIndependent(t *testing.T) {
	r := newTestResolver()
	req := types.PricingRequest{
		Product: types.Product{SKU: "p1", BasePrice: dec("100")},
		Tier:    tier(types.TierGold, "30"),
	}

	var wg sync.WaitGroup
	results := make([]types.PricingResult, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := r.Resolve(context.Background(), req)
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = res
		}(i)
	}
	wg.Wait()

	for i, res := range results {
		if !res.UnitPrice.Equal(dec("70")) || res.Basis != types.BasisPercentDiscount {
			t.Errorf("goroutine %d: got %s %s", i, res.UnitPrice, res.Basis)
		}
	}
}
