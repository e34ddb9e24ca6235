package pricing

import (
	"context"
	"sync"
	"testing"
	"time"

	"wholesale-pricing/core/types"
	domainerrors "wholesale-pricing/internal/errors"
)

func variableProduct() types.Product {
	return types.Product{
		SKU:  "tee",
		Name: "T-Shirt",
		Variants: []types.Product{
			{SKU: "tee-s", BasePrice: dec("20")},
			{SKU: "tee-m", BasePrice: dec("25"), FixedPrices: map[types.TierID]string{types.TierGold: "12"}},
			{SKU: "tee-xl", BasePrice: dec("30")},
		},
	}
}

func TestResolveVariantsIndependently(t *testing.T) {
	r := newTestResolver()

	pr, err := r.ResolveVariants(context.Background(), variableProduct(), tier(types.TierGold, "30"), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]string{"tee-s": "14", "tee-m": "12", "tee-xl": "21"}
	if len(pr.Variants) != len(want) {
		t.Fatalf("expected %d variants, got %d", len(want), len(pr.Variants))
	}
	for _, v := range pr.Variants {
		if !v.UnitPrice.Equal(dec(want[v.SKU])) {
			t.Errorf("%s: got %s, want %s", v.SKU, v.UnitPrice, want[v.SKU])
		}
	}
	if !pr.Min.Equal(dec("12")) || !pr.Max.Equal(dec("21")) {
		t.Errorf("range = %s-%s, want 12-21", pr.Min, pr.Max)
	}
	if pr.Tier != "gold" || pr.IsSingle() {
		t.Errorf("unexpected range metadata: %+v", pr)
	}
}

func TestResolveVariantsSimpleProduct(t *testing.T) {
	r := newTestResolver()

	pr, err := r.ResolveVariants(context.Background(), types.Product{SKU: "mug", BasePrice: dec("8")}, nil, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !pr.IsSingle() || !pr.Min.Equal(dec("8")) || pr.Tier != types.RetailKey {
		t.Errorf("unexpected range: %+v", pr)
	}
}

func TestVariantInheritsParentRule(t *testing.T) {
	parent := variableProduct()
	parent.TierRule = &types.TierRule{MinQuantity: 10, DiscountPercent: dec("10")}
	parent.Variants[0].TierRule = &types.TierRule{MinQuantity: 2, DiscountPercent: dec("50")}

	v := VariantView(parent, parent.Variants[0])
	if v.ParentSKU != "tee" {
		t.Errorf("parent sku = %q", v.ParentSKU)
	}
	if v.TierRule.MinQuantity != 10 {
		t.Errorf("expected parent rule to win, got %+v", v.TierRule)
	}

	parent.TierRule = nil
	v = VariantView(parent, parent.Variants[0])
	if v.TierRule.MinQuantity != 2 {
		t.Errorf("expected variant rule as fallback, got %+v", v.TierRule)
	}
}

func TestResolveVariantsRejectsNegativeVariant(t *testing.T) {
	r := newTestResolver()
	p := variableProduct()
	p.Variants[1].BasePrice = dec("-3")

	_, err := r.ResolveVariants(context.Background(), p, tier(types.TierGold, "30"), 1)
	if !domainerrors.IsType(err, domainerrors.TypeInput) {
		t.Fatalf("expected input error, got %v", err)
	}
}

func TestRangeKeyIncludesTier(t *testing.T) {
	retail := RangeKey("tee", nil)
	gold := RangeKey("tee", tier(types.TierGold, "30"))
	gold40 := RangeKey("tee", tier(types.TierGold, "40"))

	if retail == gold || gold == gold40 {
		t.Errorf("keys collide: %q %q %q", retail, gold, gold40)
	}
	if retail != "tee|retail" {
		t.Errorf("retail key = %q", retail)
	}
}

func TestRangeCacheSeparatesTiers(t *testing.T) {
	cache := NewRangeCache(newTestResolver(), &CachePolicy{TTL: time.Minute, MaxEntries: 16})
	ctx := context.Background()
	p := variableProduct()

	retail, err := cache.Get(ctx, p, nil)
	if err != nil {
		t.Fatal(err)
	}
	gold, err := cache.Get(ctx, p, tier(types.TierGold, "30"))
	if err != nil {
		t.Fatal(err)
	}

	if retail.Min.Equal(gold.Min) {
		t.Errorf("retail and gold ranges share a min of %s", retail.Min)
	}
	if cache.Len() != 2 {
		t.Errorf("cache len = %d, want 2", cache.Len())
	}

	// Served from cache even though the product changed underneath.
	p.Variants[0].BasePrice = dec("1")
	again, err := cache.Get(ctx, p, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !again.Min.Equal(retail.Min) {
		t.Errorf("expected cached min %s, got %s", retail.Min, again.Min)
	}

	cache.Invalidate("tee")
	if cache.Len() != 0 {
		t.Errorf("invalidate left %d entries", cache.Len())
	}
	fresh, err := cache.Get(ctx, p, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !fresh.Min.Equal(dec("1")) {
		t.Errorf("expected fresh min 1, got %s", fresh.Min)
	}
}

func TestRangeCacheConcurrentGets(t *testing.T) {
	cache := NewRangeCache(newTestResolver(), nil)
	p := variableProduct()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pr, err := cache.Get(context.Background(), p, tier(types.TierGold, "30"))
			if err != nil {
				t.Error(err)
				return
			}
			if !pr.Max.Equal(dec("21")) {
				t.Errorf("max = %s, want 21", pr.Max)
			}
		}()
	}
	wg.Wait()

	if cache.Len() != 1 {
		t.Errorf("cache len = %d, want 1", cache.Len())
	}
	cache.Purge()
	if cache.Len() != 0 {
		t.Errorf("purge left %d entries", cache.Len())
	}
}
