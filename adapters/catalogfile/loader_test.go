package catalogfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wholesale-pricing/core/types"
	"wholesale-pricing/internal/errors"
)

const hclCatalog = `
product "widget" {
  name         = "Widget"
  base_price   = "100.00"
  fixed_prices = { gold = "65.00", silver = "" }

  tier_rule {
    min_quantity     = 10
    discount_percent = 15
  }
}

product "tee" {
  name = "T-Shirt"

  variant "tee-s" {
    base_price = 20
  }

  variant "tee-m" {
    base_price   = "22.50"
    fixed_prices = { wh_gold = "15" }
  }
}

product "pallet" {
  base_price     = "900"
  wholesale_only = true
}
`

const yamlCatalog = `
products:
  - sku: widget
    name: Widget
    base_price: 100.00
    fixed_prices:
      gold: "65.00"
    tier_rule:
      min_quantity: 10
      discount_percent: 15
  - sku: tee
    variants:
      - sku: tee-s
        base_price: "20"
`

const jsonCatalog = `{
  "products": [
    {"sku": "widget", "base_price": 100, "tier_rule": {"min_quantity": 10, "discount_percent": "15"}},
    {"sku": "pallet", "base_price": "900", "wholesale_only": true}
  ]
}`

func write(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadHCL(t *testing.T) {
	store, err := Load(write(t, "catalog.hcl", hclCatalog))
	require.NoError(t, err)
	ctx := context.Background()

	widget, err := store.Product(ctx, "widget")
	require.NoError(t, err)
	assert.Equal(t, "100", widget.BasePrice.String())
	assert.Equal(t, "65.00", widget.FixedPrices[types.TierGold])
	assert.Equal(t, "", widget.FixedPrices[types.TierSilver])
	require.NotNil(t, widget.TierRule)
	assert.Equal(t, 10, widget.TierRule.MinQuantity)
	assert.Equal(t, "15", widget.TierRule.DiscountPercent.String())

	teeM, err := store.Product(ctx, "tee-m")
	require.NoError(t, err)
	assert.Equal(t, "tee", teeM.ParentSKU)
	assert.Equal(t, "22.5", teeM.BasePrice.String())
	assert.Equal(t, "15", teeM.FixedPrices[types.TierGold])

	pallet, err := store.Product(ctx, "pallet")
	require.NoError(t, err)
	assert.True(t, pallet.WholesaleOnly)

	assert.Equal(t, 3, store.Len())
}

func TestLoadYAML(t *testing.T) {
	store, err := Load(write(t, "catalog.yaml", yamlCatalog))
	require.NoError(t, err)

	widget, err := store.Product(context.Background(), "widget")
	require.NoError(t, err)
	assert.Equal(t, "100", widget.BasePrice.String())
	assert.Equal(t, "65.00", widget.FixedPrices[types.TierGold])

	teeS, err := store.Product(context.Background(), "tee-s")
	require.NoError(t, err)
	assert.Equal(t, "20", teeS.BasePrice.String())
}

func TestLoadJSON(t *testing.T) {
	store, err := Load(write(t, "catalog.json", jsonCatalog))
	require.NoError(t, err)

	widget, err := store.Product(context.Background(), "widget")
	require.NoError(t, err)
	assert.Equal(t, "100", widget.BasePrice.String())
	assert.Equal(t, "15", widget.TierRule.DiscountPercent.String())
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		errType errors.Type
	}{
		{"negative price", "c.json", `{"products": [{"sku": "a", "base_price": "-1"}]}`, errors.TypeInput},
		{"non-numeric price", "c.yaml", "products:\n  - sku: a\n    base_price: cheap\n", errors.TypeInput},
		{"unknown tier", "c.json", `{"products": [{"sku": "a", "base_price": "1", "fixed_prices": {"platinum": "1"}}]}`, errors.TypeInput},
		{"duplicate product", "c.json", `{"products": [{"sku": "a", "base_price": "1"}, {"sku": "a", "base_price": "2"}]}`, errors.TypeInput},
		{"variant reuses product sku", "c.yaml", "products:\n  - sku: mug\n    base_price: 5\n  - sku: tee\n    variants:\n      - sku: mug\n        base_price: 6\n", errors.TypeInput},
		{"bad hcl", "c.hcl", `product "a" {`, errors.TypeConfig},
		{"unsupported format", "c.toml", ``, errors.TypeConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(write(t, tt.file, tt.body))
			require.Error(t, err)
			assert.True(t, errors.IsType(err, tt.errType), "got %v", err)
		})
	}
}

func TestLoadNonNumericRuleDiscountLeavesRuleInactive(t *testing.T) {
	body := `{"products": [{"sku": "widget", "base_price": "100", "tier_rule": {"min_quantity": 10, "discount_percent": "lots"}}]}`
	store, err := Load(write(t, "catalog.json", body))
	require.NoError(t, err)

	widget, err := store.Product(context.Background(), "widget")
	require.NoError(t, err)
	require.NotNil(t, widget.TierRule)
	assert.True(t, widget.TierRule.DiscountPercent.IsZero())
	assert.False(t, widget.TierRule.Active())
}
