// Package catalogfile loads product catalogs from HCL, YAML or JSON files
// into a catalog.MemoryStore.
package catalogfile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"wholesale-pricing/core/catalog"
	"wholesale-pricing/core/pricing/primitives"
	"wholesale-pricing/core/types"
	"wholesale-pricing/internal/errors"
	"wholesale-pricing/internal/logging"
)

// document is the YAML/JSON catalog layout
type document struct {
	Products []productDoc `json:"products" yaml:"products"`
}

type productDoc struct {
	SKU           string            `json:"sku" yaml:"sku"`
	Name          string            `json:"name,omitempty" yaml:"name,omitempty"`
	BasePrice     priceText         `json:"base_price" yaml:"base_price"`
	WholesaleOnly bool              `json:"wholesale_only,omitempty" yaml:"wholesale_only,omitempty"`
	FixedPrices   map[string]string `json:"fixed_prices,omitempty" yaml:"fixed_prices,omitempty"`
	TierRule      *tierRuleDoc      `json:"tier_rule,omitempty" yaml:"tier_rule,omitempty"`
	Variants      []productDoc      `json:"variants,omitempty" yaml:"variants,omitempty"`
}

type tierRuleDoc struct {
	MinQuantity     int       `json:"min_quantity" yaml:"min_quantity"`
	DiscountPercent priceText `json:"discount_percent" yaml:"discount_percent"`
}

// priceText accepts both quoted and bare numbers in JSON
type priceText string

func (p *priceText) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*p = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*p = priceText(str)
		return nil
	}
	*p = priceText(s)
	return nil
}

// Load reads a catalog file, choosing the format by extension
func Load(path string) (*catalog.MemoryStore, error) {
	store := catalog.NewMemoryStore()
	if err := LoadInto(store, path); err != nil {
		return nil, err
	}
	return store, nil
}

// LoadInto reads a catalog file into an existing store
func LoadInto(store *catalog.MemoryStore, path string) error {
	var (
		products []types.Product
		err      error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		products, err = parseHCL(path)
	case ".yaml", ".yml":
		products, err = parseDocument(path, yaml.Unmarshal)
	case ".json":
		products, err = parseDocument(path, json.Unmarshal)
	default:
		return errors.Newf(errors.TypeConfig, "unsupported catalog format: %s", path)
	}
	if err != nil {
		return err
	}

	if err := checkDuplicates(products); err != nil {
		return err
	}
	for _, p := range products {
		if err := store.Put(p); err != nil {
			return err
		}
	}

	logging.Named("catalog").Info("catalog loaded",
		zap.String("path", path),
		zap.Int("products", len(products)))
	return nil
}

func parseDocument(path string, unmarshal func([]byte, interface{}) error) ([]types.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Storage("read catalog", err)
	}

	var doc document
	if err := unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.TypeConfig, "parse catalog "+path, err)
	}

	products := make([]types.Product, 0, len(doc.Products))
	for _, pd := range doc.Products {
		p, err := pd.toProduct()
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func (d productDoc) toProduct() (types.Product, error) {
	p := types.Product{
		SKU:           d.SKU,
		Name:          d.Name,
		WholesaleOnly: d.WholesaleOnly,
	}

	var err error
	if p.FixedPrices, err = fixedPrices(d.SKU, d.FixedPrices); err != nil {
		return types.Product{}, err
	}

	if d.BasePrice != "" || len(d.Variants) == 0 {
		if p.BasePrice, err = primitives.ParsePrice(string(d.BasePrice)); err != nil {
			return types.Product{}, errors.Wrapf(errors.TypeInput, err, "product %s base_price", d.SKU)
		}
	}

	if d.TierRule != nil {
		p.TierRule = tierRule(d.SKU, d.TierRule.MinQuantity, string(d.TierRule.DiscountPercent))
	}

	for _, vd := range d.Variants {
		if len(vd.Variants) > 0 {
			return types.Product{}, errors.Inputf("variant %s cannot have variants", vd.SKU)
		}
		v, err := vd.toProduct()
		if err != nil {
			return types.Product{}, err
		}
		p.Variants = append(p.Variants, v)
	}
	return p, nil
}

// fixedPrices keeps raw values but insists on known tier names
func fixedPrices(sku string, raw map[string]string) (map[types.TierID]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[types.TierID]string, len(raw))
	for k, v := range raw {
		id, ok := types.ParseTierID(k)
		if !ok || id == "" {
			return nil, errors.Inputf("product %s: fixed price for unknown tier %q", sku, k)
		}
		out[id] = v
	}
	return out, nil
}

// tierRule parses a quantity rule. A non-numeric discount leaves the rule
// inactive rather than failing the load.
func tierRule(sku string, minQty int, discount string) *types.TierRule {
	d, err := decimal.NewFromString(strings.TrimSpace(discount))
	if err != nil {
		logging.Named("catalog").Warn("ignoring non-numeric tier rule discount",
			zap.String("sku", sku),
			zap.String("discount_percent", discount))
		d = decimal.Zero
	}
	return &types.TierRule{MinQuantity: minQty, DiscountPercent: d}
}

// checkDuplicates rejects a SKU used twice anywhere in one catalog file
func checkDuplicates(products []types.Product) error {
	seen := make(map[string]string)
	for _, p := range products {
		skus := []string{p.SKU}
		for _, v := range p.Variants {
			skus = append(skus, v.SKU)
		}
		for _, sku := range skus {
			if owner, ok := seen[sku]; ok {
				return errors.Inputf("duplicate sku %s (products %s and %s)", sku, owner, p.SKU)
			}
			seen[sku] = p.SKU
		}
	}
	return nil
}
