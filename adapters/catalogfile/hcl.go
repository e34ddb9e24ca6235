package catalogfile

import (
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"wholesale-pricing/core/types"
	"wholesale-pricing/internal/errors"
)

// hclFile is the HCL catalog layout:
//
//	product "widget" {
//	  base_price   = "100.00"
//	  fixed_prices = { gold = "65.00" }
//	  tier_rule {
//	    min_quantity     = 10
//	    discount_percent = 15
//	  }
//	  variant "widget-red" {
//	    base_price = "110.00"
//	  }
//	}
type hclFile struct {
	Products []hclProduct `hcl:"product,block"`
}

type hclProduct struct {
	SKU           string            `hcl:"sku,label"`
	Name          string            `hcl:"name,optional"`
	BasePrice     string            `hcl:"base_price,optional"`
	WholesaleOnly bool              `hcl:"wholesale_only,optional"`
	FixedPrices   map[string]string `hcl:"fixed_prices,optional"`
	TierRule      *hclTierRule      `hcl:"tier_rule,block"`
	Variants      []hclVariant      `hcl:"variant,block"`
}

type hclVariant struct {
	SKU         string            `hcl:"sku,label"`
	Name        string            `hcl:"name,optional"`
	BasePrice   string            `hcl:"base_price"`
	FixedPrices map[string]string `hcl:"fixed_prices,optional"`
	TierRule    *hclTierRule      `hcl:"tier_rule,block"`
}

type hclTierRule struct {
	MinQuantity     int    `hcl:"min_quantity"`
	DiscountPercent string `hcl:"discount_percent"`
}

func parseHCL(path string) ([]types.Product, error) {
	parser := hclparse.NewParser()

	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, errors.Wrap(errors.TypeConfig, "parse catalog "+path, diags)
	}

	var doc hclFile
	if diags := gohcl.DecodeBody(file.Body, nil, &doc); diags.HasErrors() {
		return nil, errors.Wrap(errors.TypeConfig, "decode catalog "+path, diags)
	}

	products := make([]types.Product, 0, len(doc.Products))
	for _, hp := range doc.Products {
		p, err := hp.toDoc().toProduct()
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func (h hclProduct) toDoc() productDoc {
	d := productDoc{
		SKU:           h.SKU,
		Name:          h.Name,
		BasePrice:     priceText(h.BasePrice),
		WholesaleOnly: h.WholesaleOnly,
		FixedPrices:   h.FixedPrices,
		TierRule:      h.TierRule.toDoc(),
	}
	for _, v := range h.Variants {
		d.Variants = append(d.Variants, productDoc{
			SKU:         v.SKU,
			Name:        v.Name,
			BasePrice:   priceText(v.BasePrice),
			FixedPrices: v.FixedPrices,
			TierRule:    v.TierRule.toDoc(),
		})
	}
	return d
}

func (r *hclTierRule) toDoc() *tierRuleDoc {
	if r == nil {
		return nil
	}
	return &tierRuleDoc{MinQuantity: r.MinQuantity, DiscountPercent: priceText(r.DiscountPercent)}
}
