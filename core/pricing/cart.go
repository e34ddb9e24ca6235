package pricing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"wholesale-pricing/core/types"
	"wholesale-pricing/internal/errors"
)

// ProductSource looks products up by SKU. Variant SKUs return the variant
// with ParentSKU set.
type ProductSource interface {
	Product(ctx context.Context, sku string) (*types.Product, error)
}

// CartLine is one line of a cart
type CartLine struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

// QuotedLine is a repriced cart line
type QuotedLine struct {
	SKU       string              `json:"sku"`
	Quantity  int                 `json:"quantity"`
	Price     types.PricingResult `json:"price"`
	LineTotal decimal.Decimal     `json:"line_total"`
}

// Quote is a repriced cart
type Quote struct {
	ID       string          `json:"id"`
	Tier     string          `json:"tier"`
	Lines    []QuotedLine    `json:"lines"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// QuoteItem is a cart line whose product is already loaded
type QuoteItem struct {
	Product  types.Product
	Quantity int
}

// QuoteCart loads and reprices every line at its own quantity
func (r *Resolver) QuoteCart(ctx context.Context, products ProductSource, tier *types.Tier, lines []CartLine) (*Quote, error) {
	items := make([]QuoteItem, 0, len(lines))
	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, errors.Inputf("quantity for %s must be at least 1", line.SKU)
		}
		product, err := PurchasableProduct(ctx, products, line.SKU)
		if err != nil {
			return nil, err
		}
		items = append(items, QuoteItem{Product: *product, Quantity: line.Quantity})
	}
	return r.QuoteItems(ctx, tier, items)
}

// QuoteItems reprices products the caller has already loaded with
// PurchasableProduct
func (r *Resolver) QuoteItems(ctx context.Context, tier *types.Tier, items []QuoteItem) (*Quote, error) {
	quote := &Quote{
		ID:       uuid.NewString(),
		Tier:     types.PricingRequest{Tier: tier}.TierKey(),
		Subtotal: decimal.Zero,
	}

	for _, item := range items {
		sku := item.Product.SKU
		if item.Quantity < 1 {
			return nil, errors.Inputf("quantity for %s must be at least 1", sku)
		}
		if item.Product.IsVariable() {
			return nil, errors.Inputf("%s is a variable product; add one of its variants", sku)
		}

		res, err := r.Resolve(ctx, types.PricingRequest{Product: item.Product, Tier: tier, Quantity: item.Quantity})
		if err != nil {
			return nil, fmt.Errorf("line %s: %w", sku, err)
		}

		total := res.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		quote.Lines = append(quote.Lines, QuotedLine{
			SKU:       sku,
			Quantity:  item.Quantity,
			Price:     res,
			LineTotal: total,
		})
		quote.Subtotal = quote.Subtotal.Add(total)
	}
	return quote, nil
}

// PurchasableProduct loads a product that can be priced on its own. Variants
// come back as VariantView; variable parents are rejected.
func PurchasableProduct(ctx context.Context, products ProductSource, sku string) (*types.Product, error) {
	product, err := products.Product(ctx, sku)
	if err != nil {
		return nil, err
	}
	if product.IsVariable() {
		return nil, errors.Inputf("%s is a variable product; add one of its variants", sku)
	}
	if product.ParentSKU == "" {
		return product, nil
	}

	parent, err := products.Product(ctx, product.ParentSKU)
	if err != nil {
		return nil, err
	}
	v := VariantView(*parent, *product)
	return &v, nil
}
