// Package api - API types for wholesale pricing
// Money values are serialised as decimal strings.
package api

import (
	"wholesale-pricing/core/policy"
)

// CustomerInput identifies the shopper a request prices for
type CustomerInput struct {
	// ID is an opaque customer identifier
	ID string `json:"id,omitempty"`

	// Tier is the wholesale tier ("bronze", "wh_gold", ...). Empty or
	// unknown means retail.
	Tier string `json:"tier,omitempty"`

	// Authenticated is true for logged-in customers. Wholesale customers
	// are always treated as logged in.
	Authenticated bool `json:"authenticated,omitempty"`
}

// ResolveRequest is the input to POST /v1/prices/resolve
type ResolveRequest struct {
	SKU      string        `json:"sku"`
	Customer CustomerInput `json:"customer"`
	Quantity int           `json:"quantity,omitempty"`
}

// VariantsRequest is the input to POST /v1/prices/variants
type VariantsRequest struct {
	SKU      string        `json:"sku"`
	Customer CustomerInput `json:"customer"`
}

// QuoteRequest is the input to POST /v1/cart/quote
type QuoteRequest struct {
	Customer CustomerInput `json:"customer"`
	Lines    []LineInput   `json:"lines"`
	Coupons  []string      `json:"coupons,omitempty"`
}

// LineInput is one cart line
type LineInput struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

// PriceView is a resolved unit price
type PriceView struct {
	SKU                 string `json:"sku"`
	UnitPrice           string `json:"unit_price"`
	Basis               string `json:"basis"`
	TierDiscountApplied bool   `json:"tier_discount_applied"`
	Tier                string `json:"tier"`
}

// OfferView is the quantity discount shown next to a price
type OfferView struct {
	MinQuantity     int    `json:"min_quantity"`
	DiscountPercent string `json:"discount_percent"`
	RegularPrice    string `json:"regular_price"`
	UnitPrice       string `json:"unit_price"`
}

// ResolveResponse is the output of price resolution
type ResolveResponse struct {
	RequestID string     `json:"request_id"`
	Quantity  int        `json:"quantity"`
	Price     PriceView  `json:"price"`
	Offer     *OfferView `json:"offer,omitempty"`
}

// VariantsResponse is the output of POST /v1/prices/variants
type VariantsResponse struct {
	RequestID string      `json:"request_id"`
	SKU       string      `json:"sku"`
	Tier      string      `json:"tier"`
	Min       string      `json:"min"`
	Max       string      `json:"max"`
	Variants  []PriceView `json:"variants"`
}

// QuoteLineView is a repriced cart line
type QuoteLineView struct {
	SKU       string    `json:"sku"`
	Quantity  int       `json:"quantity"`
	Price     PriceView `json:"price"`
	LineTotal string    `json:"line_total"`
}

// QuoteResponse is the output of POST /v1/cart/quote
type QuoteResponse struct {
	RequestID string                   `json:"request_id"`
	QuoteID   string                   `json:"quote_id"`
	Tier      string                   `json:"tier"`
	Lines     []QuoteLineView          `json:"lines"`
	Subtotal  string                   `json:"subtotal"`
	Currency  string                   `json:"currency,omitempty"`
	Policy    *policy.EvaluationResult `json:"policy"`
}

// ProductView is a catalog entry as listed to a customer
type ProductView struct {
	SKU           string   `json:"sku"`
	Name          string   `json:"name,omitempty"`
	Variable      bool     `json:"variable"`
	WholesaleOnly bool     `json:"wholesale_only,omitempty"`
	Variants      []string `json:"variants,omitempty"`
}

// ProductsResponse is the output of GET /v1/products
type ProductsResponse struct {
	RequestID string        `json:"request_id"`
	Products  []ProductView `json:"products"`
	Count     int           `json:"count"`
}

// ErrorResponse wraps an error
type ErrorResponse struct {
	RequestID string      `json:"request_id,omitempty"`
	Error     ErrorDetail `json:"error"`
}

// ErrorDetail describes an error
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
