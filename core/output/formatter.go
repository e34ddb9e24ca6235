// Package output provides output formatting for prices, ranges and quotes.
// This package produces human and machine-readable outputs.
package output

import (
	"io"
	"sort"

	"wholesale-pricing/core/policy"
	"wholesale-pricing/core/pricing"
	"wholesale-pricing/core/types"
	"wholesale-pricing/internal/errors"
)

// Format represents output format type
type Format string

const (
	// FormatText is a human-readable table
	FormatText Format = "text"

	// FormatJSON is machine-readable JSON
	FormatJSON Format = "json"

	// FormatMarkdown is a markdown report, e.g. for pasting a quote
	FormatMarkdown Format = "markdown"
)

// Formatter produces output in a specific format
type Formatter interface {
	// Format returns the format type
	Format() Format

	// RenderPrice writes a single resolved price
	RenderPrice(w io.Writer, report *PriceReport) error

	// RenderRange writes a variant price range
	RenderRange(w io.Writer, pr pricing.PriceRange) error

	// RenderQuote writes a priced cart and its rule results
	RenderQuote(w io.Writer, report *QuoteReport) error

	// RenderProducts writes a catalog listing
	RenderProducts(w io.Writer, products []types.Product) error
}

// PriceReport is a resolved price with its quantity offer
type PriceReport struct {
	// Quantity the price was resolved at
	Quantity int `json:"quantity"`

	// Price is the resolver output
	Price types.PricingResult `json:"price"`

	// Offer is the quantity discount, if any
	Offer *pricing.QuantityOffer `json:"offer,omitempty"`
}

// QuoteReport is a priced cart with the store rule results
type QuoteReport struct {
	Quote  *pricing.Quote           `json:"quote"`
	Policy *policy.EvaluationResult `json:"policy"`
}

// Constructor builds a formatter for the store's money settings
type Constructor func(settings policy.Settings) Formatter

var registry = map[Format]Constructor{
	FormatText:     func(s policy.Settings) Formatter { return &TextFormatter{Settings: s} },
	FormatJSON:     func(s policy.Settings) Formatter { return &JSONFormatter{} },
	FormatMarkdown: func(s policy.Settings) Formatter { return &MarkdownFormatter{Settings: s} },
}

// New returns the formatter for a format name
func New(format string, settings policy.Settings) (Formatter, error) {
	ctor, ok := registry[Format(format)]
	if !ok {
		return nil, errors.Inputf("unknown output format %q (want %v)", format, Formats())
	}
	return ctor(settings), nil
}

// Formats lists the registered formats
func Formats() []Format {
	out := make([]Format, 0, len(registry))
	for f := range registry {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func tierLabel(id types.TierID) string {
	if id == "" {
		return types.RetailKey
	}
	return string(id)
}
