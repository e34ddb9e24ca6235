package output

import (
	"encoding/json"
	"io"

	"wholesale-pricing/core/pricing"
	"wholesale-pricing/core/types"
)

// JSONFormatter renders indented JSON; decimals keep full precision
type JSONFormatter struct{}

func (f *JSONFormatter) Format() Format { return FormatJSON }

func (f *JSONFormatter) RenderPrice(w io.Writer, r *PriceReport) error {
	return encode(w, r)
}

func (f *JSONFormatter) RenderRange(w io.Writer, pr pricing.PriceRange) error {
	return encode(w, pr)
}

func (f *JSONFormatter) RenderQuote(w io.Writer, r *QuoteReport) error {
	return encode(w, r)
}

func (f *JSONFormatter) RenderProducts(w io.Writer, products []types.Product) error {
	if products == nil {
		products = []types.Product{}
	}
	return encode(w, products)
}

func encode(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
