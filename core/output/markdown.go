package output

import (
	"fmt"
	"io"

	"wholesale-pricing/core/policy"
	"wholesale-pricing/core/pricing"
	"wholesale-pricing/core/types"
)

// MarkdownFormatter renders markdown tables
type MarkdownFormatter struct {
	Settings policy.Settings
}

func (f *MarkdownFormatter) Format() Format { return FormatMarkdown }

func (f *MarkdownFormatter) RenderPrice(w io.Writer, r *PriceReport) error {
	p := r.Price
	fmt.Fprintf(w, "### %s\n\n", p.SKU)
	fmt.Fprintln(w, "| Tier | Quantity | Unit price | Basis |")
	fmt.Fprintln(w, "|---|---:|---:|---|")
	fmt.Fprintf(w, "| %s | %d | %s | %s |\n", tierLabel(p.Tier), r.Quantity, f.Settings.FormatMoney(p.UnitPrice), p.Basis)
	if r.Offer != nil {
		fmt.Fprintf(w, "\nBuy %d or more for %s each (%s%% off).\n",
			r.Offer.MinQuantity, f.Settings.FormatMoney(r.Offer.UnitPrice), r.Offer.DiscountPercent)
	}
	return nil
}

func (f *MarkdownFormatter) RenderRange(w io.Writer, pr pricing.PriceRange) error {
	fmt.Fprintf(w, "### %s (%s)\n\n", pr.SKU, pr.Tier)
	fmt.Fprintln(w, "| Variant | Unit price | Basis |")
	fmt.Fprintln(w, "|---|---:|---|")
	for _, v := range pr.Variants {
		fmt.Fprintf(w, "| %s | %s | %s |\n", v.SKU, f.Settings.FormatMoney(v.UnitPrice), v.Basis)
	}
	return nil
}

func (f *MarkdownFormatter) RenderQuote(w io.Writer, r *QuoteReport) error {
	q := r.Quote
	fmt.Fprintf(w, "### Quote %s (%s)\n\n", q.ID, q.Tier)
	fmt.Fprintln(w, "| SKU | Qty | Unit price | Line total |")
	fmt.Fprintln(w, "|---|---:|---:|---:|")
	for _, l := range q.Lines {
		fmt.Fprintf(w, "| %s | %d | %s | %s |\n", l.SKU, l.Quantity,
			f.Settings.FormatMoney(l.Price.UnitPrice), f.Settings.FormatMoney(l.LineTotal))
	}
	fmt.Fprintf(w, "| **Subtotal** | | | **%s** |\n", f.Settings.FormatMoney(q.Subtotal))
	if r.Policy != nil && r.Policy.Blocked {
		fmt.Fprintf(w, "\n> %s\n", r.Policy.BlockReason)
	}
	return nil
}

func (f *MarkdownFormatter) RenderProducts(w io.Writer, products []types.Product) error {
	fmt.Fprintln(w, "| SKU | Base price | Variants |")
	fmt.Fprintln(w, "|---|---:|---:|")
	for _, p := range products {
		fmt.Fprintf(w, "| %s | %s | %d |\n", p.SKU, f.Settings.FormatMoney(p.BasePrice), len(p.Variants))
	}
	return nil
}
