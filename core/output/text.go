package output

import (
	"fmt"
	"io"

	"wholesale-pricing/core/policy"
	"wholesale-pricing/core/pricing"
	"wholesale-pricing/core/types"
)

// TextFormatter renders plain terminal output
type TextFormatter struct {
	Settings policy.Settings
}

func (f *TextFormatter) Format() Format { return FormatText }

func (f *TextFormatter) RenderPrice(w io.Writer, r *PriceReport) error {
	p := r.Price
	fmt.Fprintf(w, "%s (%s, qty %d): %s [%s]\n",
		p.SKU, tierLabel(p.Tier), r.Quantity, f.Settings.FormatMoney(p.UnitPrice), p.Basis)
	if p.TierDiscountApplied {
		fmt.Fprintln(w, "  quantity discount applied")
	}
	if r.Offer != nil {
		fmt.Fprintf(w, "  buy %d or more: %s each (%s%% off)\n",
			r.Offer.MinQuantity, f.Settings.FormatMoney(r.Offer.UnitPrice), r.Offer.DiscountPercent)
	}
	return nil
}

func (f *TextFormatter) RenderRange(w io.Writer, pr pricing.PriceRange) error {
	if pr.IsSingle() {
		fmt.Fprintf(w, "%s (%s): %s\n", pr.SKU, pr.Tier, f.Settings.FormatMoney(pr.Min))
	} else {
		fmt.Fprintf(w, "%s (%s): %s - %s\n", pr.SKU, pr.Tier,
			f.Settings.FormatMoney(pr.Min), f.Settings.FormatMoney(pr.Max))
	}
	for _, v := range pr.Variants {
		fmt.Fprintf(w, "  %-24s %16s  %s\n", v.SKU, f.Settings.FormatMoney(v.UnitPrice), v.Basis)
	}
	return nil
}

func (f *TextFormatter) RenderQuote(w io.Writer, r *QuoteReport) error {
	q := r.Quote
	fmt.Fprintf(w, "Quote %s (%s)\n", q.ID, q.Tier)
	for _, l := range q.Lines {
		fmt.Fprintf(w, "  %-24s %4d x %14s = %16s  %s\n",
			l.SKU, l.Quantity, f.Settings.FormatMoney(l.Price.UnitPrice),
			f.Settings.FormatMoney(l.LineTotal), l.Price.Basis)
	}
	fmt.Fprintf(w, "  %-24s %40s\n", "SUBTOTAL", f.Settings.FormatMoney(q.Subtotal))
	if r.Policy != nil && r.Policy.Blocked {
		fmt.Fprintf(w, "\nCheckout blocked: %s\n", r.Policy.BlockReason)
	}
	return nil
}

func (f *TextFormatter) RenderProducts(w io.Writer, products []types.Product) error {
	for _, p := range products {
		flags := ""
		if p.WholesaleOnly {
			flags = " (wholesale only)"
		}
		fmt.Fprintf(w, "%-24s %16s%s\n", p.SKU, f.Settings.FormatMoney(p.BasePrice), flags)
		for _, v := range p.Variants {
			fmt.Fprintf(w, "  %-22s %16s\n", v.SKU, f.Settings.FormatMoney(v.BasePrice))
		}
	}
	return nil
}
