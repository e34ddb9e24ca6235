// Package cmd - quote command
package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"wholesale-pricing/core/output"
	"wholesale-pricing/core/policy"
	"wholesale-pricing/core/pricing"
	"wholesale-pricing/core/types"
	"wholesale-pricing/internal/config"
)

var (
	quoteTier    string
	quoteCoupons []string
)

// quoteCmd reprices a cart
var quoteCmd = &cobra.Command{
	Use:   "quote <sku:qty>...",
	Short: "Price a cart and check the wholesale store rules",
	Long: `Price every cart line for a tier, total the cart and evaluate the
storefront rules (minimum order value, coupons).

Examples:
  wholesale-pricing quote --tier gold widget:12 tee-s:5
  wholesale-pricing quote --tier bronze --coupon SPRING widget:2`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuote,
}

func init() {
	quoteCmd.Flags().StringVarP(&quoteTier, "tier", "t", "", "customer tier (bronze, silver, gold); empty is retail")
	quoteCmd.Flags().StringSliceVar(&quoteCoupons, "coupon", nil, "coupon codes applied to the cart")
	rootCmd.AddCommand(quoteCmd)
}

func runQuote(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	f, err := formatter()
	if err != nil {
		return err
	}
	lines, err := parseLines(args)
	if err != nil {
		return err
	}

	tier, err := lookupTier(quoteTier)
	if err != nil {
		return err
	}

	store, err := openCatalog(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	quote, err := newResolver(store).QuoteCart(ctx, store, tier, lines)
	if err != nil {
		return err
	}

	customer := types.Customer{Authenticated: true}
	if tier != nil {
		customer.Tier = tier.ID
	}
	result := policy.NewEvaluator(config.Get().StoreSettings()).Evaluate(ctx, &policy.Cart{
		Customer: customer,
		Subtotal: quote.Subtotal,
		Coupons:  quoteCoupons,
	})

	return f.RenderQuote(cmd.OutOrStdout(), &output.QuoteReport{Quote: quote, Policy: result})
}

// parseLines reads "sku:qty" arguments; a bare sku means quantity 1
func parseLines(args []string) ([]pricing.CartLine, error) {
	lines := make([]pricing.CartLine, 0, len(args))
	for _, arg := range args {
		sku, rawQty, found := strings.Cut(arg, ":")
		if sku == "" {
			return nil, fmt.Errorf("invalid cart line %q: missing sku", arg)
		}
		qty := 1
		if found {
			n, err := strconv.Atoi(rawQty)
			if err != nil {
				return nil, fmt.Errorf("invalid cart line %q: quantity must be an integer", arg)
			}
			qty = n
		}
		lines = append(lines, pricing.CartLine{SKU: sku, Quantity: qty})
	}
	return lines, nil
}
