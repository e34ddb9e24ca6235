// Package cmd - resolve command
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"wholesale-pricing/core/output"
	"wholesale-pricing/core/pricing"
	"wholesale-pricing/core/types"
)

var (
	resolveTier     string
	resolveQuantity int
)

// resolveCmd resolves a single unit price
var resolveCmd = &cobra.Command{
	Use:   "resolve <sku>",
	Short: "Resolve the unit price of a product for a tier",
	Long: `Resolve the unit price a customer of the given tier pays for one product
or variant at the given quantity.

Examples:
  wholesale-pricing resolve widget
  wholesale-pricing resolve widget --tier gold
  wholesale-pricing resolve tee-s --tier bronze --qty 24 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringVarP(&resolveTier, "tier", "t", "", "customer tier (bronze, silver, gold); empty is retail")
	resolveCmd.Flags().IntVarP(&resolveQuantity, "qty", "q", 1, "quantity")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	f, err := formatter()
	if err != nil {
		return err
	}
	tier, err := lookupTier(resolveTier)
	if err != nil {
		return err
	}

	store, err := openCatalog(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	product, err := pricing.PurchasableProduct(ctx, store, args[0])
	if err != nil {
		return err
	}

	resolver := newResolver(store)
	res, err := resolver.Resolve(ctx, types.PricingRequest{Product: *product, Tier: tier, Quantity: resolveQuantity})
	if err != nil {
		return err
	}
	offer, err := resolver.Offer(ctx, *product, tier)
	if err != nil {
		return err
	}

	return f.RenderPrice(cmd.OutOrStdout(), &output.PriceReport{
		Quantity: types.PricingRequest{Quantity: resolveQuantity}.EffectiveQuantity(),
		Price:    res,
		Offer:    offer,
	})
}
