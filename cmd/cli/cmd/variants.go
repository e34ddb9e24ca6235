// Package cmd - variants command
package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var variantsTier string

// variantsCmd resolves the price range of a variable product
var variantsCmd = &cobra.Command{
	Use:   "variants <sku>",
	Short: "Resolve every variant of a product and show the price range",
	Args:  cobra.ExactArgs(1),
	RunE:  runVariants,
}

func init() {
	variantsCmd.Flags().StringVarP(&variantsTier, "tier", "t", "", "customer tier (bronze, silver, gold); empty is retail")
	rootCmd.AddCommand(variantsCmd)
}

func runVariants(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	f, err := formatter()
	if err != nil {
		return err
	}
	tier, err := lookupTier(variantsTier)
	if err != nil {
		return err
	}

	store, err := openCatalog(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	product, err := store.Product(ctx, args[0])
	if err != nil {
		return err
	}

	pr, err := newResolver(store).ResolveVariants(ctx, *product, tier, 1)
	if err != nil {
		return err
	}
	return f.RenderRange(cmd.OutOrStdout(), pr)
}
