// Package cmd provides the CLI commands for wholesale-pricing.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wholesale-pricing/adapters/storage"
	"wholesale-pricing/core/catalog"
	"wholesale-pricing/core/output"
	"wholesale-pricing/core/pricing"
	"wholesale-pricing/core/types"
	"wholesale-pricing/internal/config"
	"wholesale-pricing/internal/logging"
)

// Version is the CLI version
const Version = "0.1.0"

var (
	cfgFile      string
	verbose      bool
	outputFormat string
	catalogPath  string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "wholesale-pricing",
	Short: "Resolve wholesale tier prices for a product catalog",
	Long: `wholesale-pricing resolves the unit price a customer pays based on
their wholesale tier, per-product fixed prices and quantity discounts.

Examples:
  wholesale-pricing resolve widget --tier gold
  wholesale-pricing resolve widget --tier bronze --qty 12
  wholesale-pricing variants tee --tier silver
  wholesale-pricing quote --tier gold widget:12 tee-s:5
  wholesale-pricing serve --addr :8080`,
	SilenceUsage: true,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file, .json or .yaml (default is built-in defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "text", "output format (text, json, markdown)")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "catalog file, overrides catalog.path and selects the file backend")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

func initConfig() {
	if cfgFile != "" {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		config.Set(cfg)
	}

	// Initialize logging
	cfg := config.Get()
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "wholesale-pricing version %s\n", Version)
	},
}

// openCatalog opens the configured catalog, honouring --catalog
func openCatalog(ctx context.Context) (catalog.Store, error) {
	cc := config.Get().Catalog
	if catalogPath != "" {
		cc.Backend = string(storage.BackendFile)
		cc.Path = catalogPath
	}
	return storage.OpenCatalog(ctx, cc)
}

// newResolver builds a resolver that falls back to the catalog for fixed prices
func newResolver(store catalog.Store) *pricing.Resolver {
	return pricing.NewResolver(
		pricing.WithFixedPriceSource(store),
		pricing.WithLogger(logging.Named("pricing")),
	)
}

// lookupTier resolves a --tier flag against the configured tiers.
// Retail and unknown tiers return nil.
func lookupTier(raw string) (*types.Tier, error) {
	id, ok := types.ParseTierID(raw)
	if !ok {
		return nil, fmt.Errorf("unknown tier %q (want bronze, silver, gold or retail)", raw)
	}
	return config.Get().TierTable().Lookup(id), nil
}

// formatter returns the --format renderer using the store's money settings
func formatter() (output.Formatter, error) {
	return output.New(outputFormat, config.Get().StoreSettings())
}
