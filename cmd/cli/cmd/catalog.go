// Package cmd - catalog commands
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"wholesale-pricing/adapters/catalogfile"
	"wholesale-pricing/adapters/postgres"
	"wholesale-pricing/adapters/storage"
	"wholesale-pricing/internal/config"
)

var catalogDatabaseURL string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and load product catalogs",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the products of the configured catalog",
	Args:  cobra.NoArgs,
	RunE:  runCatalogList,
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Parse and validate a catalog file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := catalogfile.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d products OK\n", args[0], store.Len())
		return nil
	},
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Copy a catalog file into the Postgres catalog",
	Long: `Load a catalog file and write every product into Postgres, creating
the tables if needed. Existing products with the same SKU are replaced.

The database is taken from --database-url, DATABASE_URL or catalog.database_url.`,
	Args: cobra.ExactArgs(1),
	RunE: runCatalogImport,
}

func init() {
	catalogImportCmd.Flags().StringVar(&catalogDatabaseURL, "database-url", "", "postgres connection url")

	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogValidateCmd)
	catalogCmd.AddCommand(catalogImportCmd)
	rootCmd.AddCommand(catalogCmd)
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	store, err := openCatalog(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	products, err := store.Products(ctx)
	if err != nil {
		return err
	}

	f, err := formatter()
	if err != nil {
		return err
	}
	return f.RenderProducts(cmd.OutOrStdout(), products)
}

func runCatalogImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	source, err := catalogfile.Load(args[0])
	if err != nil {
		return err
	}
	products, err := source.Products(ctx)
	if err != nil {
		return err
	}

	cc := config.Get().Catalog
	cc.Backend = string(storage.BackendPostgres)
	if catalogDatabaseURL != "" {
		cc.DatabaseURL = catalogDatabaseURL
	}
	opened, err := storage.OpenCatalog(ctx, cc)
	if err != nil {
		return err
	}
	db, ok := opened.(*postgres.Store)
	if !ok {
		opened.Close()
		return fmt.Errorf("catalog import needs the postgres backend")
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}
	for _, p := range products {
		if err := db.Put(ctx, p); err != nil {
			return err
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d products\n", len(products))
	return nil
}
