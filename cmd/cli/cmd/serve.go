// Package cmd - serve command
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"wholesale-pricing/adapters/storage"
	"wholesale-pricing/api"
	"wholesale-pricing/internal/config"
	"wholesale-pricing/internal/logging"
)

var serveAddr string

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the pricing HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer logging.Sync()

	cfg := config.Get()
	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	store, err := openCatalog(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	quotes, err := storage.OpenQuotes(cfg.Quotes)
	if err != nil {
		return err
	}
	defer quotes.Close()

	server := api.NewServer(api.Options{
		Version:     Version,
		Catalog:     store,
		Quotes:      quotes,
		Tiers:       cfg.TierTable(),
		Settings:    cfg.StoreSettings(),
		CachePolicy: cfg.CachePolicy(),
		RateLimit:   cfg.Server.RateLimit,
		RateBurst:   cfg.Server.RateBurst,
		Logger:      logging.Named("api"),
	})
	return server.ListenAndServe(ctx, addr)
}
