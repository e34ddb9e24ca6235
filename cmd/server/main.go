// Package main - Entry point for the wholesale pricing server
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"wholesale-pricing/adapters/storage"
	"wholesale-pricing/api"
	"wholesale-pricing/internal/config"
	"wholesale-pricing/internal/logging"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "Config file (.json or .yaml)")
	addr := flag.String("addr", "", "Server address (default server.addr)")
	catalogPath := flag.String("catalog", "", "Catalog file, overrides catalog.path")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatal(err)
		}
		cfg = loaded
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *catalogPath != "" {
		cfg.Catalog.Backend = string(storage.BackendFile)
		cfg.Catalog.Path = *catalogPath
	}

	if err := logging.Initialize(cfg.Logging); err != nil {
		log.Fatal(err)
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.OpenCatalog(ctx, cfg.Catalog)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	quotes, err := storage.OpenQuotes(cfg.Quotes)
	if err != nil {
		log.Fatal(err)
	}
	defer quotes.Close()

	server := api.NewServer(api.Options{
		Version:     version,
		Catalog:     store,
		Quotes:      quotes,
		Tiers:       cfg.TierTable(),
		Settings:    cfg.StoreSettings(),
		CachePolicy: cfg.CachePolicy(),
		RateLimit:   cfg.Server.RateLimit,
		RateBurst:   cfg.Server.RateBurst,
		Logger:      logging.Named("api"),
	})

	fmt.Printf("Wholesale Pricing Server v%s\n", version)
	fmt.Printf("   API: http://localhost%s/v1\n", cfg.Server.Addr)
	fmt.Println()

	if err := server.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
		log.Fatal(err)
	}
}
