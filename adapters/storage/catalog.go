package storage

import (
	"context"
	"os"

	"wholesale-pricing/adapters/catalogfile"
	"wholesale-pricing/adapters/postgres"
	"wholesale-pricing/core/catalog"
	"wholesale-pricing/internal/config"
	"wholesale-pricing/internal/errors"
)

// OpenCatalog opens the configured catalog backend.
// DATABASE_URL overrides catalog.database_url.
func OpenCatalog(ctx context.Context, cfg config.CatalogConfig) (catalog.Store, error) {
	switch Backend(cfg.Backend) {
	case BackendFile, "":
		if cfg.Path == "" {
			return nil, errors.New(errors.TypeConfig, "catalog.path is required for the file backend")
		}
		return catalogfile.Load(cfg.Path)
	case BackendPostgres:
		url := os.Getenv("DATABASE_URL")
		if url == "" {
			url = cfg.DatabaseURL
		}
		return postgres.Open(ctx, url)
	case BackendMemory:
		return catalog.NewMemoryStore(), nil
	default:
		return nil, errors.Newf(errors.TypeConfig, "unsupported catalog backend: %s", cfg.Backend)
	}
}

// OpenQuotes opens the configured quote history backend
func OpenQuotes(cfg config.QuotesConfig) (QuoteStore, error) {
	return StoreFactory(Backend(cfg.Backend), map[string]string{"path": cfg.Path})
}
