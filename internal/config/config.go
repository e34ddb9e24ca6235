// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"wholesale-pricing/core/policy"
	"wholesale-pricing/core/pricing"
	"wholesale-pricing/core/pricing/primitives"
	"wholesale-pricing/core/types"
	"wholesale-pricing/internal/errors"
	"wholesale-pricing/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version" yaml:"version"`

	// Pricing contains pricing configuration
	Pricing PricingConfig `json:"pricing" yaml:"pricing"`

	// Tiers configures each wholesale tier, keyed by tier id
	Tiers map[types.TierID]TierConfig `json:"tiers" yaml:"tiers"`

	// Store contains storefront rules
	Store StoreConfig `json:"store" yaml:"store"`

	// Catalog selects the catalog backend
	Catalog CatalogConfig `json:"catalog" yaml:"catalog"`

	// Quotes selects where quotes are recorded
	Quotes QuotesConfig `json:"quotes" yaml:"quotes"`

	// Server contains HTTP server settings
	Server ServerConfig `json:"server" yaml:"server"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging" yaml:"logging"`
}

// PricingConfig contains pricing-related settings
type PricingConfig struct {
	// Currency is the display currency
	Currency string `json:"currency" yaml:"currency"`

	// Decimals is the number of display decimals
	Decimals int32 `json:"decimals" yaml:"decimals"`

	// RangeCacheSize bounds the variant range cache
	RangeCacheSize int `json:"range_cache_size" yaml:"range_cache_size"`

	// RangeCacheTTLSeconds is how long to cache variant ranges
	RangeCacheTTLSeconds int `json:"range_cache_ttl_seconds" yaml:"range_cache_ttl_seconds"`
}

// TierConfig configures one tier. Discount is a percentage string so that
// YAML and JSON files can carry values like "12.5".
type TierConfig struct {
	// Label is the display name
	Label string `json:"label" yaml:"label"`

	// Discount is the tier-wide discount percentage
	Discount string `json:"discount" yaml:"discount"`
}

// StoreConfig contains storefront rules
type StoreConfig struct {
	// PrivateStore hides prices and purchasing from guests
	PrivateStore bool `json:"private_store" yaml:"private_store"`

	// MinCartValue is the minimum wholesale order subtotal (0 disables)
	MinCartValue string `json:"min_cart_value" yaml:"min_cart_value"`

	// DisableCoupons blocks coupons for wholesale customers
	DisableCoupons bool `json:"disable_coupons" yaml:"disable_coupons"`
}

// CatalogConfig selects the catalog backend
type CatalogConfig struct {
	// Backend is "file" or "postgres"
	Backend string `json:"backend" yaml:"backend"`

	// Path is the catalog file (.hcl, .yaml, .json) for the file backend
	Path string `json:"path" yaml:"path"`

	// DatabaseURL is the Postgres DSN; DATABASE_URL overrides it
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty"`
}

// QuotesConfig selects the quote history backend
type QuotesConfig struct {
	// Backend is "memory" or "file"
	Backend string `json:"backend" yaml:"backend"`

	// Path is the quote directory for the file backend
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	// Addr is the listen address
	Addr string `json:"addr" yaml:"addr"`

	// RateLimit is requests per second per client IP; 0 disables limiting
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit"`

	// RateBurst is the per-client burst size
	RateBurst int `json:"rate_burst" yaml:"rate_burst"`
}

// Default returns a default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Version: "1.0",
		Pricing: PricingConfig{
			Currency:             "USD",
			Decimals:             2,
			RangeCacheSize:       4096,
			RangeCacheTTLSeconds: 600,
		},
		Tiers: map[types.TierID]TierConfig{
			types.TierBronze: {Label: "Bronze Wholesale", Discount: "0"},
			types.TierSilver: {Label: "Silver Wholesale", Discount: "0"},
			types.TierGold:   {Label: "Gold Wholesale", Discount: "0"},
		},
		Store: StoreConfig{
			PrivateStore:   false,
			MinCartValue:   "150.00",
			DisableCoupons: false,
		},
		Catalog: CatalogConfig{
			Backend: "file",
			Path:    filepath.Join(homeDir, ".wholesale-pricing", "catalog.hcl"),
		},
		Quotes: QuotesConfig{
			Backend: "memory",
		},
		Server: ServerConfig{
			Addr:      ":8080",
			RateLimit: 50,
			RateBurst: 100,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a JSON or YAML file.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, errors.Config("read config", err)
	}

	config := Default()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, errors.Config("parse "+path, err)
	}

	if err := config.Normalize(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Normalize validates tier ids, clamps tier discounts to [0, 100] and fills
// blank labels.
func (c *Config) Normalize() error {
	for id, tc := range c.Tiers {
		if !id.IsKnown() {
			return errors.Config("unknown tier "+string(id), nil)
		}
		tc.Discount = primitives.ParsePercent(tc.Discount).String()
		if tc.Label == "" {
			tc.Label = string(id)
		}
		c.Tiers[id] = tc
	}

	if c.Store.MinCartValue != "" {
		if _, err := decimal.NewFromString(strings.TrimSpace(c.Store.MinCartValue)); err != nil {
			return errors.Config("store.min_cart_value is not numeric", err)
		}
	}
	if c.Pricing.Decimals < 0 {
		c.Pricing.Decimals = 0
	}
	return nil
}

// TierTable builds the resolver's tier inputs
func (c *Config) TierTable() types.TierTable {
	table := make(types.TierTable, len(c.Tiers))
	for id, tc := range c.Tiers {
		table[id] = types.Tier{
			ID:              id,
			Label:           tc.Label,
			DiscountPercent: primitives.ParsePercent(tc.Discount),
		}
	}
	return table
}

// StoreSettings builds the storefront policy settings
func (c *Config) StoreSettings() policy.Settings {
	minCart, err := decimal.NewFromString(strings.TrimSpace(c.Store.MinCartValue))
	if err != nil {
		minCart = decimal.Zero
	}
	return policy.Settings{
		PrivateStore:   c.Store.PrivateStore,
		MinCartValue:   minCart,
		DisableCoupons: c.Store.DisableCoupons,
		Currency:       c.Pricing.Currency,
		Decimals:       c.Pricing.Decimals,
	}
}

// CachePolicy builds the variant range cache policy
func (c *Config) CachePolicy() *pricing.CachePolicy {
	policy := pricing.DefaultCachePolicy()
	if c.Pricing.RangeCacheSize > 0 {
		policy.MaxEntries = c.Pricing.RangeCacheSize
	}
	if c.Pricing.RangeCacheTTLSeconds > 0 {
		policy.TTL = time.Duration(c.Pricing.RangeCacheTTLSeconds) * time.Second
	}
	return policy
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
