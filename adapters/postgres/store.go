// Package postgres - PostgreSQL catalog store
// Reads wholesale products and per-tier fixed prices from two tables.
package postgres

import (
	"context"
	"database/sql"
	"sort"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"wholesale-pricing/core/catalog"
	"wholesale-pricing/core/types"
	"wholesale-pricing/internal/errors"
	"wholesale-pricing/internal/logging"
)

// Schema creates the catalog tables
const Schema = `
CREATE TABLE IF NOT EXISTS wholesale_products (
	sku            TEXT PRIMARY KEY,
	parent_sku     TEXT REFERENCES wholesale_products(sku) ON DELETE CASCADE,
	name           TEXT NOT NULL DEFAULT '',
	base_price     NUMERIC(18, 6) NOT NULL CHECK (base_price >= 0),
	wholesale_only BOOLEAN NOT NULL DEFAULT FALSE,
	tier_min_qty   INTEGER,
	tier_discount  NUMERIC(9, 4)
);

CREATE TABLE IF NOT EXISTS wholesale_fixed_prices (
	sku   TEXT NOT NULL REFERENCES wholesale_products(sku) ON DELETE CASCADE,
	tier  TEXT NOT NULL,
	price TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (sku, tier)
);
`

const productColumns = "sku, parent_sku, name, base_price, wholesale_only, tier_min_qty, tier_discount"

// Store is a catalog.Store backed by PostgreSQL
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ catalog.Store = (*Store)(nil)

// New wraps an open database handle
func New(db *sql.DB) *Store {
	return &Store{db: db, logger: logging.Named("postgres")}
}

// Open connects using a postgres:// URL and verifies the connection
func Open(ctx context.Context, url string) (*Store, error) {
	if url == "" {
		return nil, errors.New(errors.TypeConfig, "database url is empty")
	}
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, errors.Storage("open postgres", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Storage("ping postgres", err)
	}
	return New(db), nil
}

// EnsureSchema creates the catalog tables if they do not exist
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return errors.Storage("create schema", err)
	}
	return nil
}

// Product returns a product or variant by SKU. Top-level products carry
// their variants.
func (s *Store) Product(ctx context.Context, sku string) (*types.Product, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM wholesale_products WHERE sku = $1", sku)

	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("product", sku)
	}
	if err != nil {
		return nil, errors.Storage("get product "+sku, err)
	}

	if p.ParentSKU == "" {
		rows, err := s.db.QueryContext(ctx,
			"SELECT "+productColumns+" FROM wholesale_products WHERE parent_sku = $1 ORDER BY sku", sku)
		if err != nil {
			return nil, errors.Storage("list variants of "+sku, err)
		}
		p.Variants, err = scanProducts(rows)
		if err != nil {
			return nil, errors.Storage("list variants of "+sku, err)
		}
	}

	skus := []string{p.SKU}
	for _, v := range p.Variants {
		skus = append(skus, v.SKU)
	}
	prices, err := s.fixedPrices(ctx,
		"SELECT sku, tier, price FROM wholesale_fixed_prices WHERE sku = ANY($1)", pq.Array(skus))
	if err != nil {
		return nil, err
	}

	p.FixedPrices = prices[p.SKU]
	p.FixedPricesLoaded = true
	for i := range p.Variants {
		p.Variants[i].FixedPrices = prices[p.Variants[i].SKU]
		p.Variants[i].FixedPricesLoaded = true
	}
	return &p, nil
}

// Products returns every top-level product with its variants, ordered by SKU
func (s *Store) Products(ctx context.Context) ([]types.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM wholesale_products ORDER BY sku")
	if err != nil {
		return nil, errors.Storage("list products", err)
	}
	all, err := scanProducts(rows)
	if err != nil {
		return nil, errors.Storage("list products", err)
	}

	prices, err := s.fixedPrices(ctx, "SELECT sku, tier, price FROM wholesale_fixed_prices")
	if err != nil {
		return nil, err
	}

	children := make(map[string][]types.Product)
	var top []types.Product
	for _, p := range all {
		p.FixedPrices = prices[p.SKU]
		p.FixedPricesLoaded = true
		if p.ParentSKU != "" {
			children[p.ParentSKU] = append(children[p.ParentSKU], p)
			continue
		}
		top = append(top, p)
	}
	for i := range top {
		top[i].Variants = children[top[i].SKU]
	}
	sort.Slice(top, func(i, j int) bool { return top[i].SKU < top[j].SKU })
	return top, nil
}

// FixedPrice returns the raw stored price, or "" when the row is missing
func (s *Store) FixedPrice(ctx context.Context, sku string, tier types.TierID) (string, error) {
	var price string
	err := s.db.QueryRowContext(ctx,
		"SELECT price FROM wholesale_fixed_prices WHERE sku = $1 AND tier = $2",
		sku, string(tier)).Scan(&price)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", errors.Storage("get fixed price", err).
			WithContext("sku", sku).
			WithContext("tier", string(tier))
	}
	return price, nil
}

// Put writes a product, its variants and fixed prices in one transaction,
// replacing whatever was stored for that SKU.
func (s *Store) Put(ctx context.Context, product types.Product) error {
	if errs := catalog.Validate(&product, catalog.DefaultValidationRules()); len(errs) > 0 {
		return errors.Wrap(errors.TypeInput, "invalid product "+product.SKU, errs[0])
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Storage("begin", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM wholesale_products WHERE parent_sku = $1", product.SKU); err != nil {
		return errors.Storage("delete variants of "+product.SKU, err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM wholesale_fixed_prices WHERE sku = $1", product.SKU); err != nil {
		return errors.Storage("delete fixed prices of "+product.SKU, err)
	}

	if err := upsertProduct(ctx, tx, product, ""); err != nil {
		return err
	}
	for _, v := range product.Variants {
		if err := upsertProduct(ctx, tx, v, product.SKU); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Storage("commit product "+product.SKU, err)
	}
	s.logger.Debug("product stored",
		zap.String("sku", product.SKU),
		zap.Int("variants", len(product.Variants)))
	return nil
}

// Close closes the database handle
func (s *Store) Close() error {
	return s.db.Close()
}

func upsertProduct(ctx context.Context, tx *sql.Tx, p types.Product, parent string) error {
	var (
		minQty   sql.NullInt64
		discount decimal.NullDecimal
	)
	if p.TierRule != nil {
		minQty = sql.NullInt64{Int64: int64(p.TierRule.MinQuantity), Valid: true}
		discount = decimal.NewNullDecimal(p.TierRule.DiscountPercent)
	}

	// The update only fires for a row with the same parent, so a SKU owned
	// by another product is never reparented.
	res, err := tx.ExecContext(ctx, `
		INSERT INTO wholesale_products (sku, parent_sku, name, base_price, wholesale_only, tier_min_qty, tier_discount)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (sku) DO UPDATE SET
			name = EXCLUDED.name,
			base_price = EXCLUDED.base_price,
			wholesale_only = EXCLUDED.wholesale_only,
			tier_min_qty = EXCLUDED.tier_min_qty,
			tier_discount = EXCLUDED.tier_discount
		WHERE wholesale_products.parent_sku IS NOT DISTINCT FROM EXCLUDED.parent_sku`,
		p.SKU, sql.NullString{String: parent, Valid: parent != ""}, p.Name,
		p.BasePrice, p.WholesaleOnly, minQty, discount)
	if err != nil {
		return errors.Storage("upsert product "+p.SKU, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Storage("upsert product "+p.SKU, err)
	}
	if n == 0 {
		return errors.Inputf("sku %s already belongs to another product", p.SKU)
	}

	for _, tier := range types.KnownTiers() {
		price, ok := p.FixedPrices[tier]
		if !ok {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO wholesale_fixed_prices (sku, tier, price) VALUES ($1, $2, $3)",
			p.SKU, string(tier), price); err != nil {
			return errors.Storage("insert fixed price for "+p.SKU, err)
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row scanner) (types.Product, error) {
	var (
		p        types.Product
		parent   sql.NullString
		minQty   sql.NullInt64
		discount decimal.NullDecimal
	)
	if err := row.Scan(&p.SKU, &parent, &p.Name, &p.BasePrice, &p.WholesaleOnly, &minQty, &discount); err != nil {
		return types.Product{}, err
	}
	p.ParentSKU = parent.String
	if minQty.Valid && discount.Valid {
		p.TierRule = &types.TierRule{
			MinQuantity:     int(minQty.Int64),
			DiscountPercent: discount.Decimal,
		}
	}
	return p, nil
}

func scanProducts(rows *sql.Rows) ([]types.Product, error) {
	defer rows.Close()
	var out []types.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// fixedPrices loads price rows grouped by SKU. Rows for unknown tiers are skipped.
func (s *Store) fixedPrices(ctx context.Context, query string, args ...interface{}) (map[string]map[types.TierID]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Storage("list fixed prices", err)
	}
	defer rows.Close()

	out := make(map[string]map[types.TierID]string)
	for rows.Next() {
		var sku, tier, price string
		if err := rows.Scan(&sku, &tier, &price); err != nil {
			return nil, errors.Storage("scan fixed price", err)
		}
		id, ok := types.ParseTierID(tier)
		if !ok || id == "" {
			s.logger.Debug("skipping fixed price for unknown tier",
				zap.String("sku", sku), zap.String("tier", tier))
			continue
		}
		if out[sku] == nil {
			out[sku] = make(map[types.TierID]string)
		}
		out[sku][id] = price
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Storage("list fixed prices", err)
	}
	return out, nil
}
