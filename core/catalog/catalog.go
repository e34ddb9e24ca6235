// Package catalog - Product catalog as seen by the pricing core
// The host platform owns products; a Store only reads them back.
package catalog

import (
	"context"
	"sort"
	"sync"

	"wholesale-pricing/core/types"
	"wholesale-pricing/internal/errors"
)

// Store provides read access to products
type Store interface {
	// Product returns a product or variant by SKU
	Product(ctx context.Context, sku string) (*types.Product, error)

	// Products returns every top-level product ordered by SKU
	Products(ctx context.Context) ([]types.Product, error)

	// FixedPrice returns the raw fixed price for a product and tier,
	// or "" when none is stored
	FixedPrice(ctx context.Context, sku string, tier types.TierID) (string, error)

	// Close releases backend resources
	Close() error
}

// MemoryStore is an in-memory Store
type MemoryStore struct {
	mu       sync.RWMutex
	products map[string]types.Product
	index    map[string]types.Product
	rules    []ValidationRule
}

// NewMemoryStore creates an empty store using the default validation rules
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[string]types.Product),
		index:    make(map[string]types.Product),
		rules:    DefaultValidationRules(),
	}
}

// Put validates and stores a product and its variants, replacing any
// previous entry with the same SKU. A SKU already indexed under another
// product is rejected.
func (s *MemoryStore) Put(product types.Product) error {
	if errs := Validate(&product, s.rules); len(errs) > 0 {
		return errors.Wrap(errors.TypeInput, "invalid product "+product.SKU, joinErrors(errs))
	}

	variants := make([]types.Product, len(product.Variants))
	copy(variants, product.Variants)
	for i := range variants {
		variants[i].ParentSKU = product.SKU
		variants[i].FixedPricesLoaded = true
	}
	product.Variants = variants
	product.FixedPricesLoaded = true

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOwnerLocked(product); err != nil {
		return err
	}
	s.removeLocked(product.SKU)
	s.products[product.SKU] = product
	s.index[product.SKU] = product
	for _, v := range product.Variants {
		s.index[v.SKU] = v
	}
	return nil
}

func (s *MemoryStore) checkOwnerLocked(product types.Product) error {
	skus := []string{product.SKU}
	for _, v := range product.Variants {
		skus = append(skus, v.SKU)
	}
	for _, sku := range skus {
		existing, ok := s.index[sku]
		if !ok {
			continue
		}
		if owner := ownerOf(existing); owner != product.SKU {
			return errors.Inputf("sku %s already belongs to product %s", sku, owner)
		}
	}
	return nil
}

func ownerOf(p types.Product) string {
	if p.ParentSKU != "" {
		return p.ParentSKU
	}
	return p.SKU
}

// Delete removes a product and its variants
func (s *MemoryStore) Delete(sku string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(sku)
}

func (s *MemoryStore) removeLocked(sku string) {
	old, ok := s.products[sku]
	if !ok {
		return
	}
	for _, v := range old.Variants {
		delete(s.index, v.SKU)
	}
	delete(s.products, sku)
	delete(s.index, sku)
}

// Product returns a product or variant by SKU
func (s *MemoryStore) Product(ctx context.Context, sku string) (*types.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.index[sku]
	if !ok {
		return nil, errors.NotFound("product", sku)
	}
	return &p, nil
}

// Products returns every top-level product ordered by SKU
func (s *MemoryStore) Products(ctx context.Context) ([]types.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

// FixedPrice returns the stored override, or "" for unknown products
func (s *MemoryStore) FixedPrice(ctx context.Context, sku string, tier types.TierID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index[sku].FixedPrices[tier], nil
}

// Len returns the number of top-level products
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}
