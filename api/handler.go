// Package api - HTTP handler for wholesale pricing
// The handler only maps requests onto the pricing core; it holds no
// pricing rules of its own.
package api

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"wholesale-pricing/adapters/storage"
	"wholesale-pricing/core/catalog"
	"wholesale-pricing/core/policy"
	"wholesale-pricing/core/pricing"
	"wholesale-pricing/core/types"
	"wholesale-pricing/internal/errors"
	"wholesale-pricing/internal/logging"
)

// Handler executes pricing requests against a catalog
type Handler struct {
	// Dependencies
	resolver  *pricing.Resolver
	ranges    *pricing.RangeCache
	catalog   catalog.Store
	evaluator *policy.Evaluator
	quotes    storage.QuoteStore

	// Configuration
	tiers      types.TierTable
	settings   policy.Settings
	visibility policy.Visibility

	logger *zap.Logger
}

// NewHandler creates a handler. Fixed prices missing from a product are
// looked up in the catalog.
func NewHandler(store catalog.Store, quotes storage.QuoteStore, tiers types.TierTable, settings policy.Settings, cache *pricing.CachePolicy, logger *zap.Logger) *Handler {
	resolver := pricing.NewResolver(
		pricing.WithFixedPriceSource(store),
		pricing.WithLogger(logger.Named("pricing")),
	)
	return &Handler{
		resolver:   resolver,
		ranges:     pricing.NewRangeCache(resolver, cache),
		catalog:    store,
		evaluator:  policy.NewEvaluator(settings),
		quotes:     quotes,
		tiers:      tiers,
		settings:   settings,
		visibility: policy.Visibility{Settings: settings},
		logger:     logger,
	}
}

// customer converts the request customer into a domain customer and the
// tier the resolver prices for. Unknown tiers price as retail.
func (h *Handler) customer(ctx context.Context, in CustomerInput) (types.Customer, *types.Tier) {
	id, ok := types.ParseTierID(in.Tier)
	if !ok {
		logging.FromContext(ctx, h.logger).Debug("unknown tier treated as retail", zap.String("tier", in.Tier))
		id = ""
	}
	tier := h.tiers.Lookup(id)
	if tier == nil {
		id = ""
	}
	return types.Customer{
		ID:            in.ID,
		Tier:          id,
		Authenticated: in.Authenticated || id != "",
	}, tier
}

// product loads a purchasable product the customer is allowed to see
func (h *Handler) product(ctx context.Context, sku string, customer types.Customer) (*types.Product, error) {
	if !h.visibility.PricesVisible(customer) {
		return nil, errors.Forbidden(policy.LoginRequiredMessage)
	}
	p, err := pricing.PurchasableProduct(ctx, h.catalog, sku)
	if err != nil {
		return nil, err
	}
	if !h.visibility.ProductVisible(*p, customer) {
		return nil, errors.NotFound("product", sku)
	}
	return p, nil
}

func (h *Handler) resolve(ctx context.Context, requestID string, req *ResolveRequest) (*ResolveResponse, error) {
	if strings.TrimSpace(req.SKU) == "" {
		return nil, errors.Input("sku is required")
	}
	if req.Quantity < 0 {
		return nil, errors.Inputf("quantity must not be negative: %d", req.Quantity)
	}

	customer, tier := h.customer(ctx, req.Customer)
	product, err := h.product(ctx, req.SKU, customer)
	if err != nil {
		return nil, err
	}

	preq := types.PricingRequest{Product: *product, Tier: tier, Quantity: req.Quantity}
	res, err := h.resolver.Resolve(ctx, preq)
	if err != nil {
		return nil, err
	}

	resp := &ResolveResponse{
		RequestID: requestID,
		Quantity:  preq.EffectiveQuantity(),
		Price:     h.priceView(res),
	}

	offer, err := h.resolver.Offer(ctx, *product, tier)
	if err != nil {
		return nil, err
	}
	if offer != nil {
		resp.Offer = &OfferView{
			MinQuantity:     offer.MinQuantity,
			DiscountPercent: offer.DiscountPercent.String(),
			RegularPrice:    h.money(offer.RegularPrice),
			UnitPrice:       h.money(offer.UnitPrice),
		}
	}
	return resp, nil
}

func (h *Handler) variants(ctx context.Context, requestID string, req *VariantsRequest) (*VariantsResponse, error) {
	if strings.TrimSpace(req.SKU) == "" {
		return nil, errors.Input("sku is required")
	}

	customer, tier := h.customer(ctx, req.Customer)
	if !h.visibility.PricesVisible(customer) {
		return nil, errors.Forbidden(policy.LoginRequiredMessage)
	}
	product, err := h.catalog.Product(ctx, req.SKU)
	if err != nil {
		return nil, err
	}
	if product.ParentSKU != "" || !h.visibility.ProductVisible(*product, customer) {
		return nil, errors.NotFound("product", req.SKU)
	}

	pr, err := h.ranges.Get(ctx, *product, tier)
	if err != nil {
		return nil, err
	}

	resp := &VariantsResponse{
		RequestID: requestID,
		SKU:       pr.SKU,
		Tier:      pr.Tier,
		Min:       h.money(pr.Min),
		Max:       h.money(pr.Max),
		Variants:  make([]PriceView, 0, len(pr.Variants)),
	}
	for _, v := range pr.Variants {
		resp.Variants = append(resp.Variants, h.priceView(v))
	}
	return resp, nil
}

func (h *Handler) quote(ctx context.Context, requestID string, req *QuoteRequest) (*QuoteResponse, error) {
	if len(req.Lines) == 0 {
		return nil, errors.Input("cart has no lines")
	}

	customer, tier := h.customer(ctx, req.Customer)
	if !h.visibility.CanPurchase(customer) {
		return nil, errors.Forbidden(policy.LoginRequiredMessage)
	}

	items := make([]pricing.QuoteItem, 0, len(req.Lines))
	for _, l := range req.Lines {
		if l.Quantity < 1 {
			return nil, errors.Inputf("quantity for %s must be at least 1", l.SKU)
		}
		product, err := h.product(ctx, l.SKU, customer)
		if err != nil {
			return nil, err
		}
		items = append(items, pricing.QuoteItem{Product: *product, Quantity: l.Quantity})
	}

	quote, err := h.resolver.QuoteItems(ctx, tier, items)
	if err != nil {
		return nil, err
	}

	result := h.evaluator.Evaluate(ctx, &policy.Cart{
		Customer: customer,
		Subtotal: quote.Subtotal,
		Coupons:  req.Coupons,
	})

	resp := &QuoteResponse{
		RequestID: requestID,
		QuoteID:   quote.ID,
		Tier:      quote.Tier,
		Lines:     make([]QuoteLineView, 0, len(quote.Lines)),
		Subtotal:  h.money(quote.Subtotal),
		Currency:  h.settings.Currency,
		Policy:    result,
	}
	for _, l := range quote.Lines {
		resp.Lines = append(resp.Lines, QuoteLineView{
			SKU:       l.SKU,
			Quantity:  l.Quantity,
			Price:     h.priceView(l.Price),
			LineTotal: h.money(l.LineTotal),
		})
	}

	if h.quotes != nil {
		if err := h.quotes.Save(ctx, storedQuote(quote, customer, result, h.settings.Currency)); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func (h *Handler) quoteHistory(ctx context.Context, id string) (*storage.StoredQuote, error) {
	if h.quotes == nil {
		return nil, errors.NotFound("quote", id)
	}
	return h.quotes.Get(ctx, id)
}

func (h *Handler) listQuotes(ctx context.Context, filter *storage.ListFilter) ([]*storage.StoredQuote, error) {
	if h.quotes == nil {
		return []*storage.StoredQuote{}, nil
	}
	return h.quotes.List(ctx, filter)
}

func (h *Handler) deleteQuote(ctx context.Context, id string) error {
	if h.quotes == nil {
		return errors.NotFound("quote", id)
	}
	return h.quotes.Delete(ctx, id)
}

// latestQuote returns a customer's newest quote. Guest quotes are not
// addressable this way.
func (h *Handler) latestQuote(ctx context.Context, customerID string) (*storage.StoredQuote, error) {
	if customerID == "" {
		return nil, errors.Input("customer is required")
	}
	if h.quotes == nil {
		return nil, errors.NotFound("quotes for customer", customerID)
	}
	return h.quotes.GetLatest(ctx, customerID)
}

func (h *Handler) compareQuotes(ctx context.Context, oldID, newID string) (*storage.CompareResult, error) {
	if oldID == "" || newID == "" {
		return nil, errors.Input("old and new quote ids are required")
	}
	if h.quotes == nil {
		return nil, errors.NotFound("quote", oldID)
	}
	return h.quotes.Compare(ctx, oldID, newID)
}

func storedQuote(q *pricing.Quote, customer types.Customer, result *policy.EvaluationResult, currency string) *storage.StoredQuote {
	out := &storage.StoredQuote{
		ID:          q.ID,
		CustomerID:  customer.ID,
		Tier:        q.Tier,
		Subtotal:    q.Subtotal,
		Currency:    currency,
		Blocked:     result.Blocked,
		BlockReason: result.BlockReason,
		Lines:       make([]storage.StoredLine, 0, len(q.Lines)),
	}
	for _, l := range q.Lines {
		out.Lines = append(out.Lines, storage.StoredLine{
			SKU:       l.SKU,
			Quantity:  l.Quantity,
			UnitPrice: l.Price.UnitPrice,
			Basis:     string(l.Price.Basis),
			LineTotal: l.LineTotal,
		})
	}
	return out
}

func (h *Handler) products(ctx context.Context, requestID string, in CustomerInput) (*ProductsResponse, error) {
	customer, _ := h.customer(ctx, in)
	all, err := h.catalog.Products(ctx)
	if err != nil {
		return nil, err
	}

	visible := h.visibility.Filter(all, customer)
	resp := &ProductsResponse{
		RequestID: requestID,
		Products:  make([]ProductView, 0, len(visible)),
		Count:     len(visible),
	}
	for _, p := range visible {
		view := ProductView{
			SKU:           p.SKU,
			Name:          p.Name,
			Variable:      p.IsVariable(),
			WholesaleOnly: p.WholesaleOnly,
		}
		for _, v := range p.Variants {
			view.Variants = append(view.Variants, v.SKU)
		}
		resp.Products = append(resp.Products, view)
	}
	return resp, nil
}

func (h *Handler) priceView(res types.PricingResult) PriceView {
	tier := string(res.Tier)
	if tier == "" {
		tier = types.RetailKey
	}
	return PriceView{
		SKU:                 res.SKU,
		UnitPrice:           h.money(res.UnitPrice),
		Basis:               string(res.Basis),
		TierDiscountApplied: res.TierDiscountApplied,
		Tier:                tier,
	}
}

func (h *Handler) money(d decimal.Decimal) string {
	return d.StringFixed(h.settings.Decimals)
}
