// Package api - Thin HTTP layer over the pricing core
// The API is ONLY responsible for: input decoding, core orchestration, output serialization.
package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wholesale-pricing/adapters/storage"
	"wholesale-pricing/core/catalog"
	"wholesale-pricing/core/policy"
	"wholesale-pricing/core/pricing"
	"wholesale-pricing/core/types"
	"wholesale-pricing/internal/errors"
	"wholesale-pricing/internal/logging"
)

// RequestIDHeader carries the request id on responses
const RequestIDHeader = "X-Request-ID"

// Options configures a Server
type Options struct {
	// Version is reported by /health and /version
	Version string

	// Catalog supplies products and fixed prices
	Catalog catalog.Store

	// Quotes records cart quotes; nil disables history
	Quotes storage.QuoteStore

	// Tiers is the configured tier table
	Tiers types.TierTable

	// Settings are the storefront switches
	Settings policy.Settings

	// CachePolicy sizes the variant range cache; nil uses defaults
	CachePolicy *pricing.CachePolicy

	// RateLimit is requests per second per client IP; 0 disables limiting
	RateLimit float64

	// RateBurst is the per-client burst size
	RateBurst int

	// Logger defaults to the global "api" logger
	Logger *zap.Logger
}

// Server is the API server
type Server struct {
	handler *Handler
	mux     *http.ServeMux
	version string
	limiter *RateLimiter
	logger  *zap.Logger
}

// NewServer creates a new API server
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Named("api")
	}

	s := &Server{
		handler: NewHandler(opts.Catalog, opts.Quotes, opts.Tiers, opts.Settings, opts.CachePolicy, logger),
		mux:     http.NewServeMux(),
		version: opts.Version,
		limiter: NewRateLimiter(opts.RateLimit, opts.RateBurst),
		logger:  logger,
	}

	s.registerRoutes()
	return s
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	// Core endpoints
	s.mux.HandleFunc("POST /v1/prices/resolve", s.handleResolve)
	s.mux.HandleFunc("POST /v1/prices/variants", s.handleVariants)
	s.mux.HandleFunc("POST /v1/cart/quote", s.handleQuote)
	s.mux.HandleFunc("GET /v1/products/{sku}/price", s.handleProductPrice)
	s.mux.HandleFunc("GET /v1/products", s.handleProducts)
	s.mux.HandleFunc("GET /v1/quotes/latest", s.handleLatestQuote)
	s.mux.HandleFunc("GET /v1/quotes/compare", s.handleCompareQuotes)
	s.mux.HandleFunc("GET /v1/quotes/{id}", s.handleGetQuote)
	s.mux.HandleFunc("DELETE /v1/quotes/{id}", s.handleDeleteQuote)
	s.mux.HandleFunc("GET /v1/quotes", s.handleListQuotes)

	// Cache control
	s.mux.HandleFunc("DELETE /v1/cache/{sku}", s.handleInvalidate)
	s.mux.HandleFunc("DELETE /v1/cache", s.handlePurge)

	// Supporting endpoints
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /version", s.handleVersion)
}

// handleResolve handles POST /v1/prices/resolve
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if !s.decode(w, r, &req) {
		return
	}

	resp, err := s.handler.resolve(r.Context(), requestID(r.Context()), &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, resp, http.StatusOK)
}

// handleVariants handles POST /v1/prices/variants
func (s *Server) handleVariants(w http.ResponseWriter, r *http.Request) {
	var req VariantsRequest
	if !s.decode(w, r, &req) {
		return
	}

	resp, err := s.handler.variants(r.Context(), requestID(r.Context()), &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, resp, http.StatusOK)
}

// handleQuote handles POST /v1/cart/quote
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if !s.decode(w, r, &req) {
		return
	}

	resp, err := s.handler.quote(r.Context(), requestID(r.Context()), &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, resp, http.StatusOK)
}

// handleProductPrice handles GET /v1/products/{sku}/price?tier=&qty=
func (s *Server) handleProductPrice(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := ResolveRequest{
		SKU:      r.PathValue("sku"),
		Customer: customerFromQuery(r),
	}
	if raw := q.Get("qty"); raw != "" {
		qty, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, r, errors.Inputf("qty must be an integer: %q", raw))
			return
		}
		req.Quantity = qty
	}

	resp, err := s.handler.resolve(r.Context(), requestID(r.Context()), &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, resp, http.StatusOK)
}

// handleProducts handles GET /v1/products?tier=
func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	resp, err := s.handler.products(r.Context(), requestID(r.Context()), customerFromQuery(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, resp, http.StatusOK)
}

// handleGetQuote handles GET /v1/quotes/{id}
func (s *Server) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	quote, err := s.handler.quoteHistory(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, quote, http.StatusOK)
}

// handleDeleteQuote handles DELETE /v1/quotes/{id}
func (s *Server) handleDeleteQuote(w http.ResponseWriter, r *http.Request) {
	if err := s.handler.deleteQuote(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleLatestQuote handles GET /v1/quotes/latest?customer=
func (s *Server) handleLatestQuote(w http.ResponseWriter, r *http.Request) {
	quote, err := s.handler.latestQuote(r.Context(), r.URL.Query().Get("customer"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, quote, http.StatusOK)
}

// handleCompareQuotes handles GET /v1/quotes/compare?old=&new=
func (s *Server) handleCompareQuotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := s.handler.compareQuotes(r.Context(), q.Get("old"), q.Get("new"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, result, http.StatusOK)
}

// handleListQuotes handles GET /v1/quotes?customer=&tier=&limit=
func (s *Server) handleListQuotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := &storage.ListFilter{
		CustomerID: q.Get("customer"),
		Tier:       q.Get("tier"),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			s.writeError(w, r, errors.Inputf("limit must be a non-negative integer: %q", raw))
			return
		}
		filter.Limit = limit
	}

	quotes, err := s.handler.listQuotes(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, map[string]interface{}{
		"request_id": requestID(r.Context()),
		"quotes":     quotes,
		"count":      len(quotes),
	}, http.StatusOK)
}

// handleInvalidate handles DELETE /v1/cache/{sku}
func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	s.handler.ranges.Invalidate(r.PathValue("sku"))
	w.WriteHeader(http.StatusNoContent)
}

// handlePurge handles DELETE /v1/cache
func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request) {
	s.handler.ranges.Purge()
	w.WriteHeader(http.StatusNoContent)
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"status":  "healthy",
		"version": s.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

// handleVersion handles GET /version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"version":     s.version,
		"engine":      "wholesale-pricing",
		"api_version": "v1",
	}, http.StatusOK)
}

// ServeHTTP implements http.Handler. Every request gets an id and an
// access log line.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := r.Header.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, id)

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	ctx := withRequestID(r.Context(), id)
	ctx = logging.WithContext(ctx, s.logger.With(zap.String("request_id", id)))
	r = r.WithContext(ctx)

	if s.limiter.Allow(clientIP(r)) {
		s.mux.ServeHTTP(rec, r)
	} else {
		rec.Header().Set("Retry-After", "1")
		s.writeJSON(rec, ErrorResponse{
			RequestID: id,
			Error:     ErrorDetail{Code: "RATE_LIMITED", Message: "too many requests"},
		}, http.StatusTooManyRequests)
	}

	s.logger.Info("request",
		zap.String("request_id", id),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", rec.status),
		zap.Duration("duration", time.Since(start)))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeJSON(w, ErrorResponse{
			RequestID: requestID(r.Context()),
			Error:     ErrorDetail{Code: "INVALID_JSON", Message: err.Error()},
		}, http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	message := publicMessage(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(r.Context(), s.logger).Error("request failed", zap.Error(err))
	}
	s.writeJSON(w, ErrorResponse{
		RequestID: requestID(r.Context()),
		Error:     ErrorDetail{Code: code, Message: message},
	}, status)
}

func statusFor(err error) (int, string) {
	switch errors.TypeOf(err) {
	case errors.TypeInput:
		return http.StatusBadRequest, "INVALID_REQUEST"
	case errors.TypeNotFound:
		return http.StatusNotFound, "NOT_FOUND"
	case errors.TypeForbidden:
		return http.StatusForbidden, "LOGIN_REQUIRED"
	case errors.TypePolicy:
		return http.StatusConflict, "POLICY_VIOLATION"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// publicMessage hides internal detail from 5xx responses
func publicMessage(err error) string {
	var e *errors.Error
	if !stderrors.As(err, &e) {
		return "internal error"
	}
	switch e.Type {
	case errors.TypeInput, errors.TypeNotFound, errors.TypeForbidden, errors.TypePolicy:
		if e.Cause != nil && e.Type == errors.TypeInput {
			return e.Message + ": " + e.Cause.Error()
		}
		return e.Message
	default:
		return "internal error"
	}
}

func customerFromQuery(r *http.Request) CustomerInput {
	q := r.URL.Query()
	authenticated, _ := strconv.ParseBool(q.Get("authenticated"))
	return CustomerInput{
		ID:            q.Get("customer"),
		Tier:          q.Get("tier"),
		Authenticated: authenticated,
	}
}

type requestIDKey struct{}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
