// Package storage provides storage backends for quote history.
// Supports file and in-memory backends; catalogs are opened by OpenCatalog.
package storage

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"wholesale-pricing/internal/errors"
)

// Backend is a storage backend type
type Backend string

const (
	BackendFile     Backend = "file"
	BackendPostgres Backend = "postgres"
	BackendMemory   Backend = "memory"
)

// guestDir holds quotes without a customer id
const guestDir = "_guest"

// QuoteStore is the quote history interface
type QuoteStore interface {
	// Save stores a quote, assigning an ID and timestamp if missing
	Save(ctx context.Context, quote *StoredQuote) error

	// Get retrieves a quote by ID
	Get(ctx context.Context, id string) (*StoredQuote, error)

	// List lists quotes, newest first
	List(ctx context.Context, filter *ListFilter) ([]*StoredQuote, error)

	// Delete removes a quote
	Delete(ctx context.Context, id string) error

	// GetLatest gets the newest quote for a customer
	GetLatest(ctx context.Context, customerID string) (*StoredQuote, error)

	// Compare compares the subtotals of two quotes
	Compare(ctx context.Context, oldID, newID string) (*CompareResult, error)

	// Close closes the store
	Close() error
}

// StoredQuote is a priced cart as it was quoted
type StoredQuote struct {
	// ID is unique identifier
	ID string `json:"id"`

	// CustomerID groups quotes; empty for guests
	CustomerID string `json:"customer_id,omitempty"`

	// Tier is the tier key the cart was priced for
	Tier string `json:"tier"`

	// Lines are the priced lines
	Lines []StoredLine `json:"lines"`

	// Subtotal is the sum of line totals
	Subtotal decimal.Decimal `json:"subtotal"`

	// Currency is the store currency
	Currency string `json:"currency,omitempty"`

	// Blocked records whether store policy blocked checkout
	Blocked bool `json:"blocked"`

	// BlockReason is the customer-facing reason
	BlockReason string `json:"block_reason,omitempty"`

	// CreatedAt timestamp
	CreatedAt time.Time `json:"created_at"`

	// Metadata
	Metadata map[string]string `json:"metadata,omitempty"`
}

// StoredLine is one quoted line
type StoredLine struct {
	SKU       string          `json:"sku"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Basis     string          `json:"basis"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// ListFilter filters quote listing
type ListFilter struct {
	CustomerID string
	Tier       string
	Since      time.Time
	Until      time.Time
	Limit      int
	Offset     int
}

func (f *ListFilter) matches(q *StoredQuote) bool {
	if f == nil {
		return true
	}
	if f.CustomerID != "" && q.CustomerID != f.CustomerID {
		return false
	}
	if f.Tier != "" && q.Tier != f.Tier {
		return false
	}
	if !f.Since.IsZero() && q.CreatedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && q.CreatedAt.After(f.Until) {
		return false
	}
	return true
}

// page sorts newest first and applies offset/limit
func (f *ListFilter) page(quotes []*StoredQuote) []*StoredQuote {
	sort.SliceStable(quotes, func(i, j int) bool {
		return quotes[i].CreatedAt.After(quotes[j].CreatedAt)
	})
	if f == nil {
		return quotes
	}
	if f.Offset > 0 {
		if f.Offset >= len(quotes) {
			return nil
		}
		quotes = quotes[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(quotes) {
		quotes = quotes[:f.Limit]
	}
	return quotes
}

// CompareResult is a comparison between two quotes
type CompareResult struct {
	OldID        string          `json:"old_id"`
	NewID        string          `json:"new_id"`
	OldSubtotal  decimal.Decimal `json:"old_subtotal"`
	NewSubtotal  decimal.Decimal `json:"new_subtotal"`
	Delta        decimal.Decimal `json:"delta"`
	DeltaPercent decimal.Decimal `json:"delta_percent"`
	CreatedAt    time.Time       `json:"created_at"`
}

func compare(oldQuote, newQuote *StoredQuote) *CompareResult {
	delta := newQuote.Subtotal.Sub(oldQuote.Subtotal)
	percent := decimal.Zero
	if oldQuote.Subtotal.IsPositive() {
		percent = delta.Div(oldQuote.Subtotal).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return &CompareResult{
		OldID:        oldQuote.ID,
		NewID:        newQuote.ID,
		OldSubtotal:  oldQuote.Subtotal,
		NewSubtotal:  newQuote.Subtotal,
		Delta:        delta,
		DeltaPercent: percent,
		CreatedAt:    time.Now(),
	}
}

func prepare(quote *StoredQuote) {
	if quote.ID == "" {
		quote.ID = uuid.New().String()
	}
	if quote.CreatedAt.IsZero() {
		quote.CreatedAt = time.Now()
	}
}

// FileStore keeps one JSON file per quote, grouped by customer
type FileStore struct {
	basePath string
	mu       sync.RWMutex
}

// NewFileStore creates a file store
func NewFileStore(basePath string) (*FileStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, errors.Storage("create quote directory", err)
	}
	return &FileStore{basePath: basePath}, nil
}

func (s *FileStore) Save(ctx context.Context, quote *StoredQuote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prepare(quote)

	if !safeSegment(quote.ID) {
		return errors.Inputf("invalid quote id %q", quote.ID)
	}
	customerDir := filepath.Join(s.basePath, customerDirName(quote.CustomerID))
	if err := os.MkdirAll(customerDir, 0755); err != nil {
		return errors.Storage("create customer directory", err)
	}

	data, err := json.MarshalIndent(quote, "", "  ")
	if err != nil {
		return errors.Internal("marshal quote", err)
	}
	if err := os.WriteFile(filepath.Join(customerDir, quote.ID+".json"), data, 0644); err != nil {
		return errors.Storage("write quote", err)
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, id string) (*StoredQuote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path, err := s.find(id)
	if err != nil {
		return nil, err
	}
	return readQuote(path)
}

func (s *FileStore) List(ctx context.Context, filter *ListFilter) ([]*StoredQuote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var quotes []*StoredQuote
	err := filepath.WalkDir(s.basePath, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		q, err := readQuote(path)
		if err != nil {
			return nil
		}
		if filter.matches(q) {
			quotes = append(quotes, q)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Storage("list quotes", err)
	}
	return filter.page(quotes), nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.find(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return errors.Storage("delete quote", err)
	}
	return nil
}

func (s *FileStore) GetLatest(ctx context.Context, customerID string) (*StoredQuote, error) {
	quotes, err := s.List(ctx, &ListFilter{CustomerID: customerID, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return nil, errors.NotFound("quotes for customer", customerID)
	}
	return quotes[0], nil
}

func (s *FileStore) Compare(ctx context.Context, oldID, newID string) (*CompareResult, error) {
	oldQuote, err := s.Get(ctx, oldID)
	if err != nil {
		return nil, err
	}
	newQuote, err := s.Get(ctx, newID)
	if err != nil {
		return nil, err
	}
	return compare(oldQuote, newQuote), nil
}

func (s *FileStore) Close() error {
	return nil
}

// find locates a quote file across customer directories
func (s *FileStore) find(id string) (string, error) {
	if !safeSegment(id) {
		return "", errors.NotFound("quote", id)
	}
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return "", errors.Storage("read quote directory", err)
	}
	name := id + ".json"
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(s.basePath, entry.Name(), name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", errors.NotFound("quote", id)
}

// customerDirName maps a customer id onto one directory under the store
// root. Ids that are not a plain path segment are hex-encoded.
func customerDirName(customerID string) string {
	switch {
	case customerID == "":
		return guestDir
	case safeSegment(customerID) && !strings.HasPrefix(customerID, "_"):
		return customerID
	default:
		return "_x" + hex.EncodeToString([]byte(customerID))
	}
}

func safeSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`+"\x00")
}

func readQuote(path string) (*StoredQuote, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Storage("read quote", err)
	}
	var q StoredQuote
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, errors.Storage("decode quote "+path, err)
	}
	return &q, nil
}

// MemoryStore is an in-memory storage backend
type MemoryStore struct {
	quotes map[string]*StoredQuote
	mu     sync.RWMutex
}

// NewMemoryStore creates a memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		quotes: make(map[string]*StoredQuote),
	}
}

func (s *MemoryStore) Save(ctx context.Context, quote *StoredQuote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prepare(quote)
	s.quotes[quote.ID] = quote
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*StoredQuote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.quotes[id]
	if !ok {
		return nil, errors.NotFound("quote", id)
	}
	return q, nil
}

func (s *MemoryStore) List(ctx context.Context, filter *ListFilter) ([]*StoredQuote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var quotes []*StoredQuote
	for _, q := range s.quotes {
		if filter.matches(q) {
			quotes = append(quotes, q)
		}
	}
	return filter.page(quotes), nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.quotes[id]; !ok {
		return errors.NotFound("quote", id)
	}
	delete(s.quotes, id)
	return nil
}

func (s *MemoryStore) GetLatest(ctx context.Context, customerID string) (*StoredQuote, error) {
	quotes, err := s.List(ctx, &ListFilter{CustomerID: customerID, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return nil, errors.NotFound("quotes for customer", customerID)
	}
	return quotes[0], nil
}

func (s *MemoryStore) Compare(ctx context.Context, oldID, newID string) (*CompareResult, error) {
	oldQuote, err := s.Get(ctx, oldID)
	if err != nil {
		return nil, err
	}
	newQuote, err := s.Get(ctx, newID)
	if err != nil {
		return nil, err
	}
	return compare(oldQuote, newQuote), nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// StoreFactory creates quote stores by backend type
func StoreFactory(backend Backend, config map[string]string) (QuoteStore, error) {
	switch backend {
	case BackendFile:
		path := config["path"]
		if path == "" {
			path = ".wholesale-pricing/quotes"
		}
		return NewFileStore(path)
	case BackendMemory, "":
		return NewMemoryStore(), nil
	default:
		return nil, errors.Newf(errors.TypeConfig, "unsupported quote backend: %s", backend)
	}
}

// Ensure interfaces are implemented
var _ io.Closer = (*FileStore)(nil)
var _ io.Closer = (*MemoryStore)(nil)
var _ QuoteStore = (*FileStore)(nil)
var _ QuoteStore = (*MemoryStore)(nil)
