package comparison

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"papalote-market/internal/models"
	"papalote-market/internal/storage"
	"papalote-market/internal/util"

	"go.uber.org/zap"
)

const storageKey = "product-comparison"

// DefaultMaxProducts is the comparison capacity when none is configured.
const DefaultMaxProducts = 4

// Options configures a comparison set. Store may be nil and Persist false
// for a purely in-memory set. OnLimitReached is invoked once per add
// rejected at capacity, so the caller can surface a user-facing notice.
type Options struct {
	Store          storage.Store
	MaxProducts    int
	Persist        bool
	OnLimitReached func()
}

// Set is the bounded product comparison container: up to MaxProducts
// distinct products, insertion order preserved. Adds beyond capacity are
// rejected; existing members are never evicted to make room.
type Set struct {
	mu             sync.Mutex
	products       []models.Product
	max            int
	store          storage.Store
	persist        bool
	onLimitReached func()
	logger         *zap.Logger
}

// New creates a comparison set and, when persistence is on, rehydrates it
func New(opts Options) *Set {
	max := opts.MaxProducts
	if max <= 0 {
		max = DefaultMaxProducts
	}

	s := &Set{
		max:            max,
		store:          opts.Store,
		persist:        opts.Persist && opts.Store != nil,
		onLimitReached: opts.OnLimitReached,
		logger:         util.GetLogger(),
	}
	s.rehydrate()
	return s
}

// Add puts product in the set. Returns false without modifying the set when
// the product is already present, or when the set is full, in which case
// OnLimitReached fires exactly once.
func (s *Set) Add(ctx context.Context, product models.Product) bool {
	s.mu.Lock()

	if s.indexLocked(product.ID) >= 0 {
		s.mu.Unlock()
		return false
	}
	if len(s.products) >= s.max {
		s.mu.Unlock()
		util.ComparisonLimitReachedTotal.Inc()
		if s.onLimitReached != nil {
			s.onLimitReached()
		}
		return false
	}

	s.products = append(s.products, product)
	s.persistLocked(ctx)
	s.mu.Unlock()

	util.ComparisonAddsTotal.Inc()
	return true
}

// Remove deletes product productID from the set; absent ids are a no-op
func (s *Set) Remove(ctx context.Context, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexLocked(productID); i >= 0 {
		s.products = append(s.products[:i], s.products[i+1:]...)
		s.persistLocked(ctx)
	}
}

// Toggle removes the product when present, otherwise adds it under the same
// capacity rules as Add. Returns true when the product ends up in the set.
func (s *Set) Toggle(ctx context.Context, product models.Product) bool {
	if s.Contains(product.ID) {
		s.Remove(ctx, product.ID)
		return false
	}
	return s.Add(ctx, product)
}

// Clear empties the set
func (s *Set) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products = nil
	s.persistLocked(ctx)
}

// Contains reports whether productID is being compared
func (s *Set) Contains(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexLocked(productID) >= 0
}

// Products returns a copy of the compared products in insertion order
func (s *Set) Products() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Product, len(s.products))
	copy(out, s.products)
	return out
}

// Count returns the number of compared products
func (s *Set) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.products)
}

// IsEmpty reports whether nothing is being compared
func (s *Set) IsEmpty() bool {
	return s.Count() == 0
}

// IsFull reports whether the set is at capacity
func (s *Set) IsFull() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.products) >= s.max
}

// MaxProducts returns the configured capacity
func (s *Set) MaxProducts() int {
	return s.max
}

func (s *Set) indexLocked(productID string) int {
	for i := range s.products {
		if s.products[i].ID == productID {
			return i
		}
	}
	return -1
}

// persistLocked writes the current products to the store. Callers hold s.mu.
func (s *Set) persistLocked(ctx context.Context) {
	if !s.persist {
		return
	}

	products := s.products
	if products == nil {
		products = []models.Product{}
	}
	data, err := json.Marshal(products)
	if err != nil {
		s.logger.Error("Failed to marshal comparison set", zap.Error(err))
		return
	}
	if err := s.store.Set(ctx, storageKey, string(data)); err != nil {
		s.logger.Error("Failed to persist comparison set", zap.Error(err))
	}
}

func (s *Set) rehydrate() {
	if !s.persist {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	raw, found, err := s.store.Get(ctx, storageKey)
	if err != nil {
		s.logger.Error("Failed to read stored comparison set", zap.Error(err))
		return
	}
	if !found {
		return
	}

	var products []models.Product
	if err := json.Unmarshal([]byte(raw), &products); err != nil {
		s.logger.Warn("Discarding corrupt comparison payload", zap.Error(err))
		util.StorageCorruptionTotal.WithLabelValues(storageKey).Inc()
		return
	}

	// A payload written under a larger configured capacity still has to
	// respect the current one.
	if len(products) > s.max {
		products = products[:s.max]
	}
	s.products = products
}
