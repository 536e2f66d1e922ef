package catalog

import (
	"sync"

	"papalote-market/internal/models"
)

// Cache is the in-memory catalog snapshot served to the recommendation
// engine and HTTP handlers. It is loaded once at startup and replaced
// wholesale on reload, so readers always see a consistent catalog.
type Cache struct {
	mu       sync.RWMutex
	products []models.Product
	byID     map[string]models.Product
}

// NewCache creates a cache holding the given products
func NewCache(products []models.Product) *Cache {
	c := &Cache{}
	c.Replace(products)
	return c
}

// Replace swaps the entire snapshot
func (c *Cache) Replace(products []models.Product) {
	byID := make(map[string]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = products
	c.byID = byID
}

// Products returns a copy of the catalog snapshot
func (c *Cache) Products() []models.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Product, len(c.products))
	copy(out, c.products)
	return out
}

// Get looks up a product by id
func (c *Cache) Get(id string) (models.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.byID[id]
	return p, ok
}

// Len returns the number of products in the snapshot
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}
