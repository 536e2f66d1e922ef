package cart

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"papalote-market/internal/models"
	"papalote-market/internal/storage"
	"papalote-market/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const storageKey = "shopping-cart"

// AnalyticsPublisher receives cart analytics events. Publishing is best
// effort: a failure is logged and never fails the mutation that caused it.
type AnalyticsPublisher interface {
	PublishAddToCart(ctx context.Context, event *models.AddToCartEvent) error
	PublishCartCleared(ctx context.Context, event *models.CartClearedEvent) error
}

// Cart is the shopping cart container: at most one line per product id,
// quantities always >= 1, count and total derived from the line list on
// every read. State persists under the shopping-cart key after each
// mutation and is rehydrated at construction; a corrupt stored payload is
// treated the same as no data.
type Cart struct {
	mu        sync.Mutex
	items     []models.CartItem
	store     storage.Store
	analytics AnalyticsPublisher
	currency  string
	logger    *zap.Logger
}

// New creates a cart and rehydrates it from the store. A nil store yields
// an in-memory-only cart; a nil analytics publisher disables event publishing.
func New(store storage.Store, analytics AnalyticsPublisher, currency string) *Cart {
	c := &Cart{
		store:     store,
		analytics: analytics,
		currency:  currency,
		logger:    util.GetLogger(),
	}
	c.rehydrate()
	return c
}

// Add puts quantity units of product in the cart, merging into an existing
// line for the same product id. Non-positive quantities are ignored.
func (c *Cart) Add(ctx context.Context, product models.Product, quantity int) {
	if quantity <= 0 {
		c.logger.Debug("Ignoring non-positive cart add",
			zap.String("product_id", product.ID),
			zap.Int("quantity", quantity))
		return
	}

	c.mu.Lock()
	merged := false
	for i := range c.items {
		if c.items[i].Product.ID == product.ID {
			c.items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		c.items = append(c.items, models.CartItem{
			Product:  product,
			Quantity: quantity,
			AddedAt:  time.Now(),
		})
	}
	c.persistLocked(ctx)
	c.mu.Unlock()

	util.CartAddsTotal.Inc()
	c.publishAdd(ctx, product, quantity)
}

// Remove deletes the line for productID. Removing an absent product is a no-op.
func (c *Cart) Remove(ctx context.Context, productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].Product.ID == productID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			c.persistLocked(ctx)
			util.CartRemovalsTotal.Inc()
			return
		}
	}
}

// UpdateQuantity sets the absolute quantity of an existing line. A quantity
// of zero or below removes the line. Updating a product that is not in the
// cart is a no-op: update implies an existing line, adds go through Add.
func (c *Cart) UpdateQuantity(ctx context.Context, productID string, quantity int) {
	if quantity <= 0 {
		c.Remove(ctx, productID)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].Product.ID == productID {
			c.items[i].Quantity = quantity
			c.persistLocked(ctx)
			return
		}
	}
}

// Clear empties the cart and persists the empty state
func (c *Cart) Clear(ctx context.Context) {
	c.mu.Lock()
	itemCount := 0
	for i := range c.items {
		itemCount += c.items[i].Quantity
	}
	c.items = nil
	c.persistLocked(ctx)
	c.mu.Unlock()

	util.CartClearsTotal.Inc()
	if itemCount > 0 {
		c.publishCleared(ctx, itemCount)
	}
}

// Contains reports whether productID has a line in the cart
func (c *Cart) Contains(productID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].Product.ID == productID {
			return true
		}
	}
	return false
}

// Items returns a copy of the cart lines in insertion order
func (c *Cart) Items() []models.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// Count returns the sum of quantities across all lines
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for i := range c.items {
		count += c.items[i].Quantity
	}
	return count
}

// Total returns the sum of price times quantity across all lines
func (c *Cart) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var total float64
	for i := range c.items {
		total += c.items[i].Subtotal()
	}
	return total
}

func (c *Cart) publishAdd(ctx context.Context, product models.Product, quantity int) {
	if c.analytics == nil {
		return
	}

	event := &models.AddToCartEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			Event:     models.EventAddToCart,
			Timestamp: time.Now(),
		},
		Currency: c.currency,
		Value:    product.Price * float64(quantity),
		Items: []models.CartLine{{
			ItemID:   product.ID,
			ItemName: product.Name,
			Price:    product.Price,
			Quantity: quantity,
		}},
	}

	if err := c.analytics.PublishAddToCart(ctx, event); err != nil {
		c.logger.Error("Failed to publish add_to_cart event",
			zap.String("product_id", product.ID),
			zap.Error(err))
		return
	}
	util.AnalyticsEventsPublishedTotal.WithLabelValues(models.EventAddToCart).Inc()
}

func (c *Cart) publishCleared(ctx context.Context, itemCount int) {
	if c.analytics == nil {
		return
	}

	event := &models.CartClearedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			Event:     models.EventCartCleared,
			Timestamp: time.Now(),
		},
		ItemCount: itemCount,
	}

	if err := c.analytics.PublishCartCleared(ctx, event); err != nil {
		c.logger.Error("Failed to publish cart_cleared event", zap.Error(err))
		return
	}
	util.AnalyticsEventsPublishedTotal.WithLabelValues(models.EventCartCleared).Inc()
}

// persistLocked writes the current lines to the store. Callers hold c.mu.
func (c *Cart) persistLocked(ctx context.Context) {
	if c.store == nil {
		return
	}

	items := c.items
	if items == nil {
		items = []models.CartItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		c.logger.Error("Failed to marshal cart", zap.Error(err))
		return
	}
	if err := c.store.Set(ctx, storageKey, string(data)); err != nil {
		c.logger.Error("Failed to persist cart", zap.Error(err))
	}
}

func (c *Cart) rehydrate() {
	if c.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	raw, found, err := c.store.Get(ctx, storageKey)
	if err != nil {
		c.logger.Error("Failed to read stored cart", zap.Error(err))
		return
	}
	if !found {
		return
	}

	var items []models.CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		c.logger.Warn("Discarding corrupt cart payload", zap.Error(err))
		util.StorageCorruptionTotal.WithLabelValues(storageKey).Inc()
		return
	}

	// Drop lines a buggy or tampered payload could carry.
	kept := items[:0]
	for _, item := range items {
		if item.Product.ID != "" && item.Quantity >= 1 {
			kept = append(kept, item)
		}
	}
	c.items = kept
}
