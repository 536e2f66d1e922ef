package models

import "time"

// Event names
const (
	EventAddToCart   = "add_to_cart"
	EventCartCleared = "cart_cleared"
)

// BaseEvent contains common fields for all analytics events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
}

// CartLine is the per-item payload inside cart analytics events
type CartLine struct {
	ItemID   string  `json:"item_id"`
	ItemName string  `json:"item_name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// AddToCartEvent is published every time a product is added to the cart
type AddToCartEvent struct {
	BaseEvent
	Currency string     `json:"currency"`
	Value    float64    `json:"value"`
	Items    []CartLine `json:"items"`
}

// CartClearedEvent is published when the whole cart is emptied
type CartClearedEvent struct {
	BaseEvent
	ItemCount int `json:"item_count"`
}
