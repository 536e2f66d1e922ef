package models

import (
	"time"

	"github.com/lib/pq"
)

// Product represents an artisan product in the catalog. The core never
// mutates a Product; containers and the recommendation engine treat it as
// read-only input.
type Product struct {
	ID          string         `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Price       float64        `db:"price" json:"price"`
	Category    string         `db:"category" json:"category"`
	Subcategory string         `db:"subcategory" json:"subcategory,omitempty"`
	Maker       string         `db:"maker" json:"maker,omitempty"`
	State       string         `db:"state" json:"state,omitempty"`
	Materials   pq.StringArray `db:"materials" json:"materials,omitempty"`
	InStock     bool           `db:"in_stock" json:"in_stock"`
	Featured    bool           `db:"featured" json:"featured,omitempty"`
	Verified    bool           `db:"verified" json:"verified,omitempty"`
	Rating      float64        `db:"rating" json:"rating,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at,omitempty"`
}

// CartItem is a product line in the shopping cart. Quantity is always >= 1;
// an item whose quantity would drop to zero is removed instead.
type CartItem struct {
	Product  Product   `json:"product"`
	Quantity int       `json:"quantity"`
	AddedAt  time.Time `json:"added_at"`
}

// Subtotal returns price times quantity for this line.
func (ci CartItem) Subtotal() float64 {
	return ci.Product.Price * float64(ci.Quantity)
}

// RecentlyViewedEntry records one product-detail view.
type RecentlyViewedEntry struct {
	ID       string    `json:"id"`
	ViewedAt time.Time `json:"viewed_at"`
}
