package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"papalote-market/internal/models"
)

// LoadFile reads a static JSON catalog, the same shape the storefront ships
// as mock data: a top-level array of products.
func LoadFile(path string) ([]models.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var products []models.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file %s: %w", path, err)
	}

	return products, nil
}
