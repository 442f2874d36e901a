// Package category manages the two-level category taxonomy.
package category

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Veraticus/the-budget-must-balance/internal/model"
)

// ErrNilStore is returned when a cache or manager is built without a store.
var ErrNilStore = errors.New("category store cannot be nil")

// Loader reads the persisted taxonomy.
type Loader interface {
	GetTaxonomy(ctx context.Context) (model.Taxonomy, error)
}

// Cache is a read-through copy of the stored taxonomy. It loads on first use
// and only reloads when Refresh is called.
type Cache struct {
	store    Loader
	taxonomy model.Taxonomy
	mu       sync.RWMutex
	loaded   bool
}

// NewCache creates a cache over store.
func NewCache(store Loader) (*Cache, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	return &Cache{store: store}, nil
}

// Taxonomy returns a copy of the cached taxonomy, loading it if needed.
func (c *Cache) Taxonomy(ctx context.Context) (model.Taxonomy, error) {
	c.mu.RLock()
	if c.loaded {
		taxonomy := c.taxonomy.Clone()
		c.mu.RUnlock()
		return taxonomy, nil
	}
	c.mu.RUnlock()

	if err := c.Refresh(ctx); err != nil {
		return model.Taxonomy{}, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.taxonomy.Clone(), nil
}

// Refresh reloads the taxonomy from the store. On failure the previous
// contents are kept.
func (c *Cache) Refresh(ctx context.Context) error {
	taxonomy, err := c.store.GetTaxonomy(ctx)
	if err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.taxonomy = taxonomy
	c.loaded = true
	return nil
}

// Has reports whether a pair is in the cached taxonomy.
func (c *Cache) Has(ctx context.Context, category, subcategory string) (bool, error) {
	taxonomy, err := c.Taxonomy(ctx)
	if err != nil {
		return false, err
	}
	return taxonomy.Has(category, subcategory), nil
}
