// Package catalog exposes read-only category lookups. The catalog is an
// input to the ledger: the mutation path only uses it to classify the
// auto-generated saving-deposit transactions.
package catalog

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
)

type Store interface {
	FindSystemCategoryByType(ctx context.Context, t core.CategoryType) (*core.Category, error)
	ListCategories(ctx context.Context, ownerID string) ([]core.Category, error)
}

type Catalog struct {
	store Store
	cache *cache.LRUCache[core.Category]
}

func New(store Store) *Catalog {
	return &Catalog{
		store: store,
		cache: cache.NewLRUCache[core.Category](16, time.Hour),
	}
}

// SystemCategory returns the shared category of the given type. System
// categories are seeded by migration and change rarely, so lookups are
// cached.
func (c *Catalog) SystemCategory(ctx context.Context, t core.CategoryType) (core.Category, error) {
	if cat, ok := c.cache.Get(string(t)); ok {
		return cat, nil
	}

	cat, err := c.store.FindSystemCategoryByType(ctx, t)
	if err != nil {
		return core.Category{}, fmt.Errorf("system category %q: %w", t, err)
	}

	c.cache.Set(string(t), *cat)
	return *cat, nil
}

// List returns the owner's categories plus the shared system ones.
func (c *Catalog) List(ctx context.Context, ownerID string) ([]core.Category, error) {
	return c.store.ListCategories(ctx, ownerID)
}
