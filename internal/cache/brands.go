package cache

import (
	"context"
	"sync"
	"time"

	"diapertrack/internal/core"
)

const brandNamesKey = "brand_names"

// BrandRegistry serves ListBrandNames from memory and invalidates on every
// registry mutation. Purchases register brands directly in storage, so callers
// recording a purchase must call Invalidate.
type BrandRegistry struct {
	core.BrandRegistry
	names *LRUCache[[]string]

	// gen counts invalidations; a fetch that raced one is not cached.
	mu  sync.Mutex
	gen uint64
}

var _ core.BrandRegistry = (*BrandRegistry)(nil)

func NewBrandRegistry(next core.BrandRegistry, ttl time.Duration) *BrandRegistry {
	return &BrandRegistry{BrandRegistry: next, names: NewLRUCache[[]string](1, ttl)}
}

// Cleaner exposes the underlying cache for registration with a Manager.
func (b *BrandRegistry) Cleaner() Cleaner {
	return b.names
}

func (b *BrandRegistry) ListBrandNames(ctx context.Context) ([]string, error) {
	if names, ok := b.names.Get(brandNamesKey); ok {
		return append([]string(nil), names...), nil
	}
	b.mu.Lock()
	gen := b.gen
	b.mu.Unlock()

	names, err := b.BrandRegistry.ListBrandNames(ctx)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	if b.gen == gen {
		b.names.Set(brandNamesKey, names)
	}
	b.mu.Unlock()
	return append([]string(nil), names...), nil
}

func (b *BrandRegistry) AddBrand(ctx context.Context, name string) error {
	defer b.Invalidate()
	return b.BrandRegistry.AddBrand(ctx, name)
}

func (b *BrandRegistry) UpdateBrand(ctx context.Context, id int64, name string) error {
	defer b.Invalidate()
	return b.BrandRegistry.UpdateBrand(ctx, id, name)
}

func (b *BrandRegistry) DeleteBrand(ctx context.Context, id int64) error {
	defer b.Invalidate()
	return b.BrandRegistry.DeleteBrand(ctx, id)
}

func (b *BrandRegistry) Invalidate() {
	b.mu.Lock()
	b.gen++
	b.names.Purge()
	b.mu.Unlock()
}
