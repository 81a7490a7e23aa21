package source

import (
	"context"
	"sync"
	"time"

	"github.com/scriptdex/scriptdex/pkg/catalog"
)

// DefaultTTL is how long a cached catalog is served before a refetch.
const DefaultTTL = 5 * time.Minute

// Cached serves the catalog of an inner source from memory for ttl.
type Cached struct {
	src Source
	ttl time.Duration
	now func() time.Time

	mu        sync.RWMutex
	data      []catalog.Category
	fetchedAt time.Time
}

func NewCached(src Source, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cached{src: src, ttl: ttl, now: time.Now}
}

func (c *Cached) Categories(ctx context.Context) ([]catalog.Category, error) {
	c.mu.RLock()
	data, at := c.data, c.fetchedAt
	c.mu.RUnlock()
	if data != nil && c.now().Sub(at) < c.ttl {
		return data, nil
	}

	// Cache miss, rebuild
	fresh, err := c.src.Categories(ctx)
	if err != nil {
		if data != nil {
			// Serve the stale copy rather than nothing.
			return data, nil
		}
		return nil, err
	}
	if fresh == nil {
		fresh = []catalog.Category{}
	}
	c.mu.Lock()
	c.data = fresh
	c.fetchedAt = c.now()
	c.mu.Unlock()
	return fresh, nil
}

// Invalidate drops the cached catalog so the next call refetches it.
func (c *Cached) Invalidate() {
	c.mu.Lock()
	c.data = nil
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}
