package postservice

import (
	"context"
	"sync"
	"time"

	"github.com/starford/inkwell/internal/models"
)

// listingCache holds the aggregated post listing for a TTL. A TTL of zero
// disables caching.
type listingCache struct {
	mu      sync.RWMutex
	posts   []models.Post
	fetched time.Time
	ttl     time.Duration
	now     func() time.Time
	load    func(ctx context.Context) ([]models.Post, error)
}

func newListingCache(ttl time.Duration, load func(ctx context.Context) ([]models.Post, error)) *listingCache {
	return &listingCache{ttl: ttl, now: time.Now, load: load}
}

func (c *listingCache) valid() bool {
	return c.posts != nil && c.now().Sub(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read reloads.
func (c *listingCache) Invalidate() {
	c.mu.Lock()
	c.posts = nil
	c.mu.Unlock()
}

// Posts returns the cached listing, reloading it when stale. Callers must
// not modify the returned slice.
func (c *listingCache) Posts(ctx context.Context) ([]models.Post, error) {
	if c.ttl <= 0 {
		return c.load(ctx)
	}

	c.mu.RLock()
	if c.valid() {
		posts := c.posts
		c.mu.RUnlock()
		return posts, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid() {
		return c.posts, nil
	}
	posts, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []models.Post{}
	}
	c.posts = posts
	c.fetched = c.now()
	return posts, nil
}
