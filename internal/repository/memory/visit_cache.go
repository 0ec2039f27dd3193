package memory

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// VisitCache remembers which page id a URL resolved to within the dedup
// recency window, so a second report of the same visit (e.g. the page-exit
// flush) merges into the same record without a DB round trip.
type VisitCache struct {
	cache *cache.Cache
}

func NewVisitCache(window time.Duration) *VisitCache {
	// Purge at twice the window; entries expire on their own either way.
	return &VisitCache{
		cache: cache.New(window, 2*window),
	}
}

func (c *VisitCache) Remember(url string, pageId uuid.UUID) {
	c.cache.Set(url, pageId, cache.DefaultExpiration)
}

func (c *VisitCache) Lookup(url string) (uuid.UUID, bool) {
	if x, found := c.cache.Get(url); found {
		return x.(uuid.UUID), true
	}
	return uuid.Nil, false
}

func (c *VisitCache) Forget(url string) {
	c.cache.Delete(url)
}
