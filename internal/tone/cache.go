package tone

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// ErrNoGuide means the style reference source returned no rows. Callers
// that can degrade gracefully should treat it as "no guide", not a failure.
var ErrNoGuide = errors.New("no data found in tone guide")

const defaultTTL = time.Hour

// Cache holds a single parsed guide and refreshes it from the source once
// per TTL window. Fetch failures and empty datasets are never cached, so
// the next call retries.
type Cache struct {
	mu        sync.Mutex
	source    Source
	guide     *Guide
	fetchedAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

// NewCache creates a guide cache over a source with the default 1h TTL
func NewCache(source Source) *Cache {
	return &Cache{
		source: source,
		ttl:    defaultTTL,
		now:    time.Now,
	}
}

// Get returns the cached guide while it is still fresh, otherwise fetches
// and parses a new one. Refresh is single-flight: concurrent callers block
// on the mutex and the first one through does the fetch.
func (c *Cache) Get(ctx context.Context) (*Guide, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.guide != nil && c.now().Sub(c.fetchedAt) < c.ttl {
		return c.guide, nil
	}

	rows, err := c.source.FetchRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tone guide: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoGuide
	}

	c.guide = ParseRows(rows)
	c.fetchedAt = c.now()
	log.Printf("Tone guide refreshed (%d rows)", len(rows))
	return c.guide, nil
}

// Invalidate drops the cached guide so the next Get refetches
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.guide = nil
	c.fetchedAt = time.Time{}
}

// Valid reports whether a cached guide exists and is inside the TTL window
func (c *Cache) Valid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.guide != nil && c.now().Sub(c.fetchedAt) < c.ttl
}
