package cache

import (
	"log/slog"
	"sync"
	"time"

	"github.com/use-agent/finscrape/scraper"
	"golang.org/x/sync/singleflight"
)

// entry holds a cached page with its creation timestamp.
type entry struct {
	page      *scraper.Page
	createdAt time.Time
}

// Cache holds at most one parsed page per ticker. It is safe for
// concurrent use; concurrent loads of the same ticker share one fetch.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	ttl        time.Duration
	group      singleflight.Group
	now        func() time.Time
	done       chan struct{}
	stopOnce   sync.Once
}

// New creates a Cache holding up to maxEntries pages. A ttl of 0 keeps
// pages until evicted for capacity; a positive ttl also starts a
// background goroutine that prunes expired pages.
func New(maxEntries int, ttl time.Duration) *Cache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
		done:       make(chan struct{}),
	}
	if ttl > 0 {
		go c.cleanupLoop(ttl)
	}
	return c
}

// Get returns the cached page for ticker if present and not expired.
func (c *Cache) Get(ticker string) (*scraper.Page, bool) {
	c.mu.RLock()
	e, ok := c.store[ticker]
	c.mu.RUnlock()

	if !ok || c.expired(e) {
		return nil, false
	}
	return e.page, true
}

// Set stores a page for ticker, replacing any previous one. If the cache is
// at capacity, a random entry is evicted to make room.
func (c *Cache) Set(ticker string, page *scraper.Page) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.store[ticker]; !exists && len(c.store) >= c.maxEntries {
		// Map iteration order is random in Go.
		for k := range c.store {
			delete(c.store, k)
			slog.Debug("cache: evicted page", "ticker", k)
			break
		}
	}

	c.store[ticker] = &entry{page: page, createdAt: c.now()}
}

// GetOrLoad returns the cached page for ticker, calling load on a miss.
// Concurrent misses for the same ticker share a single load call.
func (c *Cache) GetOrLoad(ticker string, load func() (*scraper.Page, error)) (*scraper.Page, error) {
	if p, ok := c.Get(ticker); ok {
		return p, nil
	}
	v, err, _ := c.group.Do(ticker, func() (any, error) {
		if p, ok := c.Get(ticker); ok {
			return p, nil
		}
		p, err := load()
		if err != nil {
			return nil, err
		}
		c.Set(ticker, p)
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*scraper.Page), nil
}

// Len returns the number of stored pages, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Stop terminates the background cleanup goroutine.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

func (c *Cache) expired(e *entry) bool {
	return c.ttl > 0 && c.now().Sub(e.createdAt) > c.ttl
}

// cleanupLoop evicts expired pages once per ttl.
func (c *Cache) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.Lock()
			for k, e := range c.store {
				if c.expired(e) {
					delete(c.store, k)
				}
			}
			c.mu.Unlock()
		}
	}
}
