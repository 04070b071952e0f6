package cache

import (
	"strings"
	"sync"
	"time"
)

// Cache keys the pipeline and API coordinate invalidation through.
const (
	KeyPublishedArticles = "published_articles"
	KeyDraftArticles     = "draft_articles"
	KeyTrends            = "trends"
	KeyRSSFeeds          = "rss_feeds"
)

// KeyArticlePrefix is the shared prefix of the per-article keys, used to
// invalidate all of them at once.
const KeyArticlePrefix = "article:"

// KeyArticle returns the per-article cache key.
func KeyArticle(id string) string { return KeyArticlePrefix + id }

// Default TTLs per key class.
const (
	TTLArticles = 60 * time.Second
	TTLTrends   = 300 * time.Second
	TTLRSSFeeds = 600 * time.Second
)

const sweepInterval = 5 * time.Minute

type item struct {
	value     any
	expiresAt time.Time
}

// Cache is a process-wide expiring key/value store. Entries are derived,
// not authoritative; staleness is bounded by TTL plus explicit invalidation
// on every write-path mutation. Construct one instance at startup, Start the
// sweep, and Stop it on shutdown.
type Cache struct {
	mu    sync.RWMutex
	items map[string]item

	now  func() time.Time
	stop chan struct{}
}

func New() *Cache {
	return &Cache{
		items: make(map[string]item),
		now:   time.Now,
	}
}

// Start launches the periodic sweep of expired entries.
func (c *Cache) Start() {
	if c.stop != nil {
		return
	}
	c.stop = make(chan struct{})
	go c.sweepLoop(c.stop)
}

// Stop halts the sweep goroutine. Entries stay readable until they expire.
func (c *Cache) Stop() {
	if c.stop == nil {
		return
	}
	close(c.stop)
	c.stop = nil
}

// Set stores value under key with an absolute expiry of now+ttl.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = item{value: value, expiresAt: c.now().Add(ttl)}
}

// Get returns the value for key, or false when missing or expired.
// Expired entries are removed on read.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if c.now().After(it.expiresAt) {
		delete(c.items, key)
		return nil, false
	}
	return it.value, true
}

// Delete removes key regardless of expiry.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// DeletePrefix removes every key with the given prefix.
func (c *Cache) DeletePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
		}
	}
}

// Stats reports current size and keys, for the health endpoint.
func (c *Cache) Stats() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.items))
	for k := range c.items {
		keys = append(keys, k)
	}
	return map[string]any{"size": len(c.items), "keys": keys}
}

func (c *Cache) sweepLoop(stop chan struct{}) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-stop:
			return
		}
	}
}

// sweep drops expired entries; racing with concurrent reads is harmless
// because delete-if-expired is idempotent.
func (c *Cache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, it := range c.items {
		if now.After(it.expiresAt) {
			delete(c.items, k)
		}
	}
}
