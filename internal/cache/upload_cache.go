package cache

import (
	"sync"
	"time"

	"gradegraph/internal/dataprocessing"
	"gradegraph/pkg/contracts/domain"
)

// Upload is an analyzed sheet held in memory between requests.
type Upload struct {
	Summary domain.UploadSummary
	Result  *dataprocessing.Result
}

// Entry wraps a cached upload with its bookkeeping.
type Entry struct {
	Upload    *Upload   `json:"-"`
	CachedAt  time.Time `json:"cached_at"`
	ExpiresAt time.Time `json:"expires_at"`
	HitCount  int       `json:"hit_count"`
}

// UploadCache keeps processed uploads keyed by upload ID. Entries expire
// after ttl; a ttl of zero keeps them until evicted. When maxSize is reached
// the oldest entry makes room.
type UploadCache struct {
	entries   map[string]Entry
	latest    string
	mutex     sync.RWMutex
	ttl       time.Duration
	maxSize   int
	hitCount  int64
	missCount int64
	stopChan  chan struct{}
	stopOnce  sync.Once
}

// NewUploadCache creates a cache and starts its cleanup goroutine. Call
// Stop to end it.
func NewUploadCache(ttl time.Duration, maxSize int) *UploadCache {
	c := &UploadCache{
		entries:  make(map[string]Entry),
		ttl:      ttl,
		maxSize:  maxSize,
		stopChan: make(chan struct{}),
	}

	go c.cleanup(cleanupInterval(ttl))

	return c
}

func cleanupInterval(ttl time.Duration) time.Duration {
	interval := 5 * time.Minute
	if ttl > 0 && ttl/2 < interval {
		interval = ttl / 2
	}
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}

// Get returns the upload stored under id.
func (c *UploadCache) Get(id string) (*Upload, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[id]
	if !exists || c.expired(entry, time.Now()) {
		c.missCount++
		return nil, false
	}

	entry.HitCount++
	c.entries[id] = entry
	c.hitCount++

	return entry.Upload, true
}

// Latest returns the most recently stored upload that is still cached.
func (c *UploadCache) Latest() (*Upload, bool) {
	c.mutex.RLock()
	id := c.latest
	c.mutex.RUnlock()

	if id == "" {
		return nil, false
	}
	return c.Get(id)
}

// Set stores an upload under its summary ID.
func (c *UploadCache) Set(u *Upload) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.set(u)
}

// Replace drops every cached upload and stores u as the only entry.
func (c *UploadCache) Replace(u *Upload) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = make(map[string]Entry)
	c.latest = ""
	c.set(u)
}

func (c *UploadCache) set(u *Upload) {
	if c.maxSize <= 0 || u == nil {
		return
	}

	id := u.Summary.ID
	if _, exists := c.entries[id]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	now := time.Now()
	entry := Entry{
		Upload:   u,
		CachedAt: now,
	}
	if c.ttl > 0 {
		entry.ExpiresAt = now.Add(c.ttl)
	}
	c.entries[id] = entry
	c.latest = id
}

// Invalidate removes an upload from the cache.
func (c *UploadCache) Invalidate(id string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.entries, id)
	if c.latest == id {
		c.latest = ""
	}
}

// Len returns the number of stored entries, including expired ones not yet
// cleaned up.
func (c *UploadCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.entries)
}

// GetStats returns cache statistics
func (c *UploadCache) GetStats() map[string]interface{} {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	totalRequests := c.hitCount + c.missCount
	hitRatio := float64(0)
	if totalRequests > 0 {
		hitRatio = float64(c.hitCount) / float64(totalRequests)
	}

	return map[string]interface{}{
		"entries":     len(c.entries),
		"max_size":    c.maxSize,
		"hit_count":   c.hitCount,
		"miss_count":  c.missCount,
		"hit_ratio":   hitRatio,
		"ttl_seconds": c.ttl.Seconds(),
		"latest":      c.latest,
	}
}

func (c *UploadCache) expired(e Entry, now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

func (c *UploadCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.entries {
		if oldestKey == "" || entry.CachedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.CachedAt
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
		if c.latest == oldestKey {
			c.latest = ""
		}
	}
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (c *UploadCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

func (c *UploadCache) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.purgeExpired(time.Now())
		case <-c.stopChan:
			return
		}
	}
}

func (c *UploadCache) purgeExpired(now time.Time) int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if c.expired(entry, now) {
			delete(c.entries, key)
			if c.latest == key {
				c.latest = ""
			}
			removed++
		}
	}
	return removed
}
