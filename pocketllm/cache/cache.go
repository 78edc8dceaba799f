// pocketllm/cache/cache.go
package cache

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	DefaultTTL          = 30 * time.Minute
	DefaultMaxSizeBytes = 4 << 20

	// Serialized length is multiplied by this factor to approximate the
	// in-memory footprint. Any consistent, monotonic proxy works here;
	// exact byte accounting is not the goal.
	sizeFactor = 2
)

// Response is the cached inference payload.
type Response struct {
	Text   string `json:"text"`
	Tokens int    `json:"tokens,omitempty"`
}

// Entry is one cached response record. An entry is visible to Lookup only
// while now < ExpiresAt; after that it is treated as absent and physically
// removed on the next access or sweep.
type Entry struct {
	Fingerprint string    `json:"fingerprint"`
	Response    Response  `json:"response"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	AccessCount int       `json:"access_count"`

	size int64
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits         uint64  `json:"hits"`
	Misses       uint64  `json:"misses"`
	HitRate      float64 `json:"hit_rate"`
	Evictions    uint64  `json:"evictions"`
	Expirations  uint64  `json:"expirations"`
	Entries      int     `json:"entries"`
	SizeBytes    int64   `json:"size_bytes"`
	MaxSizeBytes int64   `json:"max_size_bytes"`
	TTLSeconds   int     `json:"ttl_seconds"`
}

// ResponseCache is a bounded, TTL-based map from request fingerprints to
// cached inference responses. When the estimated total size would exceed
// the configured maximum, entries are evicted one at a time, oldest
// CreatedAt first, until the new entry fits or the cache is empty. Safe for
// concurrent use; the portal shares one instance across handlers.
type ResponseCache struct {
	mu          sync.Mutex
	entries     map[string]*Entry
	ttl         time.Duration
	maxSize     int64
	size        int64
	hits        uint64
	misses      uint64
	evictions   uint64
	expirations uint64

	now func() time.Time
}

// New builds a cache. Non-positive arguments fall back to DefaultTTL and
// DefaultMaxSizeBytes.
func New(ttl time.Duration, maxSizeBytes int64) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxSizeBytes <= 0 {
		maxSizeBytes = DefaultMaxSizeBytes
	}
	return &ResponseCache{
		entries: make(map[string]*Entry),
		ttl:     ttl,
		maxSize: maxSizeBytes,
		now:     time.Now,
	}
}

// Lookup returns a copy of the entry under key, or ok=false when the key is
// missing or expired. A found-but-expired entry is purged as a side effect
// and counts as a miss.
func (c *ResponseCache) Lookup(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return Entry{}, false
	}
	if !c.now().Before(e.ExpiresAt) {
		c.removeLocked(key)
		c.expirations++
		c.misses++
		return Entry{}, false
	}
	e.AccessCount++
	c.hits++
	return *e, true
}

// Store inserts or overwrites the entry under key using the configured TTL.
func (c *ResponseCache) Store(key string, resp Response) {
	c.StoreWithTTL(key, resp, 0)
}

// StoreWithTTL inserts or overwrites the entry under key. A non-positive
// ttl uses the configured default. Eviction runs before insertion so the
// estimated total stays under budget; a single entry larger than the whole
// budget still lands after the cache has been emptied.
func (c *ResponseCache) StoreWithTTL(key string, resp Response, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl <= 0 {
		ttl = c.ttl
	}
	if old, ok := c.entries[key]; ok {
		c.size -= old.size
		delete(c.entries, key)
	}

	size := estimateSize(key, resp)
	c.evictForLocked(size)

	now := c.now()
	c.entries[key] = &Entry{
		Fingerprint: key,
		Response:    resp,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
		size:        size,
	}
	c.size += size
}

// Clear removes every entry and returns how many were removed.
func (c *ResponseCache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := len(c.entries)
	c.entries = make(map[string]*Entry)
	c.size = 0
	return removed
}

// Configure updates the TTL applied to future entries and the size budget.
// Non-positive values leave the current setting untouched. Lowering the
// budget triggers an immediate oldest-first eviction sweep.
func (c *ResponseCache) Configure(ttl time.Duration, maxSizeBytes int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl > 0 {
		c.ttl = ttl
	}
	if maxSizeBytes > 0 {
		c.maxSize = maxSizeBytes
		c.evictForLocked(0)
	}
}

// Sweep physically removes every expired entry and returns the count.
func (c *ResponseCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if !now.Before(e.ExpiresAt) {
			c.removeLocked(key)
			c.expirations++
			removed++
		}
	}
	return removed
}

func (c *ResponseCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Hits:         c.hits,
		Misses:       c.misses,
		Evictions:    c.evictions,
		Expirations:  c.expirations,
		Entries:      len(c.entries),
		SizeBytes:    c.size,
		MaxSizeBytes: c.maxSize,
		TTLSeconds:   int(c.ttl / time.Second),
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

// evictForLocked evicts oldest-CreatedAt entries until incoming fits in the
// budget or the cache is empty.
func (c *ResponseCache) evictForLocked(incoming int64) {
	for c.size+incoming > c.maxSize && len(c.entries) > 0 {
		oldestKey := ""
		var oldest time.Time
		for key, e := range c.entries {
			if oldestKey == "" || e.CreatedAt.Before(oldest) {
				oldestKey = key
				oldest = e.CreatedAt
			}
		}
		c.removeLocked(oldestKey)
		c.evictions++
	}
}

func (c *ResponseCache) removeLocked(key string) {
	if e, ok := c.entries[key]; ok {
		c.size -= e.size
		delete(c.entries, key)
	}
}

func estimateSize(key string, resp Response) int64 {
	data, err := json.Marshal(resp)
	if err != nil {
		data = []byte(resp.Text)
	}
	return int64(len(key)+len(data)) * sizeFactor
}
