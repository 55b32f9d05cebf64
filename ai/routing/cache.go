package routing

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hrygo/agenthub/ai/cache"
	"github.com/hrygo/agenthub/ai/memory"
)

// CacheEntry is a cached model decision.
type CacheEntry struct {
	Agents    []string `json:"agents"`
	Timestamp int64    `json:"timestamp"`
}

// Cache keeps recent model decisions so identical requests in the same
// conversational context skip the classification call.
type Cache struct {
	lru            *cache.LRU[string, CacheEntry]
	ttl            time.Duration
	hitCount       int64
	missCount      int64
	lastStatsReset time.Time
	statsMu        sync.Mutex
}

// CacheConfig contains configuration for Cache.
type CacheConfig struct {
	Capacity int           // default: 500
	TTL      time.Duration // default: 30min
}

// NewCache creates a decision cache.
func NewCache(cfg CacheConfig) *Cache {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 500
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	return &Cache{
		lru:            cache.New[string, CacheEntry](cfg.Capacity, cfg.TTL),
		ttl:            cfg.TTL,
		lastStatsReset: time.Now(),
	}
}

// Get returns a copy of the cached agents for key.
func (c *Cache) Get(key string) ([]string, bool) {
	entry, found := c.lru.Get(key)
	if !found {
		c.incrementMiss()
		return nil, false
	}
	c.incrementHit()
	slog.Debug("routing: cache hit", "key", key, "agents", entry.Agents)
	return append([]string(nil), entry.Agents...), true
}

// Set stores a decision.
func (c *Cache) Set(key string, agentNames []string) {
	c.lru.Set(key, CacheEntry{
		Agents:    append([]string(nil), agentNames...),
		Timestamp: time.Now().Unix(),
	}, c.ttl)
}

// Clear removes all entries and resets the counters.
func (c *Cache) Clear() {
	c.lru.Clear()
	c.resetStats()
}

// Stats returns cache statistics.
type Stats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	HitRate   float64 `json:"hit_rate"`
	Size      int     `json:"size"`
	Capacity  int     `json:"capacity"`
	UptimeSec int64   `json:"uptime_sec"`
}

// GetStats returns current cache statistics.
func (c *Cache) GetStats() Stats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()

	total := c.hitCount + c.missCount
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(c.hitCount) / float64(total)
	}
	return Stats{
		Hits:      c.hitCount,
		Misses:    c.missCount,
		HitRate:   hitRate,
		Size:      c.lru.Len(),
		Capacity:  c.lru.Capacity(),
		UptimeSec: int64(time.Since(c.lastStatsReset).Seconds()),
	}
}

// CacheKey hashes everything the model decision depends on: the query,
// the attachment hint and the history window (content and handling agents).
func CacheKey(query, fileHint string, window []memory.Turn) string {
	h := sha256.New()
	h.Write([]byte(normalize(query)))
	h.Write([]byte{0})
	h.Write([]byte(fileHint))
	for _, t := range window {
		h.Write([]byte{0})
		h.Write([]byte(t.Role))
		h.Write([]byte{1})
		h.Write([]byte(strings.Join(t.Agents, ",")))
		h.Write([]byte{1})
		h.Write([]byte(t.Content))
	}
	sum := h.Sum(nil)
	return "route:" + hex.EncodeToString(sum[:8])
}

func (c *Cache) incrementHit() {
	c.statsMu.Lock()
	c.hitCount++
	c.statsMu.Unlock()
}

func (c *Cache) incrementMiss() {
	c.statsMu.Lock()
	c.missCount++
	c.statsMu.Unlock()
}

func (c *Cache) resetStats() {
	c.statsMu.Lock()
	c.hitCount = 0
	c.missCount = 0
	c.lastStatsReset = time.Now()
	c.statsMu.Unlock()
}
