package timeservice

import (
	"fmt"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-trading/internal/types"
)

// sessionCache is the single-entry "last query" cache described in spec
// §4.1, keyed on (date, exchange_group, asset_class). Grounded on the
// teacher's sliding-window cache locking discipline
// (internal/backtest/engine/engine_v1/datasource/sliding_window_cache.go):
// one RWMutex; get takes Lock because it updates the hit/miss counters,
// stats takes RLock, and put and invalidate take Lock.
type sessionCache struct {
	mu     sync.RWMutex
	key    string
	result types.TradingSession
	valid  bool

	hits   int64
	misses int64
}

// CacheStats is the hit/miss/ratio snapshot returned by TimeService.CacheStats.
type CacheStats struct {
	Hits    int64
	Misses  int64
	HitRate float64
}

func sessionCacheKey(date time.Time, exchangeGroup, assetClass string) string {
	return fmt.Sprintf("%s:%s:%s", date.Format("2006-01-02"), exchangeGroup, assetClass)
}

func (c *sessionCache) get(key string) (types.TradingSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid && c.key == key {
		c.hits++

		return c.result, true
	}

	c.misses++

	return types.TradingSession{}, false
}

func (c *sessionCache) put(key string, session types.TradingSession) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.key = key
	c.result = session
	c.valid = true
}

func (c *sessionCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.key = ""
	c.valid = false
	c.hits = 0
	c.misses = 0
}

func (c *sessionCache) stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.hits + c.misses
	rate := 0.0

	if total > 0 {
		rate = float64(c.hits) / float64(total)
	}

	return CacheStats{Hits: c.hits, Misses: c.misses, HitRate: rate}
}
