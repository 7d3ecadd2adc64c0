package signalcache

import (
	"sync"
	"time"

	"github.com/wonny/chartsignal/internal/contracts"
	"github.com/wonny/chartsignal/pkg/logger"
)

// Entry is a cached signal with its storage time
type Entry struct {
	Signal   *contracts.Signal `json:"signal"`
	StoredAt time.Time         `json:"stored_at"`
	IsStale  bool              `json:"is_stale"`
}

// Cache is an in-memory cache of the latest signal per symbol
// ⭐ SSOT: 최신 시그널 캐싱은 이 구조체에서만
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	ttl     time.Duration
	logger  *logger.Logger
	now     func() time.Time
}

// New creates a new signal cache
func New(ttl time.Duration, log *logger.Logger) *Cache {
	return &Cache{
		entries: make(map[string]*Entry),
		ttl:     ttl,
		logger:  log.WithComponent("signalcache"),
		now:     time.Now,
	}
}

// Set stores sig. Signals for an older evaluation date than the cached one
// are rejected.
func (c *Cache) Set(sig *contracts.Signal) bool {
	if sig == nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := contracts.NormalizeSymbol(sig.Symbol)
	if existing, ok := c.entries[key]; ok && sig.AsOf.Before(existing.Signal.AsOf) {
		c.logger.WithFields(map[string]interface{}{
			"symbol":   key,
			"new_asof": sig.AsOf,
			"old_asof": existing.Signal.AsOf,
		}).Debug("Rejected older signal")
		return false
	}

	c.entries[key] = &Entry{Signal: sig, StoredAt: c.now()}
	return true
}

// Get retrieves the cached signal. Stale entries are still returned, flagged.
func (c *Cache) Get(symbol string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[contracts.NormalizeSymbol(symbol)]
	if !ok {
		return Entry{}, false
	}
	return c.view(e), true
}

// GetFresh returns the signal only while it is within ttl
func (c *Cache) GetFresh(symbol string) (*contracts.Signal, bool) {
	e, ok := c.Get(symbol)
	if !ok || e.IsStale {
		return nil, false
	}
	return e.Signal, true
}

// GetAll returns a copy of every entry
func (c *Cache) GetAll() map[string]Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]Entry, len(c.entries))
	for symbol, e := range c.entries {
		result[symbol] = c.view(e)
	}
	return result
}

// view copies e with staleness evaluated now; callers hold mu
func (c *Cache) view(e *Entry) Entry {
	out := *e
	out.IsStale = c.now().Sub(e.StoredAt) > c.ttl
	return out
}

// Delete removes a symbol from cache
func (c *Cache) Delete(symbol string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, contracts.NormalizeSymbol(symbol))
}

// Clear clears the cache
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*Entry)
	c.logger.Info("Cleared signal cache")
}

// Len returns the number of cached symbols
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// CleanStale removes entries older than ttl
func (c *Cache) CleanStale() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	count := 0
	for symbol, e := range c.entries {
		if now.Sub(e.StoredAt) > c.ttl {
			delete(c.entries, symbol)
			count++
		}
	}

	if count > 0 {
		c.logger.WithField("count", count).Info("Cleaned stale signals from cache")
	}
	return count
}

// Stats returns cache statistics
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := Stats{
		TotalCount: len(c.entries),
		ByLabel:    make(map[contracts.Label]int),
	}

	now := c.now()
	for _, e := range c.entries {
		if now.Sub(e.StoredAt) > c.ttl {
			stats.StaleCount++
		}
		stats.ByLabel[e.Signal.Overall]++
	}
	stats.FreshCount = stats.TotalCount - stats.StaleCount

	return stats
}

// Stats represents cache statistics
type Stats struct {
	TotalCount int                     `json:"total_count"`
	FreshCount int                     `json:"fresh_count"`
	StaleCount int                     `json:"stale_count"`
	ByLabel    map[contracts.Label]int `json:"by_label"`
}
