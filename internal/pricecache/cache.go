// Package pricecache holds the latest known market price per symbol.
//
// The cache is the evaluator's read path and the refresher's write path.
// Entries are upserted per symbol with last-write-wins semantics: a
// late-arriving stale update still overwrites, matching the at-least-once
// refresh model. A symbol with no entry is a distinct "unpriced" state and
// is reported as such, never defaulted.
package pricecache

import (
	"sort"
	"sync"
	"time"

	"github.com/ngoclma/risk-monitoring-system/internal/models"
)

// Cache is a concurrency-safe in-memory quote store. There is no eviction;
// the symbol universe is bounded by what clients actually hold.
type Cache struct {
	mu     sync.RWMutex
	quotes map[string]models.PriceQuote
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		quotes: make(map[string]models.PriceQuote),
	}
}

// Get returns the live quote for a symbol, if one has been observed.
func (c *Cache) Get(symbol string) (models.PriceQuote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	quote, ok := c.quotes[symbol]
	return quote, ok
}

// Put upserts the quote for a symbol.
func (c *Cache) Put(symbol string, price float64, timestamp time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.quotes[symbol] = models.PriceQuote{
		Symbol:    symbol,
		Price:     price,
		Timestamp: timestamp,
	}
}

// Load bulk-inserts quotes, typically to warm the cache from the durable
// copy at startup.
func (c *Cache) Load(quotes []models.PriceQuote) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, q := range quotes {
		c.quotes[q.Symbol] = q
	}
}

// Snapshot returns all live quotes ordered by symbol.
func (c *Cache) Snapshot() []models.PriceQuote {
	c.mu.RLock()
	defer c.mu.RUnlock()

	quotes := make([]models.PriceQuote, 0, len(c.quotes))
	for _, q := range c.quotes {
		quotes = append(quotes, q)
	}
	sort.Slice(quotes, func(i, j int) bool {
		return quotes[i].Symbol < quotes[j].Symbol
	})
	return quotes
}

// Len returns the number of symbols with a live quote.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.quotes)
}
