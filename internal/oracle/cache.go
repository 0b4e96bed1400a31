package oracle

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// priceCache is a TTL-bounded cache of successful lookups keyed by
// (symbol pair, minute bucket). It replaces ambient global price state:
// the oracle owns it and nothing else can reach it.
type priceCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	price   decimal.Decimal
	expires time.Time
}

func newPriceCache(ttl time.Duration) *priceCache {
	return &priceCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func cacheKey(fromSymbol, toSymbol string, at time.Time) string {
	return fmt.Sprintf("%s/%s@%d", fromSymbol, toSymbol, at.Unix()/60)
}

func (pc *priceCache) get(fromSymbol, toSymbol string, at time.Time) (decimal.Decimal, bool) {
	if pc.ttl <= 0 {
		return decimal.Decimal{}, false
	}

	pc.mu.Lock()
	defer pc.mu.Unlock()

	e, ok := pc.entries[cacheKey(fromSymbol, toSymbol, at)]
	if !ok || time.Now().After(e.expires) {
		return decimal.Decimal{}, false
	}
	return e.price, true
}

func (pc *priceCache) put(fromSymbol, toSymbol string, at time.Time, price decimal.Decimal) {
	if pc.ttl <= 0 {
		return
	}

	pc.mu.Lock()
	defer pc.mu.Unlock()

	now := time.Now()
	// Lazy pruning keeps the map from growing across long runs.
	for k, e := range pc.entries {
		if now.After(e.expires) {
			delete(pc.entries, k)
		}
	}

	pc.entries[cacheKey(fromSymbol, toSymbol, at)] = cacheEntry{
		price:   price,
		expires: now.Add(pc.ttl),
	}
}
