// Package oracle fetches current and historical prices from the external
// market-data provider.
//
// The oracle:
//   - Uses the live spot-price endpoint when the requested time is within
//     60 seconds of now, and the 1-minute historical-bar endpoint otherwise
//   - Retries misses a fixed number of times with a fixed delay
//   - Raises an operator alert and returns ErrPriceUnavailable when retries
//     are exhausted; callers must never treat that as a tradeable price
//   - Caches successful single-pair lookups in a TTL-bounded cache keyed by
//     (pair, minute bucket)
package oracle
