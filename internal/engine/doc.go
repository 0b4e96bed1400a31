// Package engine validates and executes orders against the ledger: market
// orders filled at the oracle price, limit orders reserved at creation and
// settled by the periodic sweep, cancellations that release reservations,
// and the portfolio projection attached to results.
package engine
