// Package ledger is the durable store of games, balances, limit orders,
// executed trades, standings, and processed requests.
//
// Every multi-step mutation runs inside a single transaction and locks the
// balance rows it reads with SELECT ... FOR UPDATE, so concurrent sweeps and
// commands serialize per (game, owner, currency) and balance conservation
// holds. Amounts cross the wire as decimal strings; no float money.
package ledger
