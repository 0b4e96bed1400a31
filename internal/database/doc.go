// Package database owns the Postgres connection pool and the schema.
// The database is the single source of truth; all cross-goroutine
// coordination is expressed as transactions and row locks on it.
package database
