// Package model defines the domain types shared across the engine:
// persisted entities (Game, Balance, LimitOrder, ExecutedTrade, Standing),
// the closed command set produced by the parsing layer, and the structured
// results handed back to the reply-formatting layer.
package model
