// Package dispatch routes parsed commands to the engine and game
// manager. It owns the per-request boundary: replay protection keyed by
// request ID, admin gating for game creation, panic containment, and
// once-per-request operator alerting.
package dispatch
