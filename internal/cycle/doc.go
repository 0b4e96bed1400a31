// Package cycle drives the engine's periodic maintenance loop: refresh
// leaderboards, sweep limit orders, and close expired games.
package cycle
