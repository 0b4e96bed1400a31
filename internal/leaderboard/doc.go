// Package leaderboard values every portfolio in a game and maintains the
// persisted standings snapshot the reply layer reads from.
package leaderboard
