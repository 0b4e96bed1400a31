// Package game manages contest lifecycle: creating time-boxed games and
// closing the ones whose end time has passed, freezing their final
// standings at the moment they ended.
package game
