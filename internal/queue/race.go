//go:build race

package queue

// RaceEnabled is true when the race detector is active. No test in this
// repository reads it.
const RaceEnabled = true
