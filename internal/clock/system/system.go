// Package system provides the wall clock used for score timestamps.
package system

import "time"

// Clock implements score.Clock on time.Now. Timestamps are UTC and truncated
// to whole milliseconds so every store backend round-trips them unchanged.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current UTC time at millisecond precision.
func (Clock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
