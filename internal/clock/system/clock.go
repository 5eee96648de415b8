// Package system provides a real clock implementation.
package system

import "time"

// Clock reports wall-clock time in UTC. Job records and run durations are
// always stamped through it so tests can substitute a fixed clock.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}
