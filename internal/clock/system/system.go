// Package system provides the wall clock used to stamp datasets.
package system

import "time"

// Clock reports the current time in UTC.
type Clock struct{}

// New creates a Clock.
func New() Clock {
	return Clock{}
}

// Now returns time.Now in UTC, truncated to the second so stamps compare
// equal across JSON round trips.
func (Clock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
