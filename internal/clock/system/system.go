// Package system provides the wall-clock implementation of tiktok.Clock.
package system

import "time"

// Clock reads the real time. Handlers convert it into the reference timezone
// when rendering tracking timestamps.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time in UTC.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}
