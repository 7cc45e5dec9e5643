// Package clock provides a time abstraction so the staging-path sequence
// can be driven deterministically in tests.
package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// System implements Clock using the system time.
type System struct{}

// Now returns the current system time.
func (System) Now() time.Time {
	return time.Now()
}

// Fake implements Clock with a controllable time for testing.
type Fake struct {
	current time.Time
}

// NewFake creates a Fake clock pinned to the given time.
func NewFake(t time.Time) *Fake {
	return &Fake{current: t}
}

// Now returns the pinned time.
func (c *Fake) Now() time.Time {
	return c.current
}

// Advance moves the pinned time forward by the given duration.
func (c *Fake) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}
