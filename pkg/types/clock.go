package types

import "time"

// Clock abstracts wall-clock time so the escalation ladder's hour-scale
// transitions can be driven deterministically in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the instant it holds. Advance moves it.
type FixedClock struct {
	Instant time.Time
}

// Now implements Clock.
func (c *FixedClock) Now() time.Time { return c.Instant }

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) { c.Instant = c.Instant.Add(d) }
