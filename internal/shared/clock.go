package shared

import "time"

// Clock supplies timestamps for record creation dates. Injectable so tests
// can pin time.
type Clock interface {
	Now() time.Time
}

// SystemClock returns the wall clock in UTC.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock always returns the same instant.
type FixedClock struct {
	At time.Time
}

// Now implements Clock.
func (c FixedClock) Now() time.Time {
	return c.At
}
