// Package clock abstracts wall time so load timestamps and fetch durations
// can be pinned in tests.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

// MockClock returns CurrentTime until advanced.
type MockClock struct {
	CurrentTime time.Time
}

func (c *MockClock) Now() time.Time {
	return c.CurrentTime
}

func (c *MockClock) Advance(d time.Duration) {
	c.CurrentTime = c.CurrentTime.Add(d)
}

// Since reports the time elapsed on c since t.
func Since(c Clock, t time.Time) time.Duration {
	return c.Now().Sub(t)
}
