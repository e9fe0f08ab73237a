package clock

import "time"

// FakeClock pins Now to a fixed instant so ledger and subscription tests can
// assert exact created_at and cancelled_at values.
type FakeClock struct {
	now time.Time
}

func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t.UTC()}
}

func (c *FakeClock) Now() time.Time {
	return c.now
}

// Advance moves the clock forward, for retry-window and replay scenarios.
func (c *FakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
