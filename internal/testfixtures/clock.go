package testfixtures

import (
	"sync"
	"time"
)

// DayLayout is the attendance day key format.
const DayLayout = "2006-01-02"

// Clock is a manually driven time source. Services take its NowFunc so tests
// decide when a complaint completes or an attendance day rolls over.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts at start, or at ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// NowFunc returns c.Now, or time.Now for a nil clock.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock by d and returns the new instant.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// NextDay keeps the wall-clock time and moves to the following calendar day.
func (c *Clock) NextDay() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.AddDate(0, 0, 1)
	return c.now
}

// Day returns the attendance key for the current instant in its own location.
func (c *Clock) Day() string {
	return c.Now().Format(DayLayout)
}
