package nursery

import (
	"errors"
	"sync"
	"time"
)

var ErrNilDatabaseConnection = errors.New("database connection must not be nil")
var ErrEmptyTableName = errors.New("empty table name supplied")

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function to the Clock interface.
type ClockFunc func() time.Time

// Now returns the time reported by the wrapped function.
func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock is the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// ManualClock is a Clock that only moves when told to. It is safe for concurrent use.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock returns a ManualClock starting at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// Set moves the clock to t.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = t
}
