// Package clock makes time controllable from tests.
//
// Version timestamps and autosave decisions read the time through Now()
// so that tests can freeze it.
package clock

import (
	"sync"
	"time"
)

var (
	mu             sync.RWMutex
	clockSingleton Clock = DefaultClock{}
)

type Clock interface {
	Now() time.Time
}

type DefaultClock struct{}

func (c DefaultClock) Now() time.Time {
	return time.Now()
}

// TestClock is a frozen clock that only moves when asked to.
type TestClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewTestClock() *TestClock {
	return NewTestClockAt(time.Now())
}

func NewTestClockAt(date time.Time) *TestClock {
	return &TestClock{
		now: date,
	}
}

func (c *TestClock) FastForward(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

func (c *TestClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func CurrentClock() Clock {
	mu.RLock()
	defer mu.RUnlock()
	return clockSingleton
}

// Now is the same as time.Now() but makes possible to control time from unit tests.
func Now() time.Time {
	return CurrentClock().Now()
}

// Since is the same as time.Since() but uses the current clock.
func Since(t time.Time) time.Duration {
	return Now().Sub(t)
}

func FreezeAt(now time.Time) *TestClock {
	testClock := NewTestClockAt(now)
	mu.Lock()
	clockSingleton = testClock
	mu.Unlock()
	return testClock
}

func Freeze() *TestClock {
	return FreezeAt(time.Now())
}

func Unfreeze() {
	mu.Lock()
	clockSingleton = DefaultClock{}
	mu.Unlock()
}
