package testutil

import (
	"sync"
	"time"
)

// Epoch is the first reading of a new FakeClock
var Epoch = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

// FakeClock advances by Step on every reading, so consecutive writes get
// distinct, increasing timestamps
type FakeClock struct {
	mu   sync.Mutex
	now  time.Time
	Step time.Duration
}

func NewFakeClock() *FakeClock {
	return &FakeClock{now: Epoch, Step: time.Second}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.Step)
	return t
}

// Advance moves the clock forward without taking a reading
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
