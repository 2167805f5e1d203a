package rxtest

import (
	"sync"
	"time"
)

// Origin is where every virtual clock starts. Marble times are offsets
// from it.
var Origin = time.Unix(0, 0).UTC()

// VirtualClock is a settable clock for deterministic timing tests.
//
// Unlike wall time it only moves when Set or Advance is called, and Set may
// move it backwards.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type VirtualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewVirtualClock creates a clock reading start.
func NewVirtualClock(start time.Time) *VirtualClock {
	return &VirtualClock{now: start}
}

// Now returns the current reading.
func (c *VirtualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t.
func (c *VirtualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d.
func (c *VirtualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Since returns the reading as an offset from Origin.
func (c *VirtualClock) Since() time.Duration {
	return c.Now().Sub(Origin)
}
