// Package sim is an in-process evaluation harness: virtual time, highway
// mobility, an in-memory broadcast bus that carries real wire envelopes,
// and a runner that drives vehicle and authority actors through a
// scripted scenario.
package sim

import (
	"sync"
	"time"
)

// Clock is the time source injected into every simulated component.
type Clock interface {
	Now() time.Time
}

// VirtualClock is a manually advanced clock. The runner steps it; no
// component ever sleeps against it.
type VirtualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewVirtualClock creates a clock frozen at start.
func NewVirtualClock(start time.Time) *VirtualClock {
	return &VirtualClock{now: start}
}

// Now returns the current virtual time.
func (c *VirtualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

// Advance moves the clock forward by d.
func (c *VirtualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}
