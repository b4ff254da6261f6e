// Package clock defines the Clock domain type tracked by the clock
// registry: a named time source (wall clock, MIDI timecode, a mission
// countdown, ...) that can be started, stopped, and ticks forward.
package clock

import (
	"sync"

	"github.com/flockwave/flockd/internal/signalbus"
)

// Clock is one named time source. Concrete time sources (system time,
// an MTC/LTC-driven timecode clock fed by internal/conn's MIDI
// connection, a countdown) drive a Clock through Start, Stop and Tick;
// the kernel only needs the common id/running/signal surface.
type Clock struct {
	mu      sync.RWMutex
	clockID string
	running bool
	ticks   int64

	Started signalbus.Signal[struct{}]
	Stopped signalbus.Signal[struct{}]
	Changed signalbus.Signal[int64]
}

// New constructs a stopped Clock at tick 0.
func New(id string) *Clock {
	return &Clock{clockID: id}
}

// ID implements registry.Entry.
func (c *Clock) ID() string { return c.clockID }

// Running reports whether the clock is currently ticking.
func (c *Clock) Running() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.running
}

// Ticks returns the current tick count.
func (c *Clock) Ticks() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ticks
}

// Start transitions the clock to running and fires Started, unless it
// is already running.
func (c *Clock) Start() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.mu.Unlock()
	c.Started.Send(c, struct{}{})
}

// Stop transitions the clock to stopped and fires Stopped, unless it
// is already stopped.
func (c *Clock) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	c.mu.Unlock()
	c.Stopped.Send(c, struct{}{})
}

// Tick advances the clock by delta ticks and fires Changed with the
// new total, a no-op if the clock is stopped.
func (c *Clock) Tick(delta int64) {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.ticks += delta
	total := c.ticks
	c.mu.Unlock()
	c.Changed.Send(c, total)
}
