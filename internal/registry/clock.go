package registry

import (
	"sync"

	"github.com/flockwave/flockd/internal/clock"
	"github.com/flockwave/flockd/internal/signalbus"
)

// ClockRegistry indexes every registered clock.Clock and redispatches
// each one's Started/Stopped/Changed signal as a single
// ClockChanged signal, so CLK-INF broadcasts don't require subscribing
// to every clock individually.
type ClockRegistry struct {
	*Registry[*clock.Clock]

	mu           sync.Mutex
	disposers    map[string][]signalbus.Disposer
	ClockChanged signalbus.Signal[*clock.Clock]
}

// NewClockRegistry constructs an empty ClockRegistry.
func NewClockRegistry() *ClockRegistry {
	r := &ClockRegistry{
		Registry:  New[*clock.Clock](),
		disposers: make(map[string][]signalbus.Disposer),
	}
	r.Added.Connect(func(sender any, c *clock.Clock) { r.watch(c) })
	r.Removed.Connect(func(sender any, c *clock.Clock) { r.unwatch(c.ID()) })
	return r
}

func (r *ClockRegistry) watch(c *clock.Clock) {
	fire := func(sender any, _ any) { r.ClockChanged.Send(r, c) }
	d1 := c.Started.Connect(func(sender any, _ struct{}) { fire(sender, nil) })
	d2 := c.Stopped.Connect(func(sender any, _ struct{}) { fire(sender, nil) })
	d3 := c.Changed.Connect(func(sender any, _ int64) { fire(sender, nil) })

	r.mu.Lock()
	r.disposers[c.ID()] = []signalbus.Disposer{d1, d2, d3}
	r.mu.Unlock()
}

func (r *ClockRegistry) unwatch(id string) {
	r.mu.Lock()
	ds, ok := r.disposers[id]
	delete(r.disposers, id)
	r.mu.Unlock()
	if ok {
		for _, d := range ds {
			d()
		}
	}
}
