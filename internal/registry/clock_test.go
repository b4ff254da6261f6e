package registry

import (
	"testing"

	"github.com/flockwave/flockd/internal/clock"
)

func TestClockRegistryRedispatchesAsClockChanged(t *testing.T) {
	r := NewClockRegistry()
	c := clock.New("wall")

	var fired int
	r.ClockChanged.Connect(func(sender any, got *clock.Clock) {
		fired++
		if got != c {
			t.Errorf("ClockChanged payload = %v, want %v", got, c)
		}
	})

	if _, err := r.Add(c); err != nil {
		t.Fatalf("Add: %v", err)
	}

	c.Start()
	c.Tick(5)
	c.Stop()

	if fired != 3 {
		t.Fatalf("ClockChanged fired %d times, want 3", fired)
	}
}

func TestClockRegistryStopsRedispatchingAfterRemove(t *testing.T) {
	r := NewClockRegistry()
	c := clock.New("wall")
	r.Add(c)

	if err := r.Remove("wall"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	fired := false
	r.ClockChanged.Connect(func(sender any, _ *clock.Clock) { fired = true })

	c.Start()
	if fired {
		t.Fatal("ClockChanged fired after the clock was removed from the registry")
	}
}
