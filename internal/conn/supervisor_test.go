package conn

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// scriptedConn fails every Open until failFor has elapsed since it was
// constructed, then opens successfully.
type scriptedConn struct {
	BaseConnection
	mu       sync.Mutex
	attempts int
	failFor  time.Duration
	start    time.Time
}

func newScriptedConn(failFor time.Duration) *scriptedConn {
	return &scriptedConn{BaseConnection: NewBase(nil), failFor: failFor, start: time.Now()}
}

func (s *scriptedConn) Open(ctx context.Context) error {
	s.mu.Lock()
	s.attempts++
	s.mu.Unlock()

	if time.Since(s.start) < s.failFor {
		return context.DeadlineExceeded
	}
	s.SetState(Connected)
	return nil
}

func (s *scriptedConn) Close(ctx context.Context) error {
	s.SetState(Disconnected)
	return nil
}

// TestSupervisorRecoversAfterInitialFailures mirrors Scenario E: the
// inner connection's Open fails for a few hundred milliseconds then
// succeeds; the supervisor should report Connecting throughout the
// failure window and Connected thereafter, with exactly one connected
// signal emitted.
func TestSupervisorRecoversAfterInitialFailures(t *testing.T) {
	inner := newScriptedConn(120 * time.Millisecond)
	sup := NewSupervisor(inner, 20*time.Millisecond, nil)

	var connectedCount int32
	sup.ConnectedSignal().Connect(func(sender any, _ struct{}) {
		atomic.AddInt32(&connectedCount, 1)
	})

	if err := sup.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer sup.Close(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := inner.WaitUntilConnected(ctx); err != nil {
		t.Fatalf("inner never connected: %v", err)
	}

	// Give the watchdog one more tick to observe the transition.
	time.Sleep(50 * time.Millisecond)

	if got := atomic.LoadInt32(&connectedCount); got != 1 {
		t.Fatalf("connected signal fired %d times, want 1", got)
	}
}

// TestSupervisorSettlesUnderFlapping covers Testable Property 10: the
// inner connection flaps at a high rate for one simulated second; the
// supervisor must not wedge or leak, and its externally visible state
// must eventually match the inner's.
func TestSupervisorSettlesUnderFlapping(t *testing.T) {
	inner := newFakeConn()
	sup := NewSupervisor(inner, 5*time.Millisecond, nil)

	if err := sup.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer sup.Close(context.Background())

	deadline := time.Now().Add(1 * time.Second)
	for time.Now().Before(deadline) {
		_ = inner.Open(context.Background())
		time.Sleep(2 * time.Millisecond)
		_ = inner.Close(context.Background())
		time.Sleep(2 * time.Millisecond)
	}

	// Let the watchdog catch up, then leave the inner connected and
	// confirm the supervisor settles to match.
	_ = inner.Open(context.Background())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := sup.WaitUntilConnected(ctx); err != nil {
		t.Fatalf("supervisor never settled to Connected: %v", err)
	}
}

func TestSupervisorCloseIsIdempotent(t *testing.T) {
	inner := newFakeConn()
	sup := NewSupervisor(inner, 5*time.Millisecond, nil)

	// Close before Open is a no-op.
	if err := sup.Close(context.Background()); err != nil {
		t.Fatalf("Close before Open: %v", err)
	}

	if err := sup.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := sup.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Closing twice must not hang or panic.
	if err := sup.Close(context.Background()); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
