package conn

import (
	"context"
	"log/slog"
	"time"
)

// DefaultRetryInterval is the flat retry delay spec.md §4.4 specifies
// for the watchdog's recovery loop. Unlike the exponential schedule
// this pattern is traditionally built with, the Flockwave reconnection
// contract calls for a fixed interval — see DESIGN.md for why this is
// a deliberate deviation rather than a grounding gap.
const DefaultRetryInterval = 1 * time.Second

// Supervisor wraps an inner Connection and runs a background watchdog
// that keeps it in Connected, retrying at RetryInterval whenever the
// inner connection drops. The wrapper's own externally visible state
// is derived from the inner connection's state rather than mutated
// directly: Connecting while the watchdog is recovering, Connected
// while the inner reports Connected, Disconnected otherwise, and
// Disconnecting while Close is draining the watchdog.
type Supervisor struct {
	BaseConnection

	inner         Connection
	retryInterval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// NewSupervisor wraps inner. retryInterval <= 0 uses DefaultRetryInterval.
// inner's SwallowExceptions is forced on: the watchdog treats I/O
// failures as "go recover", never as propagated errors.
func NewSupervisor(inner Connection, retryInterval time.Duration, logger *slog.Logger) *Supervisor {
	if retryInterval <= 0 {
		retryInterval = DefaultRetryInterval
	}
	inner.SetSwallowExceptions(true)
	return &Supervisor{
		BaseConnection: NewBase(logger),
		inner:          inner,
		retryInterval:  retryInterval,
	}
}

// Inner returns the wrapped connection, for callers that need to reach
// transport-specific methods not part of the Connection interface
// (e.g. a serial connection's InWaiting). There is no implicit
// attribute forwarding — callers type-assert explicitly, per spec.md
// §9's REDESIGN note.
func (s *Supervisor) Inner() Connection { return s.inner }

// Open starts the watchdog goroutine. Calling Open while the watchdog
// is already running is a no-op.
func (s *Supervisor) Open(ctx context.Context) error {
	if s.cancel != nil {
		return nil
	}
	watchCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.watch(watchCtx)
	return nil
}

// Close signals the watchdog to quit, waits for it to terminate, then
// closes the inner connection. Calling Close before Open is a no-op.
func (s *Supervisor) Close(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	s.SetState(Disconnecting)
	s.cancel()
	<-s.done
	s.cancel = nil

	err := s.inner.Close(ctx)
	s.SetState(Disconnected)
	return err
}

// watch implements the four-step protocol of spec.md §4.4.
func (s *Supervisor) watch(ctx context.Context) {
	defer close(s.done)

	dispose := s.inner.StateChanged().Connect(func(sender any, _ StateChange) {})
	defer dispose()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		switch s.inner.State() {
		case Disconnected:
			s.SetState(Connecting)
			if err := s.inner.Open(ctx); err != nil {
				s.Logger().Debug("supervised connection failed to open, retrying",
					"error", err, "retry_interval", s.retryInterval)
			}
			if s.inner.State() == Connected {
				s.SetState(Connected)
				continue
			}
			if !sleepCtx(ctx, s.retryInterval) {
				return
			}
		case Connecting, Disconnecting:
			s.waitForNextTransition(ctx)
		case Connected:
			s.SetState(Connected)
			s.waitForNextTransition(ctx)
		}
	}
}

// waitForNextTransition blocks until the inner connection's state
// changes or ctx is cancelled.
func (s *Supervisor) waitForNextTransition(ctx context.Context) {
	changed := make(chan struct{}, 1)
	dispose := s.inner.StateChanged().Connect(func(sender any, _ StateChange) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer dispose()

	select {
	case <-changed:
	case <-ctx.Done():
	case <-time.After(s.retryInterval):
		// Bounded wake-up so a missed signal (e.g. a transition that
		// happened between State() and Connect above) cannot wedge the
		// watchdog forever.
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
