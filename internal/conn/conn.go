// Package conn implements the four-state connection abstraction shared
// by every external link the server opens (radio, serial, TCP, UDP,
// MQTT, MIDI, ...), plus the reconnection Supervisor that wraps one and
// keeps it open across transient failures.
package conn

import (
	"context"
	"log/slog"
	"sync"

	"github.com/flockwave/flockd/internal/signalbus"
)

// State is one of the four states a Connection may be in.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Disconnecting
)

// String renders a State for logging.
func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Disconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}

// StateChange is the payload of the StateChanged signal.
type StateChange struct {
	Old, New State
}

// Connection is the contract every concrete link implements. Open and
// Close are idempotent on terminal states: calling Open while already
// Connected, or Close while already Disconnected, is a no-op rather
// than an error.
type Connection interface {
	Open(ctx context.Context) error
	Close(ctx context.Context) error
	State() State

	StateChanged() *signalbus.Signal[StateChange]
	ConnectedSignal() *signalbus.Signal[struct{}]
	DisconnectedSignal() *signalbus.Signal[struct{}]

	SwallowExceptions() bool
	SetSwallowExceptions(bool)

	// WaitUntilConnected returns immediately if already Connected,
	// otherwise blocks until the next transition into Connected or
	// until ctx is done.
	WaitUntilConnected(ctx context.Context) error
	// WaitUntilNotConnected returns immediately if not Connected,
	// otherwise blocks until the next transition away from Connected
	// or until ctx is done.
	WaitUntilNotConnected(ctx context.Context) error
}

// BaseConnection implements the state machine, signal plumbing, and
// wait-until helpers described in spec.md §4.3. Concrete connections
// embed it and call setState from their own Open/Close/read/write
// implementations; it is the sole mutator of state, matching the
// "_set_state is the sole mutator" contract.
type BaseConnection struct {
	mu    sync.Mutex
	state State

	stateChanged signalbus.Signal[StateChange]
	connected    signalbus.Signal[struct{}]
	disconnected signalbus.Signal[struct{}]

	connectedLatched  bool
	swallowExceptions bool

	// connWaiters is closed whenever the state transitions into
	// Connected, and replaced with a fresh channel whenever the state
	// transitions away from Connected. WaitUntilConnected blocks on it.
	connWaiters chan struct{}
	// notConnWaiters mirrors connWaiters for the opposite edge.
	notConnWaiters chan struct{}

	logger *slog.Logger
}

// NewBase constructs a BaseConnection starting in Disconnected.
func NewBase(logger *slog.Logger) BaseConnection {
	if logger == nil {
		logger = slog.Default()
	}
	b := BaseConnection{
		state:          Disconnected,
		logger:         logger,
		connWaiters:    make(chan struct{}),
		notConnWaiters: make(chan struct{}),
	}
	close(b.notConnWaiters) // already "not connected"
	return b
}

// State returns the current state. Reads are serialised behind the
// same lock as writes so concurrent observers always see a consistent
// value (spec.md §5).
func (b *BaseConnection) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// StateChanged returns the state_changed(old,new) signal.
func (b *BaseConnection) StateChanged() *signalbus.Signal[StateChange] { return &b.stateChanged }

// ConnectedSignal returns the connected() signal.
func (b *BaseConnection) ConnectedSignal() *signalbus.Signal[struct{}] { return &b.connected }

// DisconnectedSignal returns the disconnected() signal.
func (b *BaseConnection) DisconnectedSignal() *signalbus.Signal[struct{}] { return &b.disconnected }

// SwallowExceptions reports whether HandleError should swallow I/O
// errors by closing instead of propagating them.
func (b *BaseConnection) SwallowExceptions() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.swallowExceptions
}

// SetSwallowExceptions toggles the swallow-exceptions behaviour.
func (b *BaseConnection) SetSwallowExceptions(v bool) {
	b.mu.Lock()
	b.swallowExceptions = v
	b.mu.Unlock()
}

// setState is the sole mutator. It implements spec.md §4.3's five-step
// contract: CAS under lock, fire state_changed, fire connected/
// disconnected on the relevant latch edge, unblock waiters.
func (b *BaseConnection) setState(new State) {
	b.mu.Lock()
	old := b.state
	if old == new {
		b.mu.Unlock()
		return
	}
	b.state = new

	var fireConnected, fireDisconnected bool
	if new == Connected && !b.connectedLatched {
		b.connectedLatched = true
		fireConnected = true
	}
	if new == Disconnected && b.connectedLatched {
		b.connectedLatched = false
		fireDisconnected = true
	}

	var closedConnWaiters, closedNotConnWaiters chan struct{}
	if new == Connected {
		closedConnWaiters = b.connWaiters
		b.connWaiters = make(chan struct{})
	} else {
		// Leaving Connected (or never having been in it) keeps
		// connWaiters open for the next arrival, but resets it if we
		// just left Connected so a fresh wait doesn't see a stale close.
		if old == Connected {
			b.connWaiters = make(chan struct{})
		}
	}
	if new != Connected {
		closedNotConnWaiters = b.notConnWaiters
		b.notConnWaiters = make(chan struct{})
	}
	b.mu.Unlock()

	b.stateChanged.Send(b, StateChange{Old: old, New: new})
	if fireConnected {
		b.connected.Send(b, struct{}{})
	}
	if fireDisconnected {
		b.disconnected.Send(b, struct{}{})
	}

	if closedConnWaiters != nil {
		close(closedConnWaiters)
	}
	if closedNotConnWaiters != nil {
		close(closedNotConnWaiters)
	}
}

// SetState exposes setState to embedding concrete connections, which
// live outside this package.
func (b *BaseConnection) SetState(new State) { b.setState(new) }

// WaitUntilConnected implements the Go-native resolution of spec.md
// §9's open question: return immediately if already Connected,
// otherwise block on a one-shot channel cleared on any transition away
// from Connected.
func (b *BaseConnection) WaitUntilConnected(ctx context.Context) error {
	for {
		b.mu.Lock()
		if b.state == Connected {
			b.mu.Unlock()
			return nil
		}
		ch := b.connWaiters
		b.mu.Unlock()

		select {
		case <-ch:
			// Loop back around: another goroutine may have raced us
			// out of Connected already.
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// WaitUntilNotConnected blocks until the state is anything other than
// Connected, or ctx is done.
func (b *BaseConnection) WaitUntilNotConnected(ctx context.Context) error {
	for {
		b.mu.Lock()
		if b.state != Connected {
			b.mu.Unlock()
			return nil
		}
		ch := b.notConnWaiters
		b.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// HandleError is the funnel every concrete connection's read/write
// path must call on I/O failure. If SwallowExceptions is set, it logs
// and closes instead of propagating (required by the reconnection
// Supervisor, which forces this flag on); otherwise it returns err
// unchanged for the caller to propagate.
func (b *BaseConnection) HandleError(ctx context.Context, closer func(context.Context) error, err error) error {
	if err == nil {
		return nil
	}
	if !b.SwallowExceptions() {
		return err
	}
	b.logger.Warn("connection I/O error, closing", "error", err)
	if closeErr := closer(ctx); closeErr != nil {
		b.logger.Warn("error while closing after swallowed I/O error", "error", closeErr)
	}
	return nil
}

// Logger returns the logger this connection was constructed with.
func (b *BaseConnection) Logger() *slog.Logger { return b.logger }
