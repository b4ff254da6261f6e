package registry

import (
	"sync"

	"github.com/flockwave/flockd/internal/conn"
	"github.com/flockwave/flockd/internal/signalbus"
)

// Purpose classifies why a connection was opened, so the UI and SSDP
// responder can group them (spec.md §3).
type Purpose int

const (
	PurposeUAVRadioLink Purpose = iota
	PurposeDGPS
	PurposeDebug
	PurposeOther
)

// String renders a Purpose for logging and CONN-INF payloads.
func (p Purpose) String() string {
	switch p {
	case PurposeUAVRadioLink:
		return "uavRadioLink"
	case PurposeDGPS:
		return "dgps"
	case PurposeDebug:
		return "debug"
	default:
		return "other"
	}
}

// ConnectionEntry is one held connection plus the metadata the kernel
// needs to describe it in CONN-INF responses.
type ConnectionEntry struct {
	ConnID      string
	Conn        conn.Connection
	Description string
	Purpose     Purpose
}

// ID implements registry.Entry.
func (e ConnectionEntry) ID() string { return e.ConnID }

// ConnectionStateChange is the payload re-emitted by ConnectionRegistry
// whenever one of its held connections changes state.
type ConnectionStateChange struct {
	ConnectionID string
	Old, New     conn.State
}

// ConnectionRegistry indexes held connections and mirrors each one's
// StateChanged signal into a single registry-wide
// ConnectionStateChanged signal, so the hub can broadcast CONN-INF
// without subscribing to every connection individually.
type ConnectionRegistry struct {
	*Registry[ConnectionEntry]

	mu                     sync.Mutex
	disposers              map[string]signalbus.Disposer
	ConnectionStateChanged signalbus.Signal[ConnectionStateChange]
}

// NewConnectionRegistry constructs an empty ConnectionRegistry.
func NewConnectionRegistry() *ConnectionRegistry {
	r := &ConnectionRegistry{
		Registry:  New[ConnectionEntry](),
		disposers: make(map[string]signalbus.Disposer),
	}
	r.Added.Connect(func(sender any, e ConnectionEntry) { r.watch(e) })
	r.Removed.Connect(func(sender any, e ConnectionEntry) { r.unwatch(e.ConnID) })
	return r
}

func (r *ConnectionRegistry) watch(e ConnectionEntry) {
	d := e.Conn.StateChanged().Connect(func(sender any, sc conn.StateChange) {
		r.ConnectionStateChanged.Send(r, ConnectionStateChange{
			ConnectionID: e.ConnID,
			Old:          sc.Old,
			New:          sc.New,
		})
	})
	r.mu.Lock()
	r.disposers[e.ConnID] = d
	r.mu.Unlock()
}

func (r *ConnectionRegistry) unwatch(id string) {
	r.mu.Lock()
	d, ok := r.disposers[id]
	delete(r.disposers, id)
	r.mu.Unlock()
	if ok {
		d()
	}
}
