package registry

import (
	"errors"
	"sync"

	"github.com/flockwave/flockd/internal/signalbus"
)

// ErrDuplicateClient is returned by ClientRegistry.Add when a client
// with the same id is already registered. The hub treats this as a
// silent no-op rather than a hard failure (spec.md §4.2).
var ErrDuplicateClient = errors.New("registry: client already registered")

// ClientEntry is the minimal contract ClientRegistry requires. It is
// satisfied by *client.Client without an import cycle: registry must
// not depend on client, so the registry only asks for ID().
type ClientEntry interface {
	ID() string
}

// ClientRegistry indexes connected clients by id and exposes a
// CountChanged signal so the hub can invalidate its broadcast-method
// cache whenever the connected population changes (spec.md §4.5).
type ClientRegistry[T ClientEntry] struct {
	inner *Registry[T]

	mu           sync.Mutex
	CountChanged signalbus.Signal[int]
}

// NewClientRegistry constructs an empty ClientRegistry.
func NewClientRegistry[T ClientEntry]() *ClientRegistry[T] {
	return &ClientRegistry[T]{inner: New[T]()}
}

// Added fires after a client becomes visible through FindByID.
func (r *ClientRegistry[T]) Added() *signalbus.Signal[T] { return &r.inner.Added }

// Removed fires after a client is no longer visible through FindByID.
func (r *ClientRegistry[T]) Removed() *signalbus.Signal[T] { return &r.inner.Removed }

// Add registers c. If a client with the same id is already present,
// ErrDuplicateClient is returned and the registry is left unchanged.
func (r *ClientRegistry[T]) Add(c T) (Disposer, error) {
	if r.inner.Contains(c.ID()) {
		return nil, ErrDuplicateClient
	}
	d, err := r.inner.Add(c)
	if err != nil {
		return nil, err
	}
	r.fireCountChanged()
	return func() {
		d()
		r.fireCountChanged()
	}, nil
}

// Remove deregisters the client with the given id.
func (r *ClientRegistry[T]) Remove(id string) error {
	before := r.inner.NumEntries()
	if err := r.inner.Remove(id); err != nil {
		return err
	}
	if r.inner.NumEntries() != before {
		r.fireCountChanged()
	}
	return nil
}

// FindByID returns the client registered under id.
func (r *ClientRegistry[T]) FindByID(id string) (T, error) { return r.inner.FindByID(id) }

// IDs returns a snapshot of every connected client id.
func (r *ClientRegistry[T]) IDs() []string { return r.inner.IDs() }

// NumEntries returns the number of connected clients.
func (r *ClientRegistry[T]) NumEntries() int { return r.inner.NumEntries() }

func (r *ClientRegistry[T]) fireCountChanged() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.CountChanged.Send(r, r.inner.NumEntries())
}
