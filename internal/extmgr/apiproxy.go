package extmgr

import "sync/atomic"

// APIProxy is the typed replacement for spec.md §4.6's dynamic
// "exports dict" import: ImportAPI returns a proxy holding an atomic
// pointer to the target extension's current Exports() value. Loaded
// reports whether the target is currently loaded; As[T] type-asserts
// the live export value, returning false instead of panicking while
// the target is not loaded (a "lazy import") or once it has been
// unloaded again.
type APIProxy struct {
	ptr atomic.Pointer[any]
}

// Loaded reports whether the proxied extension is currently loaded and
// has an export value available.
func (p *APIProxy) Loaded() bool {
	return p.ptr.Load() != nil
}

// As type-asserts the live export value to T. ok is false if the
// extension is not loaded or its Exports() value is not a T.
func As[T any](p *APIProxy) (T, bool) {
	var zero T
	v := p.ptr.Load()
	if v == nil {
		return zero, false
	}
	t, ok := (*v).(T)
	return t, ok
}

// ImportAPI returns a proxy for the extension registered under name.
// If it is already loaded and implements Exporter, the proxy starts
// forwarding immediately; otherwise Loaded() is false until the
// extension loads. The proxy stays synchronised by subscribing to
// Manager.Loaded/Unloaded for the remainder of the manager's life.
func (m *Manager[A]) ImportAPI(name string) *APIProxy {
	p := &APIProxy{}

	m.mu.Lock()
	rec, ok := m.records[name]
	m.mu.Unlock()
	if ok && rec.loaded {
		if exp, ok := rec.Instance.(Exporter); ok {
			v := exp.Exports()
			p.ptr.Store(&v)
		}
	}

	m.Loaded.Connect(func(_ any, rec *Record[A]) {
		if rec.Name != name {
			return
		}
		if exp, ok := rec.Instance.(Exporter); ok {
			v := exp.Exports()
			p.ptr.Store(&v)
		}
	})
	m.Unloaded.Connect(func(_ any, rec *Record[A]) {
		if rec.Name == name {
			p.ptr.Store(nil)
		}
	})

	return p
}
