// Package extmgr implements the dependency-aware extension
// lifecycle manager (spec.md §4.6): loading/unloading/reloading
// pluggable features in dependency order, supervising their
// background tasks, and brokering the typed API each extension
// exports to the others.
//
// Python's dynamic "recognised optional attributes" (dependencies,
// load, run, worker, spinup/spindown, unload/teardown, exports) become
// small marker interfaces here, checked with type assertions — the
// direct application of spec.md §9's REDESIGN note on replacing
// runtime attribute discovery with explicit interfaces. Manager is
// generic over the application type A so this package never imports
// internal/kernel (which owns a *Manager): each extension receives its
// app handle with full static typing without a dependency cycle.
//
// Grounded on internal/scheduler.Scheduler's mutex-guarded live-resource
// map and Start/Stop symmetry, internal/talents.Loader's
// named-pluggable-unit idiom, and internal/mcp.Client's façade-over-a-
// swappable-backend shape for the API proxy.
package extmgr

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/flockwave/flockd/internal/signalbus"
)

// Extension is the minimal contract every pluggable feature satisfies.
type Extension[A any] interface {
	Name() string
}

// Dependent extensions must be loaded after every name Dependencies()
// returns.
type Dependent interface {
	Dependencies() []string
}

// Loadable extensions run synchronous setup once, on load.
type Loadable[A any] interface {
	Load(app A, cfg map[string]any, log *slog.Logger) error
}

// Runnable extensions own a long-lived task, cancelled on unload.
type Runnable[A any] interface {
	Run(ctx context.Context, app A, cfg map[string]any, log *slog.Logger) error
}

// Workable extensions own a task that exists only while the manager is
// spinning (at least one client connected).
type Workable[A any] interface {
	Worker(ctx context.Context, app A, cfg map[string]any, log *slog.Logger) error
}

// SpinUpDowner extensions are notified synchronously around the
// worker's lifecycle.
type SpinUpDowner interface {
	SpinUp()
	SpinDown()
}

// Unloadable extensions run final cleanup.
type Unloadable[A any] interface {
	Unload(app A) error
}

// Exporter extensions expose an API surface other extensions can
// import via Manager.ImportAPI.
type Exporter interface {
	Exports() any
}

// Names forbidden as extension names: they collide with the manager's
// own bookkeeping vocabulary (spec.md §4.6). "init" is the closest Go
// analogue of Python's "__init__" sentinel, since it is itself a
// reserved identifier in Go.
var reservedNames = map[string]bool{
	"base":    true,
	"manager": true,
	"logger":  true,
	"init":    true,
}

// ErrReservedName is returned by Register for a forbidden name.
var ErrReservedName = errors.New("extmgr: extension name is reserved")

// ErrNotRegistered is returned by Load for a name with no catalog entry.
var ErrNotRegistered = errors.New("extmgr: no such extension registered")

// ErrCycle is returned by Load when a dependency cycle is detected.
// The outermost Load call fails; the process is not aborted.
var ErrCycle = errors.New("extmgr: dependency cycle detected")

// ErrHasDependents is returned by Unload when another loaded extension
// still depends on the one being unloaded.
var ErrHasDependents = errors.New("extmgr: extension has loaded dependents")

// Record is one loaded (or loading) extension's bookkeeping.
type Record[A any] struct {
	Name          string
	Instance      Extension[A]
	Configuration map[string]any
	Dependents    map[string]struct{}
	dependencies  []string

	loaded bool

	taskCancel   context.CancelFunc
	workerCancel context.CancelFunc
}

// Manager owns the extension catalog, the dependency-ordered load
// state, and the supervised background tasks every Runnable/Workable
// extension runs under.
type Manager[A any] struct {
	mu sync.Mutex

	app    A
	logger *slog.Logger

	catalog map[string]Extension[A]
	configs map[string]map[string]any
	records map[string]*Record[A]

	order *list.List
	elems map[string]*list.Element

	spinning bool

	g    *errgroup.Group
	gctx context.Context

	Loaded   signalbus.Signal[*Record[A]]
	Unloaded signalbus.Signal[*Record[A]]
}

// NewManager constructs a Manager bound to app, which every extension
// receives verbatim through Loadable/Runnable/Workable/Unloadable.
func NewManager[A any](app A, logger *slog.Logger) *Manager[A] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager[A]{
		app:     app,
		logger:  logger,
		catalog: make(map[string]Extension[A]),
		configs: make(map[string]map[string]any),
		records: make(map[string]*Record[A]),
		order:   list.New(),
		elems:   make(map[string]*list.Element),
	}
}

// Start arms the manager's supervising nursery. Must be called before
// the first Load of an extension with a Run method.
func (m *Manager[A]) Start(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	m.mu.Lock()
	m.g = g
	m.gctx = gctx
	m.mu.Unlock()
}

// Wait blocks until every Runnable task started under the nursery has
// returned (e.g. after every extension has been unloaded).
func (m *Manager[A]) Wait() error {
	m.mu.Lock()
	g := m.g
	m.mu.Unlock()
	if g == nil {
		return nil
	}
	return g.Wait()
}

// Register adds ext to the catalog under ext.Name() with the given
// configuration, making it loadable. Registering the same name twice
// overwrites the catalog entry.
func (m *Manager[A]) Register(ext Extension[A], cfg map[string]any) error {
	name := ext.Name()
	if reservedNames[name] {
		return fmt.Errorf("%w: %q", ErrReservedName, name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalog[name] = ext
	if cfg == nil {
		cfg = map[string]any{}
	}
	m.configs[name] = cfg
	return nil
}

// SetConfiguration replaces the stored configuration for name (EXT-SETCFG).
// Takes effect on the next Load/Reload.
func (m *Manager[A]) SetConfiguration(name string, cfg map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[name] = cfg
}

// Configuration returns the stored configuration for name (EXT-CFG).
func (m *Manager[A]) Configuration(name string) (map[string]any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.configs[name]
	return cfg, ok
}

// Registered returns every extension name in the catalog, loaded or
// not, for EXT-LIST.
func (m *Manager[A]) Registered() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.catalog))
	for name := range m.catalog {
		out = append(out, name)
	}
	return out
}

// Dependencies returns the declared dependencies of a registered
// extension, for EXT-INF. Returns nil for an unregistered name or one
// that declares none.
func (m *Manager[A]) Dependencies(name string) []string {
	m.mu.Lock()
	ext, ok := m.catalog[name]
	m.mu.Unlock()
	if !ok {
		return nil
	}
	if d, ok := ext.(Dependent); ok {
		return d.Dependencies()
	}
	return nil
}

// IsLoaded reports whether name is currently loaded.
func (m *Manager[A]) IsLoaded(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[name]
	return ok && r.loaded
}

// LoadOrder returns the names currently loaded, in the order they were
// successfully loaded.
func (m *Manager[A]) LoadOrder() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, m.order.Len())
	for e := m.order.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(string))
	}
	return out
}

// Load loads name and every transitive dependency it declares,
// depth-first, in dependency order. Loading an already-loaded
// extension is a no-op returning the existing record. A dependency
// cycle is logged and refused: Load returns ErrCycle, no partial state
// is left in the catalog, and the process is not aborted.
func (m *Manager[A]) Load(name string) (*Record[A], error) {
	return m.loadWithPath(name, map[string]bool{})
}

func (m *Manager[A]) loadWithPath(name string, path map[string]bool) (*Record[A], error) {
	if reservedNames[name] {
		return nil, fmt.Errorf("%w: %q", ErrReservedName, name)
	}

	m.mu.Lock()
	if r, ok := m.records[name]; ok && r.loaded {
		m.mu.Unlock()
		return r, nil
	}
	if path[name] {
		m.mu.Unlock()
		m.logger.Error("extmgr: dependency cycle detected, refusing to load", "extension", name)
		return nil, fmt.Errorf("%w: %q", ErrCycle, name)
	}
	ext, ok := m.catalog[name]
	cfg := m.configs[name]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}

	path[name] = true
	defer delete(path, name)

	var deps []string
	if d, ok := ext.(Dependent); ok {
		deps = d.Dependencies()
	}

	depRecords := make([]*Record[A], 0, len(deps))
	for _, dep := range deps {
		dr, err := m.loadWithPath(dep, path)
		if err != nil {
			return nil, err
		}
		depRecords = append(depRecords, dr)
	}

	rec := &Record[A]{
		Name:          name,
		Instance:      ext,
		Configuration: cfg,
		Dependents:    make(map[string]struct{}),
		dependencies:  deps,
	}

	if l, ok := ext.(Loadable[A]); ok {
		if err := l.Load(m.app, cfg, m.logger); err != nil {
			return nil, fmt.Errorf("extmgr: load %q: %w", name, err)
		}
	}

	if r, ok := ext.(Runnable[A]); ok {
		m.mu.Lock()
		gctx := m.gctx
		g := m.g
		m.mu.Unlock()
		if g != nil {
			taskCtx, cancel := context.WithCancel(gctx)
			rec.taskCancel = cancel
			g.Go(func() error {
				if err := r.Run(taskCtx, m.app, cfg, m.logger); err != nil && taskCtx.Err() == nil {
					m.logger.Error("extmgr: extension run task failed", "extension", name, "error", err)
				}
				return nil
			})
		}
	}

	rec.loaded = true

	m.mu.Lock()
	m.records[name] = rec
	m.elems[name] = m.order.PushBack(name)
	for _, dr := range depRecords {
		dr.Dependents[name] = struct{}{}
	}
	spinning := m.spinning
	m.mu.Unlock()

	m.Loaded.Send(m, rec)

	if spinning {
		m.spinUpOne(rec)
	}

	return rec, nil
}

// Unload unloads name. Refuses with ErrHasDependents if any other
// loaded extension still depends on it. Errors raised during the
// extension's own unload/teardown are logged but do not abort the
// rest of the unload.
func (m *Manager[A]) Unload(name string) error {
	m.mu.Lock()
	rec, ok := m.records[name]
	if !ok {
		m.mu.Unlock()
		return nil
	}
	if len(rec.Dependents) > 0 {
		m.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrHasDependents, name)
	}
	spinning := m.spinning
	m.mu.Unlock()

	if spinning {
		m.spinDownOne(rec)
	}

	if rec.taskCancel != nil {
		rec.taskCancel()
	}
	if rec.workerCancel != nil {
		rec.workerCancel()
	}

	if u, ok := rec.Instance.(Unloadable[A]); ok {
		if err := u.Unload(m.app); err != nil {
			m.logger.Error("extmgr: extension unload failed", "extension", name, "error", err)
		}
	} else if t, ok := rec.Instance.(interface{ Teardown() }); ok {
		t.Teardown()
	}

	m.mu.Lock()
	rec.loaded = false
	delete(m.records, name)
	if e, ok := m.elems[name]; ok {
		m.order.Remove(e)
		delete(m.elems, name)
	}
	for _, dep := range rec.dependencies {
		if dr, ok := m.records[dep]; ok {
			delete(dr.Dependents, name)
		}
	}
	m.mu.Unlock()

	m.Unloaded.Send(m, rec)
	return nil
}

// Reload unloads then reloads name, preserving its stored configuration.
func (m *Manager[A]) Reload(name string) error {
	if err := m.Unload(name); err != nil {
		return err
	}
	_, err := m.Load(name)
	return err
}

// Spinning reports whether the manager currently considers itself
// spinning (at least one client connected).
func (m *Manager[A]) Spinning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.spinning
}

// SetSpinning toggles spinning state. Turning it on walks the load
// order forward calling SpinUp/starting Worker on every loaded
// extension; turning it off walks the load order in reverse.
func (m *Manager[A]) SetSpinning(v bool) {
	m.mu.Lock()
	if m.spinning == v {
		m.mu.Unlock()
		return
	}
	m.spinning = v
	names := make([]string, 0, m.order.Len())
	for e := m.order.Front(); e != nil; e = e.Next() {
		names = append(names, e.Value.(string))
	}
	recs := make([]*Record[A], 0, len(names))
	for _, n := range names {
		if r, ok := m.records[n]; ok {
			recs = append(recs, r)
		}
	}
	m.mu.Unlock()

	if v {
		for _, r := range recs {
			m.spinUpOne(r)
		}
	} else {
		for i := len(recs) - 1; i >= 0; i-- {
			m.spinDownOne(recs[i])
		}
	}
}

func (m *Manager[A]) spinUpOne(rec *Record[A]) {
	if s, ok := rec.Instance.(SpinUpDowner); ok {
		s.SpinUp()
	}
	if w, ok := rec.Instance.(Workable[A]); ok {
		m.mu.Lock()
		gctx := m.gctx
		g := m.g
		m.mu.Unlock()
		if g != nil {
			workerCtx, cancel := context.WithCancel(gctx)
			rec.workerCancel = cancel
			cfg := rec.Configuration
			name := rec.Name
			g.Go(func() error {
				if err := w.Worker(workerCtx, m.app, cfg, m.logger); err != nil && workerCtx.Err() == nil {
					m.logger.Error("extmgr: extension worker failed", "extension", name, "error", err)
				}
				return nil
			})
		}
	}
}

func (m *Manager[A]) spinDownOne(rec *Record[A]) {
	if rec.workerCancel != nil {
		rec.workerCancel()
		rec.workerCancel = nil
	}
	if s, ok := rec.Instance.(SpinUpDowner); ok {
		s.SpinDown()
	}
}

// RunInBackground enqueues fn into the manager's nursery with its own
// cancel scope, returned to the caller so the task can be cancelled
// individually, mirroring spec.md §4.6's run_in_background(cancellable=true).
func (m *Manager[A]) RunInBackground(fn func(ctx context.Context) error) context.CancelFunc {
	m.mu.Lock()
	gctx := m.gctx
	g := m.g
	m.mu.Unlock()
	if g == nil {
		return func() {}
	}
	ctx, cancel := context.WithCancel(gctx)
	g.Go(func() error {
		if err := fn(ctx); err != nil && ctx.Err() == nil {
			m.logger.Error("extmgr: background task failed", "error", err)
		}
		return nil
	})
	return cancel
}

// TeardownAll unloads every currently loaded extension in the exact
// reverse of its load order, for orderly process shutdown.
func (m *Manager[A]) TeardownAll() {
	for {
		names := m.LoadOrder()
		if len(names) == 0 {
			return
		}
		last := names[len(names)-1]
		if err := m.Unload(last); err != nil {
			m.logger.Error("extmgr: forced unload failed, continuing", "extension", last, "error", err)
			m.mu.Lock()
			if e, ok := m.elems[last]; ok {
				m.order.Remove(e)
				delete(m.elems, last)
			}
			delete(m.records, last)
			m.mu.Unlock()
		}
	}
}
