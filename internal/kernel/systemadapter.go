package kernel

import (
	"log/slog"

	"github.com/flockwave/flockd/extensions/system"
	"github.com/flockwave/flockd/internal/clock"
	"github.com/flockwave/flockd/internal/extmgr"
	"github.com/flockwave/flockd/internal/hub"
	"github.com/flockwave/flockd/internal/registry"
)

// systemExtension adapts *system.Extension (written against the
// extensions/system package's own narrow App interface) to
// extmgr.Extension[*App]/extmgr.Loadable[*App], which the manager's
// type assertions require in terms of the concrete *App the kernel
// instantiates Manager with.
type systemExtension struct{ inner *system.Extension }

func (s systemExtension) Name() string { return s.inner.Name() }

func (s systemExtension) Load(app *App, cfg map[string]any, logger *slog.Logger) error {
	return s.inner.Load(SystemAdapter{app}, cfg, logger)
}

// RegisterSystemExtension registers the built-in introspection
// extension (CLK-*/CONN-*/EXT-*) under its protected name. Call once,
// before App.LoadConfiguredExtensions, so CLK-LIST et al. always
// answer regardless of what cmd/flockd's config enables.
func RegisterSystemExtension(app *App) error {
	return app.Extensions.Register(systemExtension{system.New()}, nil)
}

// SystemAdapter presents App through the narrow interface
// extensions/system depends on, so that package never imports
// internal/kernel (which, conversely, imports extensions/system once
// here to register it — the same one-way-only-by-name pattern
// internal/uav/handlers.go and internal/hub/broadcast.go use to avoid
// import cycles, applied at the extension-adapter boundary instead).
type SystemAdapter struct{ *App }

// HubFor implements system.App.
func (a SystemAdapter) HubFor() *hub.Hub { return a.App.Hub }

// Clocks implements system.App.
func (a SystemAdapter) Clocks() system.ClockSource { return clockSource{a.App.Clocks} }

// Connections implements system.App.
func (a SystemAdapter) Connections() system.ConnectionSource { return connectionSource{a.App.Connections} }

// ExtensionManager implements system.App.
func (a SystemAdapter) ExtensionManager() system.ExtensionSource { return extensionSource{a.App.Extensions} }

type clockSource struct{ r *registry.ClockRegistry }

func (c clockSource) IDs() []string { return c.r.IDs() }

func (c clockSource) FindByID(id string) (system.ClockEntry, error) {
	cl, err := c.r.FindByID(id)
	if err != nil {
		return nil, err
	}
	return cl, nil
}

// This blank assignment pins *clock.Clock to satisfy
// system.ClockEntry at compile time.
var _ system.ClockEntry = (*clock.Clock)(nil)

type connectionSource struct{ r *registry.ConnectionRegistry }

func (c connectionSource) IDs() []string { return c.r.IDs() }

func (c connectionSource) FindByID(id string) (system.ConnectionEntry, error) {
	e, err := c.r.FindByID(id)
	if err != nil {
		return system.ConnectionEntry{}, err
	}
	return system.ConnectionEntry{
		ID:          e.ConnID,
		State:       e.Conn.State(),
		Description: e.Description,
		Purpose:     e.Purpose.String(),
	}, nil
}

type extensionSource struct{ m *extmgr.Manager[*App] }

func (e extensionSource) IsLoaded(name string) bool { return e.m.IsLoaded(name) }
func (e extensionSource) LoadOrder() []string       { return e.m.LoadOrder() }
func (e extensionSource) Registered() []string      { return e.m.Registered() }
func (e extensionSource) Dependencies(name string) []string { return e.m.Dependencies(name) }

func (e extensionSource) Configuration(name string) (map[string]any, bool) {
	return e.m.Configuration(name)
}

func (e extensionSource) SetConfiguration(name string, cfg map[string]any) {
	e.m.SetConfiguration(name, cfg)
}

func (e extensionSource) Load(name string) error {
	_, err := e.m.Load(name)
	return err
}

func (e extensionSource) Unload(name string) error { return e.m.Unload(name) }
func (e extensionSource) Reload(name string) error { return e.m.Reload(name) }
