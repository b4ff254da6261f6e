// Package kernel assembles the server Application (spec.md §4.7):
// the registries, the message hub, and the extension manager, plus
// the top-level Supervise helper every connection-owning extension
// uses to open its link with retry/back-off and run a task against it.
// Grounded on cmd/thane/main.go's runServe assembly order (config load
// -> logger -> component construction -> signal-driven shutdown) and
// internal/api.Server's http.Server + graceful Shutdown(ctx) idiom,
// generalised here from "one HTTP server" to "any supervised connection".
package kernel

import (
	"context"
	"log/slog"
	"time"

	"github.com/flockwave/flockd/extensions/system"
	"github.com/flockwave/flockd/internal/channel"
	"github.com/flockwave/flockd/internal/client"
	"github.com/flockwave/flockd/internal/conn"
	"github.com/flockwave/flockd/internal/config"
	"github.com/flockwave/flockd/internal/extmgr"
	"github.com/flockwave/flockd/internal/hub"
	"github.com/flockwave/flockd/internal/registry"
	"github.com/flockwave/flockd/internal/uav"
)

// UAVNotifyInterval is the default batching window for App's UAV-INF
// Notifier (spec.md §4.5's rate-limiter laws).
const UAVNotifyInterval = 500 * time.Millisecond

// App owns every registry, the message hub, and the extension manager
// named in spec.md §4.7, plus loaded configuration.
type App struct {
	Clients      *registry.ClientRegistry[*client.Client]
	ChannelTypes *registry.ChannelTypeRegistry
	Connections  *registry.ConnectionRegistry
	Objects      *registry.ObjectRegistry
	Clocks       *registry.ClockRegistry
	RTKPresets   *registry.RTKPresetRegistry

	Hub         *hub.Hub
	Broadcaster *hub.Broadcaster
	Extensions  *extmgr.Manager[*App]
	UAVNotifier *uav.Notifier

	Config *config.Config
	Logger *slog.Logger
}

// New constructs an App with every registry empty and the hub and
// extension manager wired to it, but not yet started.
func New(cfg *config.Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.Default()
	}

	app := &App{
		Clients:      registry.NewClientRegistry[*client.Client](),
		ChannelTypes: registry.NewChannelTypeRegistry(),
		Connections:  registry.NewConnectionRegistry(),
		Objects:      registry.NewObjectRegistry(),
		Clocks:       registry.NewClockRegistry(),
		RTKPresets:   registry.NewRTKPresetRegistry(),
		Config:       cfg,
		Logger:       logger,
	}

	app.Hub = hub.New(nil, logger)
	app.Broadcaster = hub.NewBroadcaster(app.Hub, app.Clients, app.ChannelTypes)
	app.Clients.CountChanged.Connect(func(any, int) { app.Broadcaster.Invalidate() })
	app.ChannelTypes.Added.Connect(func(any, channel.TypeDescriptor) { app.Broadcaster.Invalidate() })
	app.ChannelTypes.Removed.Connect(func(any, channel.TypeDescriptor) { app.Broadcaster.Invalidate() })

	app.Extensions = extmgr.NewManager[*App](app, logger)
	_ = RegisterSystemExtension(app) // system's name is never reserved; cannot fail

	app.UAVNotifier = uav.NewNotifier(app.Broadcaster, app.Hub.Builder(), app.Objects, UAVNotifyInterval)

	return app
}

// UpdateObjectStatus replaces id's telemetry snapshot and schedules a
// batched UAV-INF broadcast of the change (spec.md §4.5). UAV driver
// extensions call this instead of touching the registry's Object
// directly, so every status update gets the same rate-limited
// broadcast behaviour regardless of which extension produced it.
func (a *App) UpdateObjectStatus(id string, status uav.Status) error {
	obj, err := a.Objects.FindByID(id)
	if err != nil {
		return err
	}
	obj.UpdateStatus(status)
	a.UAVNotifier.StatusChanged(id)
	return nil
}

// Start launches the hub dispatcher and the extension manager's
// nursery, then loads the system extension followed by every enabled
// extension named in Config.Extensions, in map iteration order (which
// is not defined). Registering extensions (calling
// app.Extensions.Register) is the caller's job, mirroring spec.md
// §4.7's "configure(config, app=self) then top-level run": the kernel
// itself carries no knowledge of which extensions exist.
func (a *App) Start(ctx context.Context) error {
	a.Hub.Start(ctx)
	a.Extensions.Start(ctx)
	if _, err := a.Extensions.Load(system.Name); err != nil {
		return err
	}
	return a.LoadConfiguredExtensions()
}

// LoadConfiguredExtensions loads every extension named in
// Config.Extensions whose Enabled flag is not explicitly false.
func (a *App) LoadConfiguredExtensions() error {
	if a.Config == nil {
		return nil
	}
	for name, ec := range a.Config.Extensions {
		if !ec.IsEnabled() {
			continue
		}
		if ec.Options != nil {
			a.Extensions.SetConfiguration(name, ec.Options)
		}
		if _, err := a.Extensions.Load(name); err != nil {
			return err
		}
	}
	return nil
}

// Stop tears down every loaded extension in reverse load order, then
// stops the hub dispatcher.
func (a *App) Stop() {
	a.Extensions.TeardownAll()
	a.Hub.Stop()
}

// RunInBackground enqueues fn onto the extension manager's supervised
// nursery, returning a cancel func for the individual task.
func (a *App) RunInBackground(fn func(ctx context.Context) error) context.CancelFunc {
	return a.Extensions.RunInBackground(fn)
}

// Supervise opens c through a reconnection Supervisor (retry/back-off
// across transient failures) and runs task against the supervisor
// once the initial connection succeeds. If ctx is cancelled first, it
// returns ctx's error without running task.
func (a *App) Supervise(ctx context.Context, c conn.Connection, task func(context.Context, conn.Connection) error) error {
	sup := conn.NewSupervisor(c, conn.DefaultRetryInterval, a.Logger)
	if err := sup.Open(ctx); err != nil {
		return err
	}
	defer sup.Close(context.Background())

	if err := sup.WaitUntilConnected(ctx); err != nil {
		return err
	}
	return task(ctx, sup)
}
