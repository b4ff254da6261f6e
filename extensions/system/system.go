// Package system implements the built-in introspection extension
// (spec.md §4.6/§6): CLK-LIST/CLK-INF, CONN-LIST/CONN-INF, and the
// EXT-* family (EXT-LIST/EXT-INF/EXT-CFG/EXT-SETCFG/EXT-LOAD/
// EXT-UNLOAD/EXT-RELOAD). It is the one extension every flockd
// instance loads unconditionally, so its own name is protected against
// EXT-LOAD/EXT-UNLOAD/EXT-RELOAD the same way Python's recognised
// "base"/"manager"/"logger" attribute names are reserved in
// internal/extmgr.
//
// Grounded on internal/extmgr's Manager surface for the EXT-* handlers
// and internal/registry's ClockRegistry/ConnectionRegistry for
// CLK-*/CONN-*, following the partial-failure status/failure/reasons
// convention already established by internal/fwmsg.PartialResult.
package system

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flockwave/flockd/internal/client"
	"github.com/flockwave/flockd/internal/conn"
	"github.com/flockwave/flockd/internal/fwmsg"
	"github.com/flockwave/flockd/internal/hub"
)

// Name is this extension's reserved, protected identifier.
const Name = "system"

// App is the subset of *kernel.App the system extension needs,
// declared locally so this package does not import internal/kernel
// (which would import extensions/system back to register it,
// mirroring the local-interface pattern internal/hub/broadcast.go and
// internal/uav/handlers.go already use to dodge import cycles).
type App interface {
	HubFor() *hub.Hub
	Clocks() ClockSource
	Connections() ConnectionSource
	ExtensionManager() ExtensionSource
}

// ClockSource is the slice of ClockRegistry the CLK-* handlers need.
type ClockSource interface {
	IDs() []string
	FindByID(id string) (ClockEntry, error)
}

// ClockEntry is the slice of clock.Clock the CLK-INF payload needs.
type ClockEntry interface {
	ID() string
	Running() bool
	Ticks() int64
}

// ConnectionSource is the slice of ConnectionRegistry the CONN-*
// handlers need.
type ConnectionSource interface {
	IDs() []string
	FindByID(id string) (ConnectionEntry, error)
}

// ConnectionEntry describes one registered connection for CONN-INF.
type ConnectionEntry struct {
	ID          string
	State       conn.State
	Description string
	Purpose     string
}

// ExtensionSource is the slice of extmgr.Manager the EXT-* handlers
// need, erased of its app type parameter.
type ExtensionSource interface {
	IsLoaded(name string) bool
	LoadOrder() []string
	Configuration(name string) (map[string]any, bool)
	SetConfiguration(name string, cfg map[string]any)
	Load(name string) error
	Unload(name string) error
	Reload(name string) error
	Dependencies(name string) []string
	Registered() []string
}

// Extension implements extmgr.Extension[App] (structurally, via the
// kernel's own App adapter) and registers its handlers on Load.
type Extension struct{}

// New constructs the system extension.
func New() *Extension { return &Extension{} }

// Name implements extmgr.Extension.
func (e *Extension) Name() string { return Name }

// Load registers every CLK-*/CONN-*/EXT-* handler against the hub.
func (e *Extension) Load(app App, cfg map[string]any, logger *slog.Logger) error {
	h := app.HubFor()
	h.RegisterHandler("CLK-LIST", clkListHandler(app))
	h.RegisterHandler("CLK-INF", clkInfHandler(app))
	h.RegisterHandler("CONN-LIST", connListHandler(app))
	h.RegisterHandler("CONN-INF", connInfHandler(app))
	h.RegisterHandler("EXT-LIST", extListHandler(app))
	h.RegisterHandler("EXT-INF", extInfHandler(app))
	h.RegisterHandler("EXT-CFG", extCfgHandler(app))
	h.RegisterHandler("EXT-SETCFG", extSetCfgHandler(app))
	h.RegisterHandler("EXT-LOAD", extLoadHandler(app))
	h.RegisterHandler("EXT-UNLOAD", extUnloadHandler(app))
	h.RegisterHandler("EXT-RELOAD", extReloadHandler(app))
	return nil
}

func clkListHandler(app App) hub.HandlerFunc {
	return func(ctx context.Context, msg *fwmsg.Envelope, sender *client.Client, h *hub.Hub) (hub.Result, error) {
		reply := h.Builder().CreateResponse(msg, fwmsg.Body{"type": "CLK-LIST", "ids": app.Clocks().IDs()})
		return hub.Result{Handled: true, Reply: reply}, nil
	}
}

func clkInfHandler(app App) hub.HandlerFunc {
	return func(ctx context.Context, msg *fwmsg.Envelope, sender *client.Client, h *hub.Hub) (hub.Result, error) {
		result := fwmsg.NewPartialResult()
		for _, id := range stringIDs(msg.Body) {
			c, err := app.Clocks().FindByID(id)
			if err != nil {
				result.Fail(id, "No such clock")
				continue
			}
			result.Succeed(id, map[string]any{"running": c.Running(), "ticks": c.Ticks()})
		}
		reply := h.Builder().CreateResponse(msg, result.Body("CLK-INF"))
		return hub.Result{Handled: true, Reply: reply}, nil
	}
}

func connListHandler(app App) hub.HandlerFunc {
	return func(ctx context.Context, msg *fwmsg.Envelope, sender *client.Client, h *hub.Hub) (hub.Result, error) {
		reply := h.Builder().CreateResponse(msg, fwmsg.Body{"type": "CONN-LIST", "ids": app.Connections().IDs()})
		return hub.Result{Handled: true, Reply: reply}, nil
	}
}

func connInfHandler(app App) hub.HandlerFunc {
	return func(ctx context.Context, msg *fwmsg.Envelope, sender *client.Client, h *hub.Hub) (hub.Result, error) {
		result := fwmsg.NewPartialResult()
		for _, id := range stringIDs(msg.Body) {
			ce, err := app.Connections().FindByID(id)
			if err != nil {
				result.Fail(id, "No such connection")
				continue
			}
			result.Succeed(id, map[string]any{
				"state":       ce.State.String(),
				"description": ce.Description,
				"purpose":     ce.Purpose,
			})
		}
		reply := h.Builder().CreateResponse(msg, result.Body("CONN-INF"))
		return hub.Result{Handled: true, Reply: reply}, nil
	}
}

func extListHandler(app App) hub.HandlerFunc {
	return func(ctx context.Context, msg *fwmsg.Envelope, sender *client.Client, h *hub.Hub) (hub.Result, error) {
		reply := h.Builder().CreateResponse(msg, fwmsg.Body{"type": "EXT-LIST", "ids": app.ExtensionManager().Registered()})
		return hub.Result{Handled: true, Reply: reply}, nil
	}
}

func extInfHandler(app App) hub.HandlerFunc {
	return func(ctx context.Context, msg *fwmsg.Envelope, sender *client.Client, h *hub.Hub) (hub.Result, error) {
		result := fwmsg.NewPartialResult()
		forEachExtensionID(msg.Body, app, result, func(id string) (any, error) {
			loaded := app.ExtensionManager().IsLoaded(id)
			return map[string]any{
				"loaded":       loaded,
				"dependencies": app.ExtensionManager().Dependencies(id),
			}, nil
		})
		reply := h.Builder().CreateResponse(msg, result.Body("EXT-INF"))
		return hub.Result{Handled: true, Reply: reply}, nil
	}
}

func extCfgHandler(app App) hub.HandlerFunc {
	return func(ctx context.Context, msg *fwmsg.Envelope, sender *client.Client, h *hub.Hub) (hub.Result, error) {
		result := fwmsg.NewPartialResult()
		forEachExtensionID(msg.Body, app, result, func(id string) (any, error) {
			cfg, ok := app.ExtensionManager().Configuration(id)
			if !ok {
				return nil, fmt.Errorf("no stored configuration")
			}
			return cfg, nil
		})
		reply := h.Builder().CreateResponse(msg, result.Body("EXT-CFG"))
		return hub.Result{Handled: true, Reply: reply}, nil
	}
}

func extSetCfgHandler(app App) hub.HandlerFunc {
	return func(ctx context.Context, msg *fwmsg.Envelope, sender *client.Client, h *hub.Hub) (hub.Result, error) {
		result := fwmsg.NewPartialResult()
		configs, _ := msg.Body["configurations"].(map[string]any)
		for _, id := range stringIDs(msg.Body) {
			if isProtected(id) {
				result.Fail(id, "Extension is protected")
				continue
			}
			cfg, _ := configs[id].(map[string]any)
			app.ExtensionManager().SetConfiguration(id, cfg)
			result.Succeed(id, true)
		}
		reply := h.Builder().CreateResponse(msg, result.Body("EXT-SETCFG"))
		return hub.Result{Handled: true, Reply: reply}, nil
	}
}

func extLoadHandler(app App) hub.HandlerFunc {
	return func(ctx context.Context, msg *fwmsg.Envelope, sender *client.Client, h *hub.Hub) (hub.Result, error) {
		result := fwmsg.NewPartialResult()
		forEachExtensionID(msg.Body, app, result, func(id string) (any, error) {
			if err := app.ExtensionManager().Load(id); err != nil {
				return nil, err
			}
			return true, nil
		})
		reply := h.Builder().CreateResponse(msg, result.Body("EXT-LOAD"))
		return hub.Result{Handled: true, Reply: reply}, nil
	}
}

func extUnloadHandler(app App) hub.HandlerFunc {
	return func(ctx context.Context, msg *fwmsg.Envelope, sender *client.Client, h *hub.Hub) (hub.Result, error) {
		result := fwmsg.NewPartialResult()
		forEachExtensionID(msg.Body, app, result, func(id string) (any, error) {
			if err := app.ExtensionManager().Unload(id); err != nil {
				return nil, err
			}
			return true, nil
		})
		reply := h.Builder().CreateResponse(msg, result.Body("EXT-UNLOAD"))
		return hub.Result{Handled: true, Reply: reply}, nil
	}
}

func extReloadHandler(app App) hub.HandlerFunc {
	return func(ctx context.Context, msg *fwmsg.Envelope, sender *client.Client, h *hub.Hub) (hub.Result, error) {
		result := fwmsg.NewPartialResult()
		forEachExtensionID(msg.Body, app, result, func(id string) (any, error) {
			if err := app.ExtensionManager().Reload(id); err != nil {
				return nil, err
			}
			return true, nil
		})
		reply := h.Builder().CreateResponse(msg, result.Body("EXT-RELOAD"))
		return hub.Result{Handled: true, Reply: reply}, nil
	}
}

// forEachExtensionID runs fn for every id in msg.Body's "ids" field,
// rejecting Name itself with the protected-extension message every
// EXT-* handler shares (spec.md §6).
func forEachExtensionID(body fwmsg.Body, app App, result *fwmsg.PartialResult, fn func(id string) (any, error)) {
	for _, id := range stringIDsFromBody(body) {
		if isProtected(id) {
			result.Fail(id, "Extension is protected")
			continue
		}
		value, err := fn(id)
		if err != nil {
			result.Fail(id, err.Error())
			continue
		}
		result.Succeed(id, value)
	}
}

func isProtected(id string) bool { return id == Name }

func stringIDs(body fwmsg.Body) []string { return stringIDsFromBody(body) }

func stringIDsFromBody(body fwmsg.Body) []string {
	raw, ok := body["ids"]
	if !ok {
		return nil
	}
	arr, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
