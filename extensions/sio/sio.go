// Package sio implements the Socket.IO-equivalent WebSocket transport
// extension (spec.md §6): an HTTP server upgrading "/ws" requests to
// WebSocket, feeding every inbound frame to the message hub and
// registering a "websocket" channel type with a native broadcaster.
//
// Grounded on internal/channel.WSTransport for the accept/broadcast
// mechanics and on the teacher's internal/api.Server for the
// http.Server + graceful Shutdown(ctx) extension-lifecycle shape.
package sio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/flockwave/flockd/internal/channel"
	"github.com/flockwave/flockd/internal/client"
	"github.com/flockwave/flockd/internal/hub"
)

// Name is this extension's registry name.
const Name = "sio"

// App is the narrow surface extensions/sio needs from the kernel
// Application, declared locally so this package never imports
// internal/kernel (see internal/kernel/systemadapter.go for the
// reverse-direction wiring this mirrors).
type App interface {
	HubFor() *hub.Hub
	RegisterChannelType(td channel.TypeDescriptor) error
	AddClient(c *client.Client) error
	RemoveClient(id string)
}

// Extension owns the WSTransport, the HTTP server it's mounted on, and
// an id->*client.Client map so inbound frames can be handed to the hub
// with their sender attached without a registry round trip per frame.
type Extension struct {
	transport *channel.WSTransport

	mu      sync.RWMutex
	clients map[string]*client.Client
}

// New constructs the sio extension.
func New() *Extension { return &Extension{clients: make(map[string]*client.Client)} }

// Name implements extmgr.Extension.
func (e *Extension) Name() string { return Name }

// Load registers the "websocket" channel type so discovery/SSDP can
// see it before Run's listener is up, mirroring spec.md §4.6's
// load-then-run ordering.
func (e *Extension) Load(app App, cfg map[string]any, logger *slog.Logger) error {
	e.transport = channel.NewWSTransport(logger)
	return app.RegisterChannelType(e.transport.Descriptor())
}

// Run serves WebSocket upgrades on cfg["address"] (default ":5000")
// until ctx is cancelled.
func (e *Extension) Run(ctx context.Context, app App, cfg map[string]any, logger *slog.Logger) error {
	addr := stringOption(cfg, "address", ":5000")

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		e.serveOne(ctx, app, logger, w, r)
	})

	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("sio: listen on %s: %w", addr, err)
		}
		return nil
	}
}

func (e *Extension) serveOne(ctx context.Context, app App, logger *slog.Logger, w http.ResponseWriter, r *http.Request) {
	err := e.transport.Accept(ctx, w, r,
		func(id string, ch *channel.WSChannel) {
			c := client.New(id, ch)
			if err := app.AddClient(c); err != nil {
				logger.Warn("sio: duplicate client id rejected", "client", id, "error", err)
				ch.Close()
				return
			}
			e.mu.Lock()
			e.clients[id] = c
			e.mu.Unlock()
		},
		func(ctx context.Context, raw json.RawMessage, id string) {
			e.mu.RLock()
			c := e.clients[id]
			e.mu.RUnlock()
			app.HubFor().HandleIncomingMessage(ctx, raw, c)
		},
		func(id string) {
			e.mu.Lock()
			delete(e.clients, id)
			e.mu.Unlock()
			app.RemoveClient(id)
		},
	)
	if err != nil {
		logger.Debug("sio: connection ended", "error", err)
	}
}

func stringOption(cfg map[string]any, key, def string) string {
	if cfg == nil {
		return def
	}
	if v, ok := cfg[key].(string); ok && v != "" {
		return v
	}
	return def
}
