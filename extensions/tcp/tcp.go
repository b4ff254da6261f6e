// Package tcp implements the newline-delimited-JSON TCP transport
// extension (spec.md §6): a plain TCP listener feeding every inbound
// line to the message hub, with no native broadcaster (the hub falls
// back to one SendMessage per client, per spec.md §4.5).
//
// Grounded on internal/channel.TCPTransport for the accept/framing
// mechanics and the teacher's internal/api.Server for the
// listen-until-ctx-cancelled extension-lifecycle shape.
package tcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/flockwave/flockd/internal/channel"
	"github.com/flockwave/flockd/internal/client"
	"github.com/flockwave/flockd/internal/hub"
)

// Name is this extension's registry name.
const Name = "tcp"

// App is the narrow surface extensions/tcp needs from the kernel
// Application.
type App interface {
	HubFor() *hub.Hub
	RegisterChannelType(td channel.TypeDescriptor) error
	AddClient(c *client.Client) error
	RemoveClient(id string)
}

// Extension owns the TCPTransport and its listener.
type Extension struct {
	transport *channel.TCPTransport

	mu      sync.RWMutex
	clients map[string]*client.Client
}

// New constructs the tcp extension.
func New() *Extension { return &Extension{clients: make(map[string]*client.Client)} }

// Name implements extmgr.Extension.
func (e *Extension) Name() string { return Name }

// Load registers the "tcp" channel type.
func (e *Extension) Load(app App, cfg map[string]any, logger *slog.Logger) error {
	e.transport = channel.NewTCPTransport(logger)
	return app.RegisterChannelType(e.transport.Descriptor())
}

// Run listens on cfg["address"] (default ":5001") until ctx is cancelled.
func (e *Extension) Run(ctx context.Context, app App, cfg map[string]any, logger *slog.Logger) error {
	addr := stringOption(cfg, "address", ":5001")

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("tcp: listen on %s: %w", addr, err)
	}

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			logger.Warn("tcp: accept failed", "error", err)
			continue
		}
		go e.serveOne(ctx, app, logger, conn)
	}
}

func (e *Extension) serveOne(ctx context.Context, app App, logger *slog.Logger, conn net.Conn) {
	err := e.transport.Accept(ctx, conn,
		func(id string, ch *channel.TCPChannel) {
			c := client.New(id, ch)
			if err := app.AddClient(c); err != nil {
				logger.Warn("tcp: duplicate client id rejected", "client", id, "error", err)
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
		logger.Debug("tcp: connection ended", "error", err)
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
