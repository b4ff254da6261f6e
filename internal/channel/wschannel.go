package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/flockwave/flockd/internal/client"
)

// TypeIDWebSocket is the channel-type registry key for the
// Socket.IO-equivalent WebSocket transport.
const TypeIDWebSocket = "websocket"

// WSChannel adapts one accepted *websocket.Conn to client.Channel.
type WSChannel struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWSChannel wraps an already-upgraded WebSocket connection.
func NewWSChannel(conn *websocket.Conn) *WSChannel {
	return &WSChannel{conn: conn}
}

// Send implements client.Channel.
func (c *WSChannel) Send(ctx context.Context, raw json.RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, raw)
}

// Close implements client.Channel.
func (c *WSChannel) Close() error {
	return c.conn.Close()
}

// TypeID implements client.Channel.
func (c *WSChannel) TypeID() string { return TypeIDWebSocket }

// WSTransport accepts inbound WebSocket upgrades and tracks the set of
// currently connected channels so it can offer a native Broadcaster
// (spec.md §4.5's "channel type has a broadcaster function" path)
// instead of falling back to one send per client. Grounded on the
// teacher's go.mod dependency on github.com/gorilla/websocket
// (exercised client-side in internal/homeassistant/websocket.go),
// adapted here to the server-accept direction this kernel needs.
type WSTransport struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu       sync.Mutex
	channels map[string]*WSChannel
	nextID   int
}

// NewWSTransport constructs a WSTransport with a permissive origin
// check, matching the teacher's own local-network deployment posture.
func NewWSTransport(logger *slog.Logger) *WSTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSTransport{
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		logger:   logger,
		channels: make(map[string]*WSChannel),
	}
}

// Descriptor builds the channel.TypeDescriptor this transport registers
// in the channel-type registry.
func (t *WSTransport) Descriptor() TypeDescriptor {
	return TypeDescriptor{
		TypeID:       TypeIDWebSocket,
		Factory:      t.factory,
		Broadcaster:  t.broadcast,
		SSDPLocation: t.ssdpLocation,
	}
}

// factory exists to satisfy the ChannelFactory contract; WebSocket
// channels are accept-driven (see Accept), not dialled on demand, so
// calling this directly is a usage error.
func (t *WSTransport) factory(context.Context) (client.Channel, error) {
	return nil, fmt.Errorf("channel: websocket channels are created by accepting an HTTP upgrade, not by Factory")
}

// Accept upgrades one HTTP request to a WebSocket, assigns it a
// transport-prefixed client id, and runs onMessage for every inbound
// frame until the socket closes or ctx is cancelled, at which point
// onClose runs. Both callbacks are invoked synchronously from Accept's
// own goroutine — the caller (extensions/sio) decides how to register
// and deregister the resulting client.Client.
func (t *WSTransport) Accept(ctx context.Context, w http.ResponseWriter, r *http.Request,
	onAccept func(id string, ch *WSChannel),
	onMessage func(ctx context.Context, raw json.RawMessage, id string),
	onClose func(id string),
) error {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("channel: websocket upgrade: %w", err)
	}
	ch := NewWSChannel(conn)

	t.mu.Lock()
	t.nextID++
	id := fmt.Sprintf("sio:%d", t.nextID)
	t.channels[id] = ch
	t.mu.Unlock()

	onAccept(id, ch)

	defer func() {
		t.mu.Lock()
		delete(t.channels, id)
		t.mu.Unlock()
		ch.Close()
		onClose(id)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			t.logger.Debug("channel: websocket read ended", "client", id, "error", err)
			return nil
		}
		onMessage(ctx, raw, id)
	}
}

// broadcast writes raw to every currently connected channel,
// best-effort: one client's write failure is logged and does not stop
// delivery to the rest.
func (t *WSTransport) broadcast(ctx context.Context, raw []byte) error {
	t.mu.Lock()
	channels := make(map[string]*WSChannel, len(t.channels))
	for id, ch := range t.channels {
		channels[id] = ch
	}
	t.mu.Unlock()

	for id, ch := range channels {
		if err := ch.Send(ctx, raw); err != nil {
			t.logger.Warn("channel: websocket broadcast write failed", "client", id, "error", err)
		}
	}
	return nil
}

// ssdpLocation advertises the WebSocket endpoint to an SSDP peer at
// peerIP, reusing whichever local interface address would route to it.
func (t *WSTransport) ssdpLocation(peerIP net.IP) (string, bool) {
	addr := localAddressRouting(peerIP)
	if addr == "" {
		return "", false
	}
	return fmt.Sprintf("ws://%s/ws", addr), true
}
