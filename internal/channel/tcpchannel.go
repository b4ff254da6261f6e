package channel

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/flockwave/flockd/internal/client"
)

// TypeIDTCP is the channel-type registry key for the raw, newline-
// delimited JSON TCP transport.
const TypeIDTCP = "tcp"

// TCPChannel adapts one accepted net.TCPConn to client.Channel. Frames
// are newline-delimited JSON, the simplest framing the spec.md §6
// transport contract allows ("inbound bytes -> parsed JSON message").
type TCPChannel struct {
	mu   sync.Mutex
	conn net.Conn
}

// NewTCPChannel wraps an already-accepted TCP connection.
func NewTCPChannel(conn net.Conn) *TCPChannel {
	return &TCPChannel{conn: conn}
}

// Send implements client.Channel.
func (c *TCPChannel) Send(ctx context.Context, raw json.RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.conn.Write(raw); err != nil {
		return err
	}
	_, err := c.conn.Write([]byte("\n"))
	return err
}

// Close implements client.Channel.
func (c *TCPChannel) Close() error { return c.conn.Close() }

// TypeID implements client.Channel.
func (c *TCPChannel) TypeID() string { return TypeIDTCP }

// TCPTransport accepts inbound TCP connections. It has no native
// broadcast primitive, so the channel-type registry entry it produces
// leaves Broadcaster nil and the hub falls back to one SendMessage per
// client, exactly as spec.md §4.5 describes for transports without one.
type TCPTransport struct {
	logger *slog.Logger
	nextID int
	mu     sync.Mutex
}

// NewTCPTransport constructs a TCPTransport.
func NewTCPTransport(logger *slog.Logger) *TCPTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &TCPTransport{logger: logger}
}

// Descriptor builds the channel.TypeDescriptor this transport registers.
func (t *TCPTransport) Descriptor() TypeDescriptor {
	return TypeDescriptor{
		TypeID:       TypeIDTCP,
		Factory:      t.factory,
		Broadcaster:  nil,
		SSDPLocation: t.ssdpLocation,
	}
}

func (t *TCPTransport) factory(context.Context) (client.Channel, error) {
	return nil, fmt.Errorf("channel: tcp channels are created by accepting a listener connection, not by Factory")
}

// Accept reads newline-delimited JSON frames from conn until it closes
// or ctx is cancelled, assigning it a transport-prefixed client id.
func (t *TCPTransport) Accept(ctx context.Context, conn net.Conn,
	onAccept func(id string, ch *TCPChannel),
	onMessage func(ctx context.Context, raw json.RawMessage, id string),
	onClose func(id string),
) error {
	ch := NewTCPChannel(conn)

	t.mu.Lock()
	t.nextID++
	id := fmt.Sprintf("tcp:%d", t.nextID)
	t.mu.Unlock()

	onAccept(id, ch)
	defer func() {
		ch.Close()
		onClose(id)
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		raw := make(json.RawMessage, len(line))
		copy(raw, line)
		onMessage(ctx, raw, id)
	}
	if err := scanner.Err(); err != nil {
		t.logger.Debug("channel: tcp read ended", "client", id, "error", err)
	}
	return nil
}

func (t *TCPTransport) ssdpLocation(peerIP net.IP) (string, bool) {
	addr := localAddressRouting(peerIP)
	if addr == "" {
		return "", false
	}
	return fmt.Sprintf("tcp://%s", addr), true
}
