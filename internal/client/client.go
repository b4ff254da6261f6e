// Package client holds the Client type: one entry per connected
// channel endpoint, tracked by internal/registry's ClientRegistry.
package client

import (
	"context"
	"encoding/json"
)

// Channel is the minimal contract a transport must satisfy to carry a
// client's messages. Concrete channel types (WebSocket, TCP, ...) live
// in internal/channel and implement this.
type Channel interface {
	// Send writes one outbound envelope (already marshalled to JSON by
	// the hub) to the remote endpoint.
	Send(ctx context.Context, raw json.RawMessage) error
	// Close tears down the underlying transport.
	Close() error
	// TypeID names the ChannelTypeRegistry entry this channel was
	// created from (e.g. "websocket", "tcp").
	TypeID() string
}

// Client is one connected endpoint: a channel plus the bookkeeping the
// kernel needs to address it (id, optional authenticated user).
type Client struct {
	id      string
	channel Channel
	user    string
}

// New constructs a Client wrapping ch, identified by id. user is empty
// until an auth extension authenticates the client.
func New(id string, ch Channel) *Client {
	return &Client{id: id, channel: ch}
}

// ID implements registry.Entry.
func (c *Client) ID() string { return c.id }

// Channel returns the transport this client was accepted on.
func (c *Client) Channel() Channel { return c.channel }

// User returns the authenticated username, or "" if unauthenticated.
func (c *Client) User() string { return c.user }

// SetUser records the authenticated username for this client.
func (c *Client) SetUser(user string) { c.user = user }

// Send writes raw to this client's channel.
func (c *Client) Send(ctx context.Context, raw json.RawMessage) error {
	return c.channel.Send(ctx, raw)
}

// Close closes the underlying channel.
func (c *Client) Close() error {
	return c.channel.Close()
}
