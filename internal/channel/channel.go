// Package channel defines the channel-type contract (spec.md §3) and
// the reference WebSocket/TCP transports that exercise it end to end.
package channel

import (
	"context"
	"net"

	"github.com/flockwave/flockd/internal/client"
)

// ChannelFactory is invoked once per accepted connection to wrap it as
// a client.Channel.
type ChannelFactory func(ctx context.Context) (client.Channel, error)

// BroadcastFunc sends a pre-encoded envelope to every currently
// connected client of this channel type in one shot, when the
// transport supports a real broadcast primitive (e.g. a WebSocket hub
// fan-out). Nil when no such primitive exists, per spec.md §3.
type BroadcastFunc func(ctx context.Context, raw []byte) error

// SSDPLocationFunc resolves the "LOCATION" a channel type advertises
// to an SSDP peer reachable at peerIP, or reports that this transport
// has nothing to advertise to that peer (e.g. wrong subnet).
type SSDPLocationFunc func(peerIP net.IP) (location string, ok bool)

// TypeDescriptor is one entry in the channel-type registry: the
// identity of a transport plus its optional broadcaster and SSDP
// advertisement hooks.
type TypeDescriptor struct {
	TypeID       string
	Factory      ChannelFactory
	Broadcaster  BroadcastFunc
	SSDPLocation SSDPLocationFunc
}

// ID implements registry.Entry.
func (d TypeDescriptor) ID() string { return d.TypeID }
