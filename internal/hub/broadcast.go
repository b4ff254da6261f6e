package hub

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/flockwave/flockd/internal/channel"
	"github.com/flockwave/flockd/internal/client"
	"github.com/flockwave/flockd/internal/fwmsg"
)

// clientSource lets broadcast enumerate connected clients without the
// hub depending on the concrete *registry.ClientRegistry type.
type clientSource interface {
	IDs() []string
	FindByID(id string) (*client.Client, error)
}

// channelTypeSource lets broadcast look up channel.TypeDescriptors
// without depending on the concrete *registry.ChannelTypeRegistry type.
type channelTypeSource interface {
	IDs() []string
	FindByID(id string) (channel.TypeDescriptor, error)
}

// Broadcaster sends a message to every connected client, preferring a
// channel type's native broadcast primitive when available and ≥1
// client of that type is connected, falling back to one SendMessage
// per client otherwise (spec.md §4.5).
type Broadcaster struct {
	hub      *Hub
	clients  clientSource
	chanTypes channelTypeSource

	mu    sync.Mutex
	dirty bool
	// byType caches, per channel type id, the client ids currently
	// connected on it. Invalidated (not recomputed) on
	// ClientRegistry.CountChanged / ChannelTypeRegistry.Added/Removed;
	// recomputed lazily on the next Broadcast call.
	byType map[string][]string
}

// NewBroadcaster constructs a Broadcaster reading from clients and
// chanTypes. The caller is expected to wire Invalidate as a
// subscriber of ClientRegistry.CountChanged and
// ChannelTypeRegistry.Added/Removed (see kernel.App), so the cache
// invalidates whenever the connected population or the set of channel
// types changes.
func NewBroadcaster(h *Hub, clients clientSource, chanTypes channelTypeSource) *Broadcaster {
	return &Broadcaster{hub: h, clients: clients, chanTypes: chanTypes, dirty: true}
}

// Invalidate marks the per-type client cache stale.
func (b *Broadcaster) Invalidate() {
	b.mu.Lock()
	b.dirty = true
	b.mu.Unlock()
}

func (b *Broadcaster) rebuild() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.dirty {
		return
	}
	byType := make(map[string][]string)
	for _, id := range b.clients.IDs() {
		c, err := b.clients.FindByID(id)
		if err != nil {
			continue
		}
		t := c.Channel().TypeID()
		byType[t] = append(byType[t], id)
	}
	b.byType = byType
	b.dirty = false
}

// Broadcast sends msg to every connected client across every channel
// type, preferring each type's native broadcaster when one exists and
// at least one client of that type is connected.
func (b *Broadcaster) Broadcast(ctx context.Context, msg *fwmsg.Envelope) {
	b.rebuild()

	raw, err := json.Marshal(msg)
	if err != nil {
		b.hub.logger.Error("broadcast: encode message", "error", err)
		return
	}

	b.mu.Lock()
	byType := b.byType
	b.mu.Unlock()

	for _, typeID := range b.chanTypes.IDs() {
		td, err := b.chanTypes.FindByID(typeID)
		if err != nil {
			continue
		}
		ids := byType[typeID]
		if len(ids) == 0 {
			continue
		}
		if td.Broadcaster != nil {
			if err := td.Broadcaster(ctx, raw); err != nil {
				b.hub.logger.Warn("broadcast: native broadcaster failed", "channelType", typeID, "error", err)
			}
			continue
		}
		for _, id := range ids {
			c, err := b.clients.FindByID(id)
			if err != nil {
				continue
			}
			if err := b.hub.SendMessage(ctx, c, msg); err != nil {
				b.hub.logger.Warn("broadcast: send to client failed", "client", id, "error", err)
			}
		}
	}
}
