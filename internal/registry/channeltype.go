package registry

import (
	"net"

	"github.com/flockwave/flockd/internal/channel"
)

// ChannelTypeRegistry indexes the channel.TypeDescriptors available to
// accept new clients and to advertise over SSDP.
type ChannelTypeRegistry struct {
	*Registry[channel.TypeDescriptor]
}

// NewChannelTypeRegistry constructs an empty ChannelTypeRegistry.
func NewChannelTypeRegistry() *ChannelTypeRegistry {
	return &ChannelTypeRegistry{Registry: New[channel.TypeDescriptor]()}
}

// SSDPLocation looks up typeID and asks its SSDPLocation resolver
// (if any) what to advertise to a peer at peerIP, satisfying
// internal/ssdp.ChannelTypeSource.
func (r *ChannelTypeRegistry) SSDPLocation(typeID string, peerIP net.IP) (string, bool) {
	td, err := r.FindByID(typeID)
	if err != nil || td.SSDPLocation == nil {
		return "", false
	}
	return td.SSDPLocation(peerIP)
}
