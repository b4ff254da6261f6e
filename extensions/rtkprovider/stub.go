package rtkprovider

import "github.com/flockwave/flockd/internal/rtk"

// NoOpPortLister reports no serial ports present. It is the default
// used by cmd/flockd until a platform-specific serial enumeration
// backend is wired in; rtkprovider still runs its scan loop and
// RTKPresetRegistry.RegeneratePresets still clears any stale
// auto-generated entries each tick, so the hot-plug contract holds
// even with zero hardware attached.
type NoOpPortLister struct{}

// ListPorts implements rtk.PortLister.
func (NoOpPortLister) ListPorts() ([]string, error) { return nil, nil }

// NoOpDiscoverer reports no candidate presets for any port list.
type NoOpDiscoverer struct{}

// Discover implements rtk.Discoverer.
func (NoOpDiscoverer) Discover(ports []string) ([]rtk.Preset, error) { return nil, nil }
