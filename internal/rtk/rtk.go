// Package rtk defines RTK correction preset domain types: the serial
// port / network parameters a DGPS base station link needs, and the
// hot-plug discovery contract the RTK preset registry uses to
// regenerate auto-detected presets.
package rtk

// Preset is one named RTK correction source configuration.
type Preset struct {
	PresetID string
	Label    string
	Format   string // e.g. "rtcm3", "ntrip"
	Device   string // serial device path, or host:port for network sources
	BaudRate int    // 0 for network sources
}

// ID implements registry.Entry.
func (p Preset) ID() string { return p.PresetID }

// PortLister enumerates serial ports currently present on the host, so
// RTKPresetRegistry.RegeneratePresets can auto-detect newly plugged-in
// DGPS receivers without the kernel depending on a concrete serial
// library (see internal/conn's SerialPortOpener for the same pattern
// applied to opening, rather than enumerating, a port).
type PortLister interface {
	ListPorts() ([]string, error)
}

// Discoverer turns a list of serial device paths into candidate
// auto-generated Presets, e.g. by probing each port for a known DGPS
// receiver's identification string.
type Discoverer interface {
	Discover(ports []string) ([]Preset, error)
}
