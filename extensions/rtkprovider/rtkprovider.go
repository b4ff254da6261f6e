// Package rtkprovider implements the RTK correction preset
// auto-discovery extension (spec.md §4.2, §3): it periodically
// enumerates serial ports, probes them for known DGPS/RTK receivers,
// and regenerates the RTK preset registry's auto-generated entries,
// leaving hand-configured presets untouched.
//
// No serial port enumeration library appears anywhere in the surveyed
// example pack's go.mod files (see DESIGN.md), so this extension is
// built against internal/rtk's PortLister/Discoverer interfaces rather
// than importing one — a real hot-plug implementation plugs in at
// New() without this package or internal/rtk changing.
package rtkprovider

import (
	"context"
	"log/slog"
	"time"

	"github.com/flockwave/flockd/internal/rtk"
)

// Name is this extension's registry name.
const Name = "rtkprovider"

// defaultRescanInterval is how often ports are re-enumerated when
// cfg["rescan_interval_seconds"] is unset.
const defaultRescanInterval = 30 * time.Second

// App is the narrow surface this extension needs from the kernel
// Application: a way to replace the registry's auto-generated preset
// set after each rescan.
type App interface {
	RegeneratePresets(discovered []rtk.Preset)
}

// Extension owns the port lister and discoverer used to build
// candidate presets on each rescan tick.
type Extension struct {
	lister     rtk.PortLister
	discoverer rtk.Discoverer
}

// New constructs the rtkprovider extension. lister enumerates serial
// device paths present on the host; discoverer probes a subset of
// those paths for a known RTK/DGPS receiver identification string and
// returns the resulting candidate Presets.
func New(lister rtk.PortLister, discoverer rtk.Discoverer) *Extension {
	return &Extension{lister: lister, discoverer: discoverer}
}

// Name implements extmgr.Extension.
func (e *Extension) Name() string { return Name }

// Run rescans serial ports on a fixed interval until ctx is cancelled,
// replacing the registry's auto-generated presets after every
// successful scan (spec.md §4.2's hot-plug regeneration rule).
func (e *Extension) Run(ctx context.Context, app App, cfg map[string]any, logger *slog.Logger) error {
	interval := defaultRescanInterval
	if cfg != nil {
		if v, ok := cfg["rescan_interval_seconds"].(float64); ok && v > 0 {
			interval = time.Duration(v) * time.Second
		}
	}

	e.rescan(app, logger)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.rescan(app, logger)
		}
	}
}

func (e *Extension) rescan(app App, logger *slog.Logger) {
	ports, err := e.lister.ListPorts()
	if err != nil {
		if logger != nil {
			logger.Warn("rtkprovider: list serial ports", "error", err)
		}
		return
	}
	presets, err := e.discoverer.Discover(ports)
	if err != nil {
		if logger != nil {
			logger.Warn("rtkprovider: discover RTK presets", "error", err)
		}
		return
	}
	app.RegeneratePresets(presets)
}
