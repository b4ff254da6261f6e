package registry

import "github.com/flockwave/flockd/internal/rtk"

// RTKPresetEntry wraps an rtk.Preset with whether it was hand-configured
// or discovered by hot-plug auto-detection.
type RTKPresetEntry struct {
	Preset        rtk.Preset
	AutoGenerated bool
}

// ID implements registry.Entry.
func (e RTKPresetEntry) ID() string { return e.Preset.ID() }

// RTKPresetRegistry indexes RTK correction presets, distinguishing
// configured entries from ones discovered by hot-plug auto-detection.
type RTKPresetRegistry struct {
	*Registry[RTKPresetEntry]
}

// NewRTKPresetRegistry constructs an empty RTKPresetRegistry.
func NewRTKPresetRegistry() *RTKPresetRegistry {
	return &RTKPresetRegistry{Registry: New[RTKPresetEntry]()}
}

// RegeneratePresets removes every AutoGenerated entry and replaces it
// with the freshly discovered set, leaving hand-configured presets
// untouched. This is the hot-plug regeneration rule spec.md calls for:
// auto-detected presets disappear and reappear as hardware changes,
// configured ones never do.
func (r *RTKPresetRegistry) RegeneratePresets(discovered []rtk.Preset) {
	for _, id := range r.IDs() {
		e, err := r.FindByID(id)
		if err != nil {
			continue
		}
		if e.AutoGenerated {
			r.Remove(id)
		}
	}
	for _, p := range discovered {
		r.Add(RTKPresetEntry{Preset: p, AutoGenerated: true})
	}
}
