package registry

import (
	"testing"

	"github.com/flockwave/flockd/internal/rtk"
)

func TestRegeneratePresetsReplacesOnlyAutoGenerated(t *testing.T) {
	r := NewRTKPresetRegistry()

	manual := rtk.Preset{PresetID: "manual-1", Label: "Base station", Format: "rtcm3"}
	r.Add(RTKPresetEntry{Preset: manual, AutoGenerated: false})

	auto := rtk.Preset{PresetID: "auto-1", Label: "USB GPS", Format: "ntrip", Device: "/dev/ttyUSB0"}
	r.Add(RTKPresetEntry{Preset: auto, AutoGenerated: true})

	if r.NumEntries() != 2 {
		t.Fatalf("NumEntries() = %d, want 2", r.NumEntries())
	}

	replacement := rtk.Preset{PresetID: "auto-2", Label: "USB GPS (moved)", Format: "ntrip", Device: "/dev/ttyUSB1"}
	r.RegeneratePresets([]rtk.Preset{replacement})

	if r.NumEntries() != 2 {
		t.Fatalf("NumEntries() after regenerate = %d, want 2", r.NumEntries())
	}
	if !r.Contains("manual-1") {
		t.Fatal("manual preset was removed by RegeneratePresets")
	}
	if r.Contains("auto-1") {
		t.Fatal("stale auto-generated preset survived RegeneratePresets")
	}
	if !r.Contains("auto-2") {
		t.Fatal("freshly discovered preset was not added")
	}
}

func TestRegeneratePresetsWithNoDiscoveriesClearsAutoGenerated(t *testing.T) {
	r := NewRTKPresetRegistry()
	r.Add(RTKPresetEntry{Preset: rtk.Preset{PresetID: "auto-1"}, AutoGenerated: true})

	r.RegeneratePresets(nil)

	if r.NumEntries() != 0 {
		t.Fatalf("NumEntries() = %d, want 0", r.NumEntries())
	}
}
