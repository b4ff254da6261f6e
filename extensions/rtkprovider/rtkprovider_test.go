package rtkprovider

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/flockwave/flockd/internal/rtk"
)

type fakeLister struct {
	ports []string
}

func (f fakeLister) ListPorts() ([]string, error) { return f.ports, nil }

type fakeDiscoverer struct {
	presets []rtk.Preset
}

func (f fakeDiscoverer) Discover(ports []string) ([]rtk.Preset, error) { return f.presets, nil }

type recordingApp struct {
	mu    sync.Mutex
	calls [][]rtk.Preset
}

func (r *recordingApp) RegeneratePresets(discovered []rtk.Preset) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, discovered)
}

func (r *recordingApp) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func TestRunRescansImmediatelyOnStart(t *testing.T) {
	preset := rtk.Preset{PresetID: "p1", Device: "/dev/ttyUSB0"}
	ext := New(fakeLister{ports: []string{"/dev/ttyUSB0"}}, fakeDiscoverer{presets: []rtk.Preset{preset}})
	app := &recordingApp{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ext.Run(ctx, app, map[string]any{"rescan_interval_seconds": 3600.0}, nil) }()

	deadline := time.After(time.Second)
	for app.callCount() < 1 {
		select {
		case <-deadline:
			t.Fatalf("expected an immediate rescan on Run start")
		default:
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if app.callCount() != 1 {
		t.Fatalf("expected exactly one rescan before cancellation, got %d", app.callCount())
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	ext := New(fakeLister{}, fakeDiscoverer{})
	app := &recordingApp{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := ext.Run(ctx, app, nil, nil); err != nil {
		t.Fatalf("expected nil error on cancellation, got %v", err)
	}
}

func TestNameMatchesRegisteredConstant(t *testing.T) {
	ext := New(fakeLister{}, fakeDiscoverer{})
	if ext.Name() != Name {
		t.Fatalf("expected Name() to equal the Name constant, got %q", ext.Name())
	}
}
