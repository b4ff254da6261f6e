package uav

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/flockwave/flockd/internal/channel"
	"github.com/flockwave/flockd/internal/client"
	"github.com/flockwave/flockd/internal/hub"
)

// fakeObjects is a minimal ObjectSource backed by a plain map, so
// notifier tests don't need internal/registry (which imports this
// package, and would create an import cycle from an in-package test).
type fakeObjects struct {
	mu   sync.Mutex
	objs map[string]*Object
}

func newFakeObjects(objs ...*Object) *fakeObjects {
	f := &fakeObjects{objs: make(map[string]*Object)}
	for _, o := range objs {
		f.objs[o.ID()] = o
	}
	return f
}

func (f *fakeObjects) IDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.objs))
	for id := range f.objs {
		ids = append(ids, id)
	}
	return ids
}

func (f *fakeObjects) FindByID(id string) (*Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.objs[id]
	if !ok {
		return nil, fmt.Errorf("no such object: %s", id)
	}
	return o, nil
}

func TestNotifierStatusChangedDoesNotBlockWithoutClients(t *testing.T) {
	h := hub.New(nil, nil)
	broadcaster := hub.NewBroadcaster(h, noClients{}, noChannelTypes{})
	obj := New("uav-1", KindUAV)
	objs := newFakeObjects(obj)

	n := NewNotifier(broadcaster, h.Builder(), objs, 50*time.Millisecond)

	// With zero connected clients the broadcast is a safe no-op; this
	// test only verifies that back-to-back StatusChanged calls, including
	// one for an id the object source does not know, neither block nor
	// panic. How often the limiter underneath fires is covered by
	// internal/ratelimit's tests.
	n.StatusChanged("uav-1")
	n.StatusChanged("uav-1")
	n.StatusChanged("uav-2")

	time.Sleep(100 * time.Millisecond)
}

type noClients struct{}

func (noClients) IDs() []string { return nil }
func (noClients) FindByID(id string) (*client.Client, error) {
	return nil, fmt.Errorf("no clients")
}

type noChannelTypes struct{}

func (noChannelTypes) IDs() []string { return nil }
func (noChannelTypes) FindByID(id string) (channel.TypeDescriptor, error) {
	return channel.TypeDescriptor{}, fmt.Errorf("no channel types")
}
