package extmgr

import (
	"context"
	"testing"
)

type fakeApp struct{ name string }

type fakeExt struct {
	name string
	deps []string
}

func (f *fakeExt) Name() string           { return f.name }
func (f *fakeExt) Dependencies() []string { return f.deps }

func newManager() (*Manager[*fakeApp], *fakeApp) {
	app := &fakeApp{name: "test"}
	m := NewManager[*fakeApp](app, nil)
	m.Start(context.Background())
	return m, app
}

// Scenario from spec.md Testable Property 8: A -> B, A -> C, B -> D, C -> D.
func TestLoadOrderDependencyFirst(t *testing.T) {
	m, _ := newManager()

	for _, e := range []*fakeExt{
		{name: "a", deps: []string{"b", "c"}},
		{name: "b", deps: []string{"d"}},
		{name: "c", deps: []string{"d"}},
		{name: "d"},
	} {
		if err := m.Register(e, nil); err != nil {
			t.Fatalf("register %s: %v", e.name, err)
		}
	}

	if _, err := m.Load("a"); err != nil {
		t.Fatalf("load a: %v", err)
	}

	order := m.LoadOrder()
	if len(order) != 4 {
		t.Fatalf("expected 4 loaded extensions, got %v", order)
	}
	// d must precede both b and c; b and c must precede a.
	pos := make(map[string]int, len(order))
	for i, n := range order {
		pos[n] = i
	}
	if pos["d"] > pos["b"] || pos["d"] > pos["c"] {
		t.Fatalf("d must load before b and c: %v", order)
	}
	if pos["b"] > pos["a"] || pos["c"] > pos["a"] {
		t.Fatalf("b and c must load before a: %v", order)
	}
	if order[len(order)-1] != "a" {
		t.Fatalf("a must load last: %v", order)
	}
}

func TestUnloadReversesExactLoadOrder(t *testing.T) {
	m, _ := newManager()
	for _, e := range []*fakeExt{
		{name: "a", deps: []string{"b"}},
		{name: "b", deps: []string{"c"}},
		{name: "c"},
	} {
		m.Register(e, nil)
	}
	if _, err := m.Load("a"); err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := m.Unload("c"); err == nil {
		t.Fatalf("expected unloading a dependency-of-a-loaded-extension to fail")
	}

	if err := m.Unload("a"); err != nil {
		t.Fatalf("unload a: %v", err)
	}
	if m.IsLoaded("a") {
		t.Fatalf("a should be unloaded")
	}
	if err := m.Unload("b"); err != nil {
		t.Fatalf("unload b: %v", err)
	}
	if err := m.Unload("c"); err != nil {
		t.Fatalf("unload c: %v", err)
	}
}

// Testable Property 9: cycle A -> B -> A must refuse, with neither loaded.
func TestCycleRefused(t *testing.T) {
	m, _ := newManager()
	m.Register(&fakeExt{name: "a", deps: []string{"b"}}, nil)
	m.Register(&fakeExt{name: "b", deps: []string{"a"}}, nil)

	var loadedSignals int
	m.Loaded.Connect(func(any, *Record[*fakeApp]) { loadedSignals++ })

	_, err := m.Load("a")
	if err == nil {
		t.Fatalf("expected cycle error")
	}
	if m.IsLoaded("a") || m.IsLoaded("b") {
		t.Fatalf("neither a nor b should be loaded after a cycle refusal")
	}
	if loadedSignals != 0 {
		t.Fatalf("no Loaded signal should fire on a cycle refusal, got %d", loadedSignals)
	}
}

func TestLoadIsIdempotent(t *testing.T) {
	m, _ := newManager()
	e := &fakeExt{name: "solo"}
	m.Register(e, nil)

	r1, err := m.Load("solo")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	r2, err := m.Load("solo")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if r1 != r2 {
		t.Fatalf("loading an already-loaded extension should return the existing record")
	}
}

func TestReservedNameRejected(t *testing.T) {
	m, _ := newManager()
	if err := m.Register(&fakeExt{name: "manager"}, nil); err == nil {
		t.Fatalf("expected reserved-name rejection")
	}
}
