package registry

import (
	"errors"
	"testing"
)

type testClient struct{ id string }

func (c testClient) ID() string { return c.id }

func TestClientRegistryRejectsDuplicateID(t *testing.T) {
	r := NewClientRegistry[testClient]()

	if _, err := r.Add(testClient{id: "c1"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := r.Add(testClient{id: "c1"}); !errors.Is(err, ErrDuplicateClient) {
		t.Fatalf("Add duplicate = %v, want ErrDuplicateClient", err)
	}
	if r.NumEntries() != 1 {
		t.Fatalf("NumEntries() = %d, want 1", r.NumEntries())
	}
}

func TestClientRegistryCountChangedFiresOnAddAndRemove(t *testing.T) {
	r := NewClientRegistry[testClient]()

	var counts []int
	r.CountChanged.Connect(func(sender any, n int) { counts = append(counts, n) })

	if _, err := r.Add(testClient{id: "c1"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := r.Add(testClient{id: "c2"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := r.Remove("c1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	want := []int{1, 2, 1}
	if len(counts) != len(want) {
		t.Fatalf("counts = %v, want %v", counts, want)
	}
	for i := range want {
		if counts[i] != want[i] {
			t.Fatalf("counts = %v, want %v", counts, want)
		}
	}
}

func TestClientRegistryDuplicateAddDoesNotFireCountChanged(t *testing.T) {
	r := NewClientRegistry[testClient]()
	r.Add(testClient{id: "c1"})

	fired := false
	r.CountChanged.Connect(func(sender any, n int) { fired = true })

	if _, err := r.Add(testClient{id: "c1"}); !errors.Is(err, ErrDuplicateClient) {
		t.Fatalf("Add duplicate = %v, want ErrDuplicateClient", err)
	}
	if fired {
		t.Fatal("CountChanged fired on a rejected duplicate add")
	}
}
