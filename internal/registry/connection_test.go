package registry

import (
	"context"
	"testing"

	"github.com/flockwave/flockd/internal/conn"
)

type fakeConnEntry struct{ conn.BaseConnection }

func newFakeConnEntry() *fakeConnEntry {
	return &fakeConnEntry{BaseConnection: conn.NewBase(nil)}
}

func (f *fakeConnEntry) Open(ctx context.Context) error {
	f.SetState(conn.Connecting)
	f.SetState(conn.Connected)
	return nil
}

func (f *fakeConnEntry) Close(ctx context.Context) error {
	f.SetState(conn.Disconnecting)
	f.SetState(conn.Disconnected)
	return nil
}

func TestConnectionRegistryRedispatchesStateChanges(t *testing.T) {
	r := NewConnectionRegistry()
	c := newFakeConnEntry()

	var changes []ConnectionStateChange
	r.ConnectionStateChanged.Connect(func(sender any, sc ConnectionStateChange) {
		changes = append(changes, sc)
	})

	_, err := r.Add(ConnectionEntry{ConnID: "radio-1", Conn: c, Purpose: PurposeUAVRadioLink})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := c.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := c.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if len(changes) != 4 {
		t.Fatalf("got %d state changes, want 4: %+v", len(changes), changes)
	}
	for _, sc := range changes {
		if sc.ConnectionID != "radio-1" {
			t.Fatalf("ConnectionID = %q, want radio-1", sc.ConnectionID)
		}
	}
}

func TestConnectionRegistryStopsRedispatchingAfterRemove(t *testing.T) {
	r := NewConnectionRegistry()
	c := newFakeConnEntry()

	r.Add(ConnectionEntry{ConnID: "radio-1", Conn: c})

	var count int
	r.ConnectionStateChanged.Connect(func(sender any, _ ConnectionStateChange) { count++ })

	if err := r.Remove("radio-1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	if err := c.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}

	if count != 0 {
		t.Fatalf("got %d state changes after removal, want 0", count)
	}
}

func TestPurposeString(t *testing.T) {
	cases := map[Purpose]string{
		PurposeUAVRadioLink: "uavRadioLink",
		PurposeDGPS:         "dgps",
		PurposeDebug:        "debug",
		PurposeOther:        "other",
	}
	for p, want := range cases {
		if got := p.String(); got != want {
			t.Fatalf("Purpose(%d).String() = %q, want %q", p, got, want)
		}
	}
}
