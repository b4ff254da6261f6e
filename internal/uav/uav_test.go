package uav

import "testing"

func TestObjectStatusRoundTrip(t *testing.T) {
	o := New("uav-1", KindUAV)
	if o.ID() != "uav-1" {
		t.Fatalf("ID() = %q, want uav-1", o.ID())
	}
	if o.Type() != "uav" {
		t.Fatalf("Type() = %q, want uav", o.Type())
	}
	if len(o.Status()) != 0 {
		t.Fatalf("expected empty initial status, got %v", o.Status())
	}

	before := o.UpdatedAt()
	o.UpdateStatus(Status{"battery": 0.5})
	if o.Status()["battery"] != 0.5 {
		t.Fatalf("expected battery status to round-trip, got %v", o.Status())
	}
	if !o.UpdatedAt().After(before) && o.UpdatedAt() != before {
		t.Fatalf("expected UpdatedAt to advance")
	}
}

func TestObjectStatusIsACopy(t *testing.T) {
	o := New("uav-1", KindUAV)
	o.UpdateStatus(Status{"battery": 0.9})

	snap := o.Status()
	snap["battery"] = 0.1
	if o.Status()["battery"] != 0.9 {
		t.Fatalf("mutating a returned Status snapshot must not affect the Object")
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindUAV:    "uav",
		KindBeacon: "beacon",
		KindDock:   "dock",
		KindLPS:    "lps",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}
