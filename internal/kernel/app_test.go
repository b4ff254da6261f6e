package kernel

import (
	"testing"

	"github.com/flockwave/flockd/internal/uav"
)

func TestUpdateObjectStatusUnknownID(t *testing.T) {
	app := New(nil, nil)
	if err := app.UpdateObjectStatus("missing", uav.Status{}); err == nil {
		t.Fatalf("expected error for an unregistered object id")
	}
}

func TestUpdateObjectStatusAppliesAndNotifies(t *testing.T) {
	app := New(nil, nil)
	obj := uav.New("uav-1", uav.KindUAV)
	if _, err := app.Objects.Add(obj); err != nil {
		t.Fatalf("Objects.Add: %v", err)
	}

	if err := app.UpdateObjectStatus("uav-1", uav.Status{"battery": 0.75}); err != nil {
		t.Fatalf("UpdateObjectStatus: %v", err)
	}

	got, err := app.Objects.FindByID("uav-1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Status()["battery"] != 0.75 {
		t.Fatalf("expected status to be applied, got %v", got.Status())
	}
}
