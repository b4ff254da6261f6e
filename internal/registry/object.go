package registry

import (
	"github.com/flockwave/flockd/internal/uav"
)

// ErrIDConflict is returned by ObjectRegistry.Add when a different
// *uav.Object already claims the same id. Re-adding the exact same
// pointer is idempotent, matching spec.md §4.2's object-registration
// rule: objects are expected to register themselves again on
// reconnect, but two distinct objects can never share an id.
var ErrIDConflict = ErrDuplicateID

// ObjectRegistry indexes every tracked uav.Object (UAVs, beacons,
// docks, LPS anchors) by id.
type ObjectRegistry struct {
	*Registry[*uav.Object]
}

// NewObjectRegistry constructs an empty ObjectRegistry.
func NewObjectRegistry() *ObjectRegistry {
	return &ObjectRegistry{Registry: New[*uav.Object]()}
}

// Add registers o, rejecting with ErrIDConflict if a different object
// already claims o.ID(). Re-adding the same pointer is a no-op.
func (r *ObjectRegistry) Add(o *uav.Object) (Disposer, error) {
	if existing, err := r.FindByID(o.ID()); err == nil {
		if existing == o {
			return func() { r.Remove(o.ID()) }, nil
		}
		return nil, ErrIDConflict
	}
	return r.Registry.Add(o)
}

// View returns the subset of registered objects whose Type() matches
// kind ("uav", "beacon", "dock", "lps"), a read-only filtered
// projection per spec.md §4.2.
func (r *ObjectRegistry) View(kind string) []*uav.Object {
	var out []*uav.Object
	for _, id := range r.IDs() {
		o, err := r.FindByID(id)
		if err != nil {
			continue
		}
		if o.Type() == kind {
			out = append(out, o)
		}
	}
	return out
}

// UAVView returns every registered UAV.
func (r *ObjectRegistry) UAVView() []*uav.Object { return r.View(uav.KindUAV.String()) }

// BeaconView returns every registered beacon.
func (r *ObjectRegistry) BeaconView() []*uav.Object { return r.View(uav.KindBeacon.String()) }

// DockView returns every registered dock.
func (r *ObjectRegistry) DockView() []*uav.Object { return r.View(uav.KindDock.String()) }

// LPSView returns every registered LPS anchor.
func (r *ObjectRegistry) LPSView() []*uav.Object { return r.View(uav.KindLPS.String()) }
