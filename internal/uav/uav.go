// Package uav defines the Object domain type (UAVs, beacons, docks,
// LPS anchors) tracked by the object registry, and the UAV-INF/DEV-INF
// message bodies built from it.
package uav

import (
	"sync"
	"time"
)

// Kind distinguishes the four object flavours spec.md §3/§6 names.
type Kind int

const (
	KindUAV Kind = iota
	KindBeacon
	KindDock
	KindLPS
)

// String renders a Kind the way it appears in DEV-INF's "type" field.
func (k Kind) String() string {
	switch k {
	case KindUAV:
		return "uav"
	case KindBeacon:
		return "beacon"
	case KindDock:
		return "dock"
	case KindLPS:
		return "lps"
	default:
		return "unknown"
	}
}

// Status is the last known telemetry snapshot for an Object. Fields
// are a free-form map so new telemetry keys don't require a schema
// change here; validation of their shape is the Validator's job
// (internal/fwmsg), not the domain type's.
type Status map[string]any

// Object is one tracked UAV, beacon, dock, or LPS anchor.
type Object struct {
	mu sync.RWMutex

	objID     string
	kind      Kind
	status    Status
	updatedAt time.Time
}

// New constructs an Object of the given kind and id, with empty status.
func New(id string, kind Kind) *Object {
	return &Object{objID: id, kind: kind, status: make(Status)}
}

// ID implements registry.Entry.
func (o *Object) ID() string { return o.objID }

// Kind reports which Object flavour this is.
func (o *Object) Kind() Kind { return o.kind }

// Type reports the Kind as a string, matching ObjectRegistry's
// Type()-keyed view filtering (spec.md §4.2).
func (o *Object) Type() string { return o.kind.String() }

// Status returns a copy of the last known telemetry snapshot.
func (o *Object) Status() Status {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make(Status, len(o.status))
	for k, v := range o.status {
		out[k] = v
	}
	return out
}

// UpdateStatus replaces the telemetry snapshot and records the update
// time. kernel.App.UpdateObjectStatus calls it on receipt of fresh
// telemetry; the UAV-INF/DEV-INF handlers only read Status.
func (o *Object) UpdateStatus(s Status) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status = s
	o.updatedAt = time.Now()
}

// UpdatedAt reports when the status was last replaced.
func (o *Object) UpdatedAt() time.Time {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.updatedAt
}
