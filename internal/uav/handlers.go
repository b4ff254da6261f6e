package uav

import (
	"context"

	"github.com/flockwave/flockd/internal/client"
	"github.com/flockwave/flockd/internal/fwmsg"
	"github.com/flockwave/flockd/internal/hub"
)

// ObjectSource lets RegisterHandlers look up tracked objects without
// this package depending on internal/registry (which already depends
// on internal/uav for ObjectRegistry's entry type) — the same
// avoid-the-import-cycle pattern internal/hub/broadcast.go uses for
// clientSource/channelTypeSource.
type ObjectSource interface {
	IDs() []string
	FindByID(id string) (*Object, error)
}

// RegisterHandlers wires UAV-INF and DEV-INF (spec.md §6) against h,
// answering per spec.md §6's partial-failure convention: ids present
// in objects succeed with their last known status, ids absent fail
// with "No such UAV" (Testable Scenario B). DEV-INF answers with the
// same status snapshot under the device-tree key: the full
// hierarchical channel schema DEV-INF can describe is the domain of
// an external UAV driver extension (spec.md §3), so this kernel-level
// handler only guarantees the envelope and partial-failure shape.
func RegisterHandlers(bus *hub.Hub, objects ObjectSource) {
	bus.RegisterHandler("UAV-INF", func(ctx context.Context, msg *fwmsg.Envelope, sender *client.Client, h *hub.Hub) (hub.Result, error) {
		return infHandler(msg, objects, "UAV-INF", h), nil
	})
	bus.RegisterHandler("DEV-INF", func(ctx context.Context, msg *fwmsg.Envelope, sender *client.Client, h *hub.Hub) (hub.Result, error) {
		return infHandler(msg, objects, "DEV-INF", h), nil
	})
}

func infHandler(msg *fwmsg.Envelope, objects ObjectSource, msgType string, h *hub.Hub) hub.Result {
	ids := stringsFromBody(msg.Body, "ids")
	result := fwmsg.NewPartialResult()
	for _, id := range ids {
		obj, err := objects.FindByID(id)
		if err != nil {
			result.Fail(id, "No such UAV")
			continue
		}
		result.Succeed(id, obj.Status())
	}
	reply := h.Builder().CreateResponse(msg, result.Body(msgType))
	return hub.Result{Handled: true, Reply: reply}
}

// stringsFromBody extracts a string-slice field from a decoded JSON
// body, where the field arrives as []any after encoding/json
// unmarshalling into Body (map[string]any).
func stringsFromBody(body fwmsg.Body, key string) []string {
	raw, ok := body[key]
	if !ok {
		return nil
	}
	arr, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
