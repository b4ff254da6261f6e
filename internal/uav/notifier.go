package uav

import (
	"context"
	"time"

	"github.com/flockwave/flockd/internal/fwmsg"
	"github.com/flockwave/flockd/internal/hub"
	"github.com/flockwave/flockd/internal/ratelimit"
)

// Notifier batches UAV-INF notifications behind the UAV-specialised
// rate limiter (spec.md §4.5): telemetry updates arriving faster than
// timeout are merged into one consolidated UAV-INF broadcast naming
// every affected id, rather than flooding clients with one broadcast
// per update. A UAV driver extension calls StatusChanged whenever it
// applies fresh telemetry to an Object; the core guarantees the
// merge/coalesce behaviour, not the telemetry itself.
type Notifier struct {
	limiter *ratelimit.Limiter[[]string]
}

// NewNotifier constructs a Notifier that broadcasts a merged UAV-INF
// notification through b for every id reported via StatusChanged,
// reading each object's current status from objects at fire time.
func NewNotifier(b *hub.Broadcaster, builder *hub.Builder, objects ObjectSource, timeout time.Duration) *Notifier {
	fire := func(ids []string) {
		result := fwmsg.NewPartialResult()
		for _, id := range ids {
			obj, err := objects.FindByID(id)
			if err != nil {
				continue
			}
			result.Succeed(id, obj.Status())
		}
		msg := builder.CreateMessage(result.Body("UAV-INF"))
		b.Broadcast(context.Background(), msg)
	}
	return &Notifier{limiter: ratelimit.UAVBatched(timeout, fire)}
}

// StatusChanged records that id's telemetry changed, triggering an
// immediate UAV-INF broadcast if the limiter has been idle, or merging
// id into the pending window's broadcast otherwise (spec.md §4.5,
// §8 Testable Property 11).
func (n *Notifier) StatusChanged(id string) {
	n.limiter.Call([]string{id})
}
