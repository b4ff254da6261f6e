package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/flockwave/flockd/internal/client"
	"github.com/flockwave/flockd/internal/fwmsg"
)

// outboundQueueCapacity bounds the hub's dispatcher queue (spec.md §4.5).
const outboundQueueCapacity = 4096

type outboundMessage struct {
	ctx context.Context
	to  *client.Client
	raw json.RawMessage
}

// Hub owns message construction, handler dispatch, and the outbound
// delivery queue. A single dispatcher goroutine reads outbound and
// spawns one child task per message under an errgroup nursery, so a
// slow per-client send cannot block the next (spec.md §5).
type Hub struct {
	mu        sync.RWMutex
	handlers  []handlerEntry
	wildcards []HandlerFunc

	validator fwmsg.Validator
	builder   *Builder
	logger    *slog.Logger

	outbound chan outboundMessage
	nursery  *errgroup.Group
	cancel   context.CancelFunc
	done     chan struct{}
}

// New constructs a Hub. validator defaults to fwmsg.NopValidator if nil.
func New(validator fwmsg.Validator, logger *slog.Logger) *Hub {
	if validator == nil {
		validator = fwmsg.NopValidator{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		validator: validator,
		builder:   NewBuilder(),
		logger:    logger,
		outbound:  make(chan outboundMessage, outboundQueueCapacity),
	}
}

// Start launches the dispatcher goroutine. It is safe to call once.
func (h *Hub) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	h.done = make(chan struct{})

	g, gctx := errgroup.WithContext(ctx)
	h.nursery = g

	go func() {
		defer close(h.done)
		for {
			select {
			case <-ctx.Done():
				return
			case m := <-h.outbound:
				m := m
				g.Go(func() error {
					if err := m.to.Send(m.ctx, m.raw); err != nil {
						h.logger.Warn("hub: delivery failed", "client", m.to.ID(), "error", err)
					}
					return nil
				})
			case <-gctx.Done():
				return
			}
		}
	}()
}

// Stop cancels the dispatcher and waits for in-flight deliveries to
// finish.
func (h *Hub) Stop() {
	if h.cancel == nil {
		return
	}
	h.cancel()
	<-h.done
	if h.nursery != nil {
		h.nursery.Wait()
	}
}

// SendMessage encodes msg and blocks until there is queue room for to,
// or ctx is cancelled, matching spec.md §4.5's back-pressure rule.
func (h *Hub) SendMessage(ctx context.Context, to *client.Client, msg *fwmsg.Envelope) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	select {
	case h.outbound <- outboundMessage{ctx: ctx, to: to, raw: raw}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// EnqueueMessage is the non-blocking counterpart to SendMessage: it
// drops and logs if the queue is full rather than blocking the
// caller. UAV-INF/DEV-INF telemetry is logged at Debug on drop,
// everything else at Info, per spec.md §4.5.
func (h *Hub) EnqueueMessage(ctx context.Context, to *client.Client, msg *fwmsg.Envelope) {
	raw, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("hub: encode outbound message", "error", err)
		return
	}
	select {
	case h.outbound <- outboundMessage{ctx: ctx, to: to, raw: raw}:
	default:
		level := slog.LevelInfo
		t := msg.Body.Type()
		if t == "UAV-INF" || t == "DEV-INF" {
			level = slog.LevelDebug
		}
		h.logger.Log(ctx, level, "hub: outbound queue full, dropping message", "type", t, "client", to.ID())
	}
}

// Builder exposes the envelope builder for callers constructing
// outgoing messages outside a handler.
func (h *Hub) Builder() *Builder { return h.builder }
