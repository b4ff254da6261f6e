package hub

import (
	"context"

	"github.com/flockwave/flockd/internal/client"
	"github.com/flockwave/flockd/internal/fwmsg"
)

// Result is what a HandlerFunc reports back to the dispatcher.
type Result struct {
	// Handled marks the message as dealt with, suppressing the
	// fall-through ACK-NAK auto-reply.
	Handled bool
	// Reply is sent back to sender if non-nil. Leave nil for
	// Handled-but-no-reply-needed (e.g. a fire-and-forget command).
	Reply *fwmsg.Envelope
}

// HandlerFunc processes one incoming message of a registered type.
type HandlerFunc func(ctx context.Context, msg *fwmsg.Envelope, sender *client.Client, hub *Hub) (Result, error)

type handlerEntry struct {
	msgType string
	fn      HandlerFunc
}

// RegisterHandler registers fn for exact-match messages of msgType.
// Multiple handlers for the same type run in registration order.
func (h *Hub) RegisterHandler(msgType string, fn HandlerFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers = append(h.handlers, handlerEntry{msgType: msgType, fn: fn})
}

// RegisterWildcardHandler registers fn to run for every message type,
// after all type-specific handlers. Go's type system makes a
// dedicated registration method clearer than spec.md's "type = *"
// sentinel string, so there is no magic msgType value here.
func (h *Hub) RegisterWildcardHandler(fn HandlerFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.wildcards = append(h.wildcards, fn)
}

// dispatch runs every matching handler for msg in order: type-specific
// handlers first, then wildcards. A handler error is logged and
// treated as Result{Handled:false}. If nothing handled the message and
// it carried an ID, the caller auto-replies ACK-NAK.
func (h *Hub) dispatch(ctx context.Context, msg *fwmsg.Envelope, sender *client.Client) {
	h.mu.RLock()
	var matched []HandlerFunc
	for _, e := range h.handlers {
		if e.msgType == msg.Body.Type() {
			matched = append(matched, e.fn)
		}
	}
	matched = append(matched, h.wildcards...)
	h.mu.RUnlock()

	handled := false
	for _, fn := range matched {
		res, err := fn(ctx, msg, sender, h)
		if err != nil {
			h.logger.Error("hub handler failed", "type", msg.Body.Type(), "error", err)
			continue
		}
		if res.Handled {
			handled = true
		}
		if res.Reply != nil && sender != nil {
			h.SendMessage(ctx, sender, res.Reply)
		}
	}

	if !handled && msg.ID != "" && sender != nil {
		h.SendMessage(ctx, sender, h.builder.CreateResponse(msg, Acknowledge(false, "No handler managed to parse this message in the server")))
	}
}
