package hub

import (
	"context"
	"encoding/json"

	"github.com/flockwave/flockd/internal/client"
	"github.com/flockwave/flockd/internal/fwmsg"
)

// HandleIncomingMessage parses and validates raw, then dispatches it.
// On schema failure it replies ACK-NAK if the envelope carried an id,
// or drops silently otherwise. A body carrying "error" is treated as a
// misbehaving client sending back something that looks like a
// response, and is dropped with a warning (spec.md §4.5).
func (h *Hub) HandleIncomingMessage(ctx context.Context, raw json.RawMessage, sender *client.Client) {
	msg, err := fwmsg.ParseEnvelope(raw)
	if err != nil {
		h.logger.Warn("hub: malformed incoming message", "client", clientID(sender), "error", err)
		return
	}

	if err := h.validator.Validate(msg.Body); err != nil {
		h.logger.Debug("hub: incoming message failed validation", "client", clientID(sender), "error", err)
		if msg.ID != "" && sender != nil {
			h.SendMessage(ctx, sender, h.builder.CreateResponse(msg, Acknowledge(false, err.Error())))
		}
		return
	}

	if msg.HasError() {
		h.logger.Warn("hub: dropping inbound message carrying an error field", "client", clientID(sender), "type", msg.Body.Type())
		return
	}

	h.dispatch(ctx, msg, sender)
}

func clientID(c *client.Client) string {
	if c == nil {
		return ""
	}
	return c.ID()
}
