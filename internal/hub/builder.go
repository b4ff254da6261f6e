// Package hub implements the message hub: envelope construction,
// handler dispatch, a bounded outbound queue with a dispatcher
// goroutine, broadcast-method caching, and the incoming-message
// validation path (spec.md §4.5).
package hub

import (
	"github.com/google/uuid"

	"github.com/flockwave/flockd/internal/fwmsg"
)

// IDGenerator produces message ids. The default is uuid.NewString,
// the same generator the teacher uses for MQTT instance ids.
type IDGenerator func() string

// Builder constructs outgoing envelopes with a consistent protocol
// version and id scheme.
type Builder struct {
	NewID IDGenerator
}

// NewBuilder constructs a Builder using uuid.NewString for ids.
func NewBuilder() *Builder {
	return &Builder{NewID: uuid.NewString}
}

func (b *Builder) newID() string {
	if b.NewID != nil {
		return b.NewID()
	}
	return uuid.NewString()
}

// CreateMessage builds a fresh, uncorrelated envelope (a notification
// or an outbound request) around body.
func (b *Builder) CreateMessage(body fwmsg.Body) *fwmsg.Envelope {
	return &fwmsg.Envelope{
		Version: fwmsg.ProtocolVersion,
		ID:      b.newID(),
		Body:    body,
	}
}

// CreateResponse builds an envelope answering to, copying its ID into
// CorrelationID and defaulting body["type"] to to.Body's type unless
// the caller already set one (spec.md §4.5, Testable Property 5).
func (b *Builder) CreateResponse(to *fwmsg.Envelope, body fwmsg.Body) *fwmsg.Envelope {
	if _, ok := body["type"]; !ok && to != nil {
		body = cloneWithType(body, to.Body.Type())
	}
	e := b.CreateMessage(body)
	if to != nil {
		e.CorrelationID = to.ID
	}
	return e
}

func cloneWithType(body fwmsg.Body, t string) fwmsg.Body {
	out := make(fwmsg.Body, len(body)+1)
	for k, v := range body {
		out[k] = v
	}
	if t != "" {
		out["type"] = t
	}
	return out
}
