package hub

import (
	"testing"

	"github.com/flockwave/flockd/internal/fwmsg"
)

func TestCreateMessageStampsVersionAndID(t *testing.T) {
	b := &Builder{NewID: func() string { return "fixed-id" }}
	e := b.CreateMessage(fwmsg.Body{"type": "CLK-LIST"})

	if e.Version != fwmsg.ProtocolVersion {
		t.Fatalf("Version = %q, want %q", e.Version, fwmsg.ProtocolVersion)
	}
	if e.ID != "fixed-id" {
		t.Fatalf("ID = %q, want fixed-id", e.ID)
	}
	if e.CorrelationID != "" {
		t.Fatalf("CorrelationID = %q, want empty", e.CorrelationID)
	}
}

func TestCreateResponseCopiesCorrelationIDAndDefaultsType(t *testing.T) {
	b := &Builder{NewID: func() string { return "reply-id" }}
	req := b.CreateMessage(fwmsg.Body{"type": "CONN-LIST"})

	resp := b.CreateResponse(req, fwmsg.Body{"items": []string{}})
	if resp.CorrelationID != req.ID {
		t.Fatalf("CorrelationID = %q, want %q", resp.CorrelationID, req.ID)
	}
	if resp.Body.Type() != "CONN-LIST" {
		t.Fatalf("Body type = %q, want CONN-LIST (defaulted from request)", resp.Body.Type())
	}
}

func TestCreateResponseHonoursExplicitType(t *testing.T) {
	b := &Builder{NewID: func() string { return "reply-id" }}
	req := b.CreateMessage(fwmsg.Body{"type": "CONN-LIST"})

	resp := b.CreateResponse(req, fwmsg.Body{"type": "ACK-NAK", "reason": "bad"})
	if resp.Body.Type() != "ACK-NAK" {
		t.Fatalf("Body type = %q, want ACK-NAK (explicit, not defaulted)", resp.Body.Type())
	}
}
