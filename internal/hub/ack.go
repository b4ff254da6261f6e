package hub

import "github.com/flockwave/flockd/internal/fwmsg"

// Acknowledge builds an ACK-ACK/ACK-NAK reply body. outcome selects
// which of the two types; reason is attached (mandatory for ACK-NAK
// for the reply to be useful, permitted to be empty for ACK-ACK).
func Acknowledge(outcome bool, reason string) fwmsg.Body {
	t := "ACK-NAK"
	if outcome {
		t = "ACK-ACK"
	}
	body := fwmsg.Body{"type": t}
	if reason != "" {
		body["reason"] = reason
	}
	return body
}
