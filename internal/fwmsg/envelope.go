// Package fwmsg defines the Flockwave wire envelope: the JSON message
// format spoken at the system boundary by every transport. It keeps
// message bodies as generic maps rather than one generated struct per
// message type — the JSON Schema that defines valid bodies is owned by
// an external specification package (see Validator below), so the
// kernel validates only at the boundary and otherwise treats bodies as
// data, per spec.md's REDESIGN guidance on schema-driven classes.
package fwmsg

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ProtocolVersion is the "$fw.version" value this kernel emits.
const ProtocolVersion = "1.0"

// Body is a Flockwave message body. "type" is mandatory and must be an
// ALL-CAPS dash-separated tag, e.g. "UAV-INF".
type Body map[string]any

// Type returns Body["type"] as a string, or "" if absent or not a string.
func (b Body) Type() string {
	t, _ := b["type"].(string)
	return t
}

// Envelope is one Flockwave message: a request, response, or notification.
type Envelope struct {
	Version       string `json:"$fw.version"`
	ID            string `json:"id"`
	CorrelationID string `json:"correlationId,omitempty"`
	Body          Body   `json:"body"`
}

// IsResponse reports whether e carries a correlationId, i.e. answers
// some earlier message rather than announcing something unprompted.
func (e *Envelope) IsResponse() bool {
	return e != nil && e.CorrelationID != ""
}

// IsNotification reports whether e has no correlationId.
func (e *Envelope) IsNotification() bool {
	return e != nil && e.CorrelationID == ""
}

// HasError reports whether the body carries an "error" field — the
// marker of a (misbehaving) client sending back what looks like a
// response rather than a request.
func (e *Envelope) HasError() bool {
	if e == nil {
		return false
	}
	_, ok := e.Body["error"]
	return ok
}

// ErrMissingType is returned by decoding/validation when body.type is
// absent or empty.
var ErrMissingType = errors.New("fwmsg: body is missing a \"type\" field")

// ParseEnvelope decodes raw JSON bytes into an Envelope. It does not
// validate the body against a schema — see Validator.
func ParseEnvelope(raw []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("fwmsg: decode envelope: %w", err)
	}
	return &e, nil
}

// Validator checks a message body against whatever schema the
// deployment has configured. Schema loading and the schema's actual
// contents are an external collaborator's responsibility (spec.md
// §3); the kernel only calls Validate at the boundary.
type Validator interface {
	Validate(body Body) error
}

// NopValidator is the default Validator used when no schema-backed
// one is supplied. It only enforces the one invariant the kernel
// itself depends on: every body must carry a non-empty "type".
type NopValidator struct{}

// Validate implements Validator.
func (NopValidator) Validate(body Body) error {
	if body.Type() == "" {
		return ErrMissingType
	}
	return nil
}
