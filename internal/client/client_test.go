package client

import (
	"context"
	"encoding/json"
	"testing"
)

type fakeChannel struct {
	typeID string
	sent   []json.RawMessage
	closed bool
}

func (f *fakeChannel) Send(ctx context.Context, raw json.RawMessage) error {
	f.sent = append(f.sent, raw)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func (f *fakeChannel) TypeID() string { return f.typeID }

func TestClientSendDelegatesToChannel(t *testing.T) {
	ch := &fakeChannel{typeID: "tcp"}
	c := New("client-1", ch)

	if c.ID() != "client-1" {
		t.Fatalf("ID() = %q, want client-1", c.ID())
	}

	msg := json.RawMessage(`{"type":"PING"}`)
	if err := c.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(ch.sent) != 1 || string(ch.sent[0]) != string(msg) {
		t.Fatalf("channel did not receive the message: %v", ch.sent)
	}
}

func TestClientCloseDelegatesToChannel(t *testing.T) {
	ch := &fakeChannel{typeID: "websocket"}
	c := New("client-2", ch)

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !ch.closed {
		t.Fatal("Close did not close the underlying channel")
	}
}

func TestClientUserRoundTrip(t *testing.T) {
	c := New("client-3", &fakeChannel{})
	if c.User() != "" {
		t.Fatalf("User() = %q, want empty before authentication", c.User())
	}
	c.SetUser("operator")
	if c.User() != "operator" {
		t.Fatalf("User() = %q, want operator", c.User())
	}
}
