package conn

import (
	"context"
	"errors"
	"net"
	"testing"
)

// TestMQTTConnectionDialFailureStaysDisconnected exercises the one part
// of MQTTConnection that doesn't require speaking the wire protocol:
// a dialer failure must leave the connection in Disconnected rather
// than stuck in Connecting, same contract as every other Connection.
func TestMQTTConnectionDialFailureStaysDisconnected(t *testing.T) {
	boom := errors.New("no route to broker")
	m := NewMQTTConnection("broker.example:1883", "flockd-test",
		func(ctx context.Context, broker string) (net.Conn, error) { return nil, boom },
		nil, nil)

	err := m.Open(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Open() = %v, want %v", err, boom)
	}
	if m.State() != Disconnected {
		t.Fatalf("state = %v, want Disconnected", m.State())
	}
}

func TestMQTTConnectionCloseWithoutOpenIsNoop(t *testing.T) {
	m := NewMQTTConnection("broker.example:1883", "flockd-test", nil, nil, nil)
	if err := m.Close(context.Background()); err != nil {
		t.Fatalf("Close on Disconnected: %v", err)
	}
}

func TestMQTTConnectionPublishBeforeOpenErrors(t *testing.T) {
	m := NewMQTTConnection("broker.example:1883", "flockd-test", nil, nil, nil)
	if err := m.Publish(context.Background(), "flock/fleet/1", 0, []byte("x")); !errors.Is(err, net.ErrClosed) {
		t.Fatalf("Publish() = %v, want net.ErrClosed", err)
	}
}
