package conn

import (
	"context"
	"log/slog"
	"net"

	"github.com/eclipse/paho.golang/paho"
)

// MQTTConnection adapts an MQTT broker link to the Connection
// interface. Several real drone fleets bridge their radio mesh through
// an MQTT broker rather than exposing raw sockets; this gives that
// family of deployments the same four-state discipline, auto-reconnect
// via Supervisor, and swallow-exceptions behaviour as every other link.
type MQTTConnection struct {
	BaseConnection

	broker    string
	clientID  string
	dialer    func(ctx context.Context, broker string) (net.Conn, error)
	onMessage MQTTMessageHandler

	client *paho.Client
}

// MQTTMessageHandler is invoked for every message delivered on a
// subscribed topic.
type MQTTMessageHandler func(topic string, payload []byte)

// NewMQTTConnection builds an MQTTConnection. dialer opens the raw
// TCP/TLS socket to broker; a nil dialer uses a plain net.Dial("tcp", ...).
// onMessage is kept as a field rather than only a constructor-time
// closure so Open can rebuild the paho client (and its
// OnPublishReceived hook) on every reconnect attempt.
func NewMQTTConnection(broker, clientID string, dialer func(ctx context.Context, broker string) (net.Conn, error), onMessage MQTTMessageHandler, logger *slog.Logger) *MQTTConnection {
	if dialer == nil {
		dialer = func(ctx context.Context, broker string) (net.Conn, error) {
			d := &net.Dialer{}
			return d.DialContext(ctx, "tcp", broker)
		}
	}
	return &MQTTConnection{
		BaseConnection: NewBase(logger),
		broker:         broker,
		clientID:       clientID,
		dialer:         dialer,
		onMessage:      onMessage,
	}
}

// Open dials the broker, performs the MQTT CONNECT handshake, and
// transitions to Connected on success.
func (m *MQTTConnection) Open(ctx context.Context) error {
	if m.State() != Disconnected {
		return nil
	}
	m.SetState(Connecting)

	conn, err := m.dialer(ctx, m.broker)
	if err != nil {
		m.SetState(Disconnected)
		return err
	}

	client := paho.NewClient(paho.ClientConfig{
		Conn: conn,
		OnPublishReceived: []func(paho.PublishReceived) (bool, error){
			func(pr paho.PublishReceived) (bool, error) {
				if m.onMessage != nil {
					m.onMessage(pr.Packet.Topic, pr.Packet.Payload)
				}
				return true, nil
			},
		},
		OnClientError: func(err error) {
			_ = m.HandleError(context.Background(), m.Close, err)
		},
	})

	if _, err := client.Connect(ctx, &paho.Connect{
		ClientID:   m.clientID,
		KeepAlive:  30,
		CleanStart: true,
	}); err != nil {
		m.SetState(Disconnected)
		return err
	}

	m.client = client
	m.SetState(Connected)
	return nil
}

// Close disconnects the MQTT client.
func (m *MQTTConnection) Close(ctx context.Context) error {
	if m.State() == Disconnected {
		return nil
	}
	m.SetState(Disconnecting)
	var err error
	if m.client != nil {
		err = m.client.Disconnect(&paho.Disconnect{ReasonCode: 0})
		m.client = nil
	}
	m.SetState(Disconnected)
	return err
}

// Publish sends payload to topic at the given QoS.
func (m *MQTTConnection) Publish(ctx context.Context, topic string, qos byte, payload []byte) error {
	if m.client == nil {
		return net.ErrClosed
	}
	_, err := m.client.Publish(ctx, &paho.Publish{
		Topic:   topic,
		QoS:     qos,
		Payload: payload,
	})
	if err != nil {
		return m.HandleError(ctx, m.Close, err)
	}
	return nil
}

// Subscribe subscribes to topic at the given QoS.
func (m *MQTTConnection) Subscribe(ctx context.Context, topic string, qos byte) error {
	if m.client == nil {
		return net.ErrClosed
	}
	_, err := m.client.Subscribe(ctx, &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{
			{Topic: topic, QoS: qos},
		},
	})
	if err != nil {
		return m.HandleError(ctx, m.Close, err)
	}
	return nil
}
