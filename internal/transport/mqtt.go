package transport

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

const (
	connectTimeout = 5 * time.Second
	publishTimeout = 2 * time.Second
)

// MQTTOptions configures the MQTT transport connection.
type MQTTOptions struct {
	Broker   string // host:port
	ClientID string
	Username string
	Password string
}

// MQTT implements Transport over an MQTT broker with auto-reconnect.
type MQTT struct {
	client mqtt.Client
	broker string
}

// Compile-time interface check.
var _ Transport = (*MQTT)(nil)

// DialMQTT connects to the broker and returns a ready transport. The
// client auto-reconnects; subscriptions are re-established by paho on
// reconnect because they are registered with resume semantics.
func DialMQTT(ctx context.Context, o MQTTOptions) (*MQTT, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", o.Broker))
	opts.SetClientID(o.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetResumeSubs(true)
	if o.Username != "" {
		opts.SetUsername(o.Username)
		opts.SetPassword(o.Password)
	}

	opts.OnConnect = func(mqtt.Client) {
		log.Info().Str("broker", o.Broker).Str("client_id", o.ClientID).Msg("MQTT connected")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Str("broker", o.Broker).Msg("MQTT connection lost, auto-reconnecting")
	}

	client := mqtt.NewClient(opts)

	log.Debug().Str("broker", o.Broker).Msg("Connecting to MQTT broker")
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s: timeout", o.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", o.Broker, err)
	}
	if err := ctx.Err(); err != nil {
		client.Disconnect(0)
		return nil, err
	}

	return &MQTT{client: client, broker: o.Broker}, nil
}

// Subscribe registers a handler at QoS 1. The paho callback runs handlers
// on the client's dispatch goroutines.
func (m *MQTT) Subscribe(topic string, h MessageHandler) error {
	token := m.client.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		h(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("mqtt subscribe %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt subscribe %s: %w", topic, err)
	}
	log.Debug().Str("topic", topic).Msg("MQTT subscription established")
	return nil
}

// Publish sends a message at QoS 0 (best effort, matching the ack
// contract: no delivery guarantee, no retry).
func (m *MQTT) Publish(topic string, payload []byte) error {
	token := m.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("mqtt publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker with a short grace period.
func (m *MQTT) Close() {
	if m.client.IsConnected() {
		m.client.Disconnect(250)
		log.Info().Str("broker", m.broker).Msg("MQTT disconnected")
	}
}
