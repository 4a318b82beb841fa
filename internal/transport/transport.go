// Package transport provides the message transport the agent uses for
// control-topic triggers, acknowledgments, and the raw frame stream. The
// Transport interface is the seam for tests; the MQTT implementation is
// the deployed one.
package transport

// MessageHandler receives messages for a subscribed topic. Handlers run on
// the transport's dispatch goroutine and must not block: anything slow is
// offloaded to an independently scheduled task by the subscriber.
type MessageHandler func(topic string, payload []byte)

// Transport is the control/data message boundary with the outside world.
type Transport interface {
	// Subscribe registers a handler for a topic. A topic has at most one
	// handler; subscribing twice replaces it.
	Subscribe(topic string, h MessageHandler) error

	// Publish sends a message on a topic, best effort.
	Publish(topic string, payload []byte) error

	// Close releases the underlying connection.
	Close()
}
