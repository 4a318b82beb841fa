// Package trigger turns control-topic messages into capture sessions. The
// listener owns payload validation and acknowledgment; session work runs
// elsewhere so the transport's dispatch path never blocks.
package trigger

import (
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mementolabs/capture-agent/internal/transport"
)

// Launcher starts a capture session and returns its id without blocking.
type Launcher interface {
	Launch() (sessionID string)
}

// Message is the trigger payload published by the button firmware.
type Message struct {
	Device  string `json:"device,omitempty"`
	Action  string `json:"action,omitempty"`
	Pressed bool   `json:"pressed,omitempty"`
}

// Ack is the best-effort acknowledgment published back on the ack topic.
// Delivery is not guaranteed and failures are logged, never retried.
type Ack struct {
	SessionID  string `json:"session_id"`
	ReceivedAt string `json:"received_at"` // RFC 3339
}

// Stats is a point-in-time listener counter snapshot.
type Stats struct {
	Received uint64
	Dropped  uint64
	Launched uint64
}

// Listener subscribes to the trigger topic and spawns a session per valid
// message. Malformed payloads are dropped with a log entry; the subscription
// stays up.
type Listener struct {
	tr           transport.Transport
	launcher     Launcher
	triggerTopic string
	ackTopic     string

	received atomic.Uint64
	dropped  atomic.Uint64
	launched atomic.Uint64
}

// NewListener builds a listener; call Start to subscribe.
func NewListener(tr transport.Transport, launcher Launcher, triggerTopic, ackTopic string) *Listener {
	return &Listener{
		tr:           tr,
		launcher:     launcher,
		triggerTopic: triggerTopic,
		ackTopic:     ackTopic,
	}
}

// Start subscribes to the trigger topic. Returns an error only if the
// subscription itself cannot be established.
func (l *Listener) Start() error {
	if err := l.tr.Subscribe(l.triggerTopic, l.handle); err != nil {
		return err
	}
	log.Info().
		Str("trigger_topic", l.triggerTopic).
		Str("ack_topic", l.ackTopic).
		Msg("Trigger listener started")
	return nil
}

// handle runs on the transport dispatch goroutine: validate, launch,
// acknowledge. The launch returns immediately and the ack publish is
// offloaded, so dispatch is never held up by a slow broker round trip.
func (l *Listener) handle(topic string, payload []byte) {
	l.received.Add(1)
	receivedAt := time.Now().UTC()

	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		l.dropped.Add(1)
		log.Warn().
			Err(err).
			Str("topic", topic).
			Int("payload_bytes", len(payload)).
			Msg("Malformed trigger payload dropped")
		return
	}

	sessionID := l.launcher.Launch()
	l.launched.Add(1)
	log.Info().
		Str("topic", topic).
		Str("session_id", sessionID).
		Str("device", msg.Device).
		Msg("Trigger received, capture session launched")

	go l.publishAck(sessionID, receivedAt)
}

// publishAck sends the acknowledgment, best effort.
func (l *Listener) publishAck(sessionID string, receivedAt time.Time) {
	body, err := json.Marshal(Ack{
		SessionID:  sessionID,
		ReceivedAt: receivedAt.Format(time.RFC3339),
	})
	if err != nil {
		log.Warn().Err(err).Msg("Trigger ack marshal failed")
		return
	}
	if err := l.tr.Publish(l.ackTopic, body); err != nil {
		log.Warn().
			Err(err).
			Str("topic", l.ackTopic).
			Str("session_id", sessionID).
			Msg("Trigger ack publish failed")
	}
}

// Stats returns the listener counters.
func (l *Listener) Stats() Stats {
	return Stats{
		Received: l.received.Load(),
		Dropped:  l.dropped.Load(),
		Launched: l.launched.Load(),
	}
}
