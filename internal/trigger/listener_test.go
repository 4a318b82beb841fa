package trigger

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/mementolabs/capture-agent/internal/transport"
)

type published struct {
	topic   string
	payload []byte
}

// fakeTransport captures subscriptions and publishes for assertions.
type fakeTransport struct {
	handlers  map[string]transport.MessageHandler
	published chan published
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		handlers:  make(map[string]transport.MessageHandler),
		published: make(chan published, 8),
	}
}

func (f *fakeTransport) Subscribe(topic string, h transport.MessageHandler) error {
	f.handlers[topic] = h
	return nil
}

func (f *fakeTransport) Publish(topic string, payload []byte) error {
	f.published <- published{topic: topic, payload: payload}
	return nil
}

func (f *fakeTransport) Close() {}

// deliver injects a message as if it arrived from the broker.
func (f *fakeTransport) deliver(t *testing.T, topic string, payload []byte) {
	t.Helper()
	h, ok := f.handlers[topic]
	if !ok {
		t.Fatalf("no handler subscribed for %s", topic)
	}
	h(topic, payload)
}

func (f *fakeTransport) waitForPublish(t *testing.T) published {
	t.Helper()
	select {
	case p := <-f.published:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for publish")
		return published{}
	}
}

type fakeLauncher struct {
	launches int
}

func (f *fakeLauncher) Launch() string {
	f.launches++
	return "session-abc"
}

func TestListener_ValidTriggerLaunchesAndAcks(t *testing.T) {
	tr := newFakeTransport()
	launcher := &fakeLauncher{}
	l := NewListener(tr, launcher, "button", "button/ack")
	if err := l.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	tr.deliver(t, "button", []byte(`{"device":"desk-button","pressed":true}`))

	if launcher.launches != 1 {
		t.Errorf("expected 1 session launched, got %d", launcher.launches)
	}

	p := tr.waitForPublish(t)
	if p.topic != "button/ack" {
		t.Errorf("expected ack on button/ack, got %s", p.topic)
	}
	var ack Ack
	if err := json.Unmarshal(p.payload, &ack); err != nil {
		t.Fatalf("ack payload not JSON: %v", err)
	}
	if ack.SessionID != "session-abc" {
		t.Errorf("expected session id in ack, got %q", ack.SessionID)
	}
	if _, err := time.Parse(time.RFC3339, ack.ReceivedAt); err != nil {
		t.Errorf("ack received_at not RFC 3339: %v", err)
	}

	stats := l.Stats()
	if stats.Received != 1 || stats.Launched != 1 || stats.Dropped != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestListener_MalformedPayloadDropped(t *testing.T) {
	tr := newFakeTransport()
	launcher := &fakeLauncher{}
	l := NewListener(tr, launcher, "button", "button/ack")
	if err := l.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	tr.deliver(t, "button", []byte(`{not json`))

	if launcher.launches != 0 {
		t.Errorf("expected no session launched, got %d", launcher.launches)
	}
	select {
	case p := <-tr.published:
		t.Errorf("unexpected publish on %s for dropped message", p.topic)
	case <-time.After(50 * time.Millisecond):
	}

	stats := l.Stats()
	if stats.Dropped != 1 {
		t.Errorf("expected 1 dropped, got %d", stats.Dropped)
	}
}

func TestListener_SubscriptionSurvivesBadMessage(t *testing.T) {
	tr := newFakeTransport()
	launcher := &fakeLauncher{}
	l := NewListener(tr, launcher, "button", "button/ack")
	if err := l.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	tr.deliver(t, "button", []byte(`garbage`))
	tr.deliver(t, "button", []byte(`{}`))

	if launcher.launches != 1 {
		t.Errorf("expected a launch after the bad message, got %d", launcher.launches)
	}
	stats := l.Stats()
	if stats.Received != 2 || stats.Dropped != 1 || stats.Launched != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestListener_EachTriggerSpawnsOwnSession(t *testing.T) {
	tr := newFakeTransport()
	launcher := &fakeLauncher{}
	l := NewListener(tr, launcher, "button", "button/ack")
	if err := l.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	for i := 0; i < 3; i++ {
		tr.deliver(t, "button", []byte(`{"pressed":true}`))
	}
	if launcher.launches != 3 {
		t.Errorf("expected 3 sessions, got %d", launcher.launches)
	}
}
