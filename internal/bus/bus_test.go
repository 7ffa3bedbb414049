package bus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("tg.", 10)
	defer unsub()

	b.Publish(Event{Kind: "tg.message", Timestamp: time.Now(), Payload: "test"})

	select {
	case evt := <-ch:
		if evt.Kind != "tg.message" {
			t.Errorf("got kind %q, want tg.message", evt.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestNamespaceFiltering(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("digest.", 10)
	defer unsub()

	b.Publish(Event{Kind: "tg.message"})
	b.Publish(Event{Kind: "digest.delivered"})

	select {
	case evt := <-ch:
		if evt.Kind != "digest.delivered" {
			t.Errorf("got kind %q, want digest.delivered", evt.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	// Ensure the tg event was not delivered.
	select {
	case evt := <-ch:
		t.Errorf("unexpected event: %v", evt)
	case <-time.After(50 * time.Millisecond):
		// Expected: no more events.
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("tg.", 10)
	unsub()

	b.Publish(Event{Kind: "tg.message"})

	select {
	case evt := <-ch:
		t.Errorf("received event after unsubscribe: %v", evt)
	case <-time.After(50 * time.Millisecond):
		// Expected.
	}
}

func TestDropOnFullBuffer(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("tg.", 1)
	defer unsub()

	// Fill buffer.
	b.Publish(Event{Kind: "tg.message"})
	// This should be dropped (non-blocking).
	b.Publish(Event{Kind: "tg.callback"})

	evt := <-ch
	if evt.Kind != "tg.message" {
		t.Errorf("got %q, want tg.message", evt.Kind)
	}
}
