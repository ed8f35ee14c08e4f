package events

import (
	"testing"
)

func TestEventHub_PublishSubscribe(t *testing.T) {
	h := NewEventHub()
	ch := h.Subscribe()
	if h.Subscribers() != 1 {
		t.Fatalf("Subscribers() = %d, want 1", h.Subscribers())
	}

	h.Publish(BatteryRefreshed, BatteryRefreshedEvent{Index: 1, Percent: 42.5, State: "charging", Ts: 100})

	ev := <-ch
	if ev.Name != BatteryRefreshed {
		t.Fatalf("event name = %q, want %q", ev.Name, BatteryRefreshed)
	}
	payload, err := DecodeAs[BatteryRefreshedEvent](ev)
	if err != nil {
		t.Fatalf("DecodeAs() error = %v", err)
	}
	if payload.Index != 1 || payload.Percent != 42.5 || payload.State != "charging" || payload.Ts != 100 {
		t.Errorf("unexpected payload: %+v", payload)
	}

	h.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Errorf("channel should be closed after Unsubscribe")
	}
	// Unsubscribing twice must not panic.
	h.Unsubscribe(ch)
	if h.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d, want 0", h.Subscribers())
	}
}

func TestEventHub_DropsForSlowSubscriber(t *testing.T) {
	h := NewEventHub()
	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	for i := 0; i < cap(ch)+5; i++ {
		h.Publish(BatteryRefreshFailed, BatteryRefreshFailedEvent{Index: i, Error: "gone"})
	}
	if len(ch) != cap(ch) {
		t.Fatalf("buffered events = %d, want %d", len(ch), cap(ch))
	}
	first, err := DecodeAs[BatteryRefreshFailedEvent](<-ch)
	if err != nil {
		t.Fatalf("DecodeAs() error = %v", err)
	}
	if first.Index != 0 {
		t.Errorf("first event index = %d, want 0", first.Index)
	}
}

func TestEventHub_NilPublish(t *testing.T) {
	var h *EventHub
	h.Publish(BatteryRefreshed, nil)
}

func TestDecodeAs_Empty(t *testing.T) {
	v, err := DecodeAs[BatteryRefreshedEvent](Event{Name: BatteryRefreshed})
	if err != nil || v != (BatteryRefreshedEvent{}) {
		t.Fatalf("DecodeAs(empty) = %+v, %v", v, err)
	}
}
