package events

import (
	"sync"
	"testing"
	"time"
)

func TestBusDeliversInOrder(t *testing.T) {
	bus := NewEventBus(16)

	var mu sync.Mutex
	var got []int
	bus.Subscribe(EventTypeTap, func(e Event) {
		mu.Lock()
		got = append(got, e.Data["x"].(int))
		mu.Unlock()
	})

	for i := 0; i < 5; i++ {
		bus.Publish(NewTapEvent("retry", i, 0, 1))
	}
	bus.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 5 {
		t.Fatalf("Expected 5 events, got %d", len(got))
	}
	for i, x := range got {
		if x != i {
			t.Errorf("event %d has x=%d, want %d", i, x, i)
		}
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewEventBus(4)
	defer bus.Stop()

	id := bus.Subscribe(EventTypeWaveChanged, func(Event) {})
	if n := bus.GetSubscriberCount(EventTypeWaveChanged); n != 1 {
		t.Fatalf("Expected 1 subscriber, got %d", n)
	}
	bus.Unsubscribe(id)
	if n := bus.GetSubscriberCount(EventTypeWaveChanged); n != 0 {
		t.Errorf("Expected 0 subscribers after unsubscribe, got %d", n)
	}
}

func TestTryPublishNeverBlocks(t *testing.T) {
	bus := NewEventBus(1)

	release := make(chan struct{})
	bus.Subscribe(EventTypeTap, func(Event) { <-release })

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			bus.TryPublish(NewTapEvent("upg", i, i, 0))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("TryPublish blocked on a full queue")
	}

	close(release)
	bus.Stop()

	if bus.TryPublish(NewTapEvent("upg", 0, 0, 0)) {
		t.Error("TryPublish should refuse events after Stop")
	}
	if bus.Dropped() == 0 {
		t.Error("Expected refused events to be counted as dropped")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	bus := NewEventBus(2)
	bus.Stop()
	bus.Stop()

	bus.Publish(NewTapEvent("retry", 0, 0, 0))
	if n := bus.Dropped(); n != 1 {
		t.Errorf("Dropped() = %d, want 1", n)
	}
}

func TestHandlerPanicIsRecovered(t *testing.T) {
	bus := NewEventBus(4)

	delivered := make(chan struct{}, 1)
	bus.Subscribe(EventTypeError, func(Event) { panic("handler bug") })
	bus.Subscribe(EventTypeError, func(Event) { delivered <- struct{}{} })

	bus.Publish(Event{Type: EventTypeError, Source: "test"})
	bus.Stop()

	select {
	case <-delivered:
	default:
		t.Error("second handler was not called after first panicked")
	}
}
