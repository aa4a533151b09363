package events

import (
	"sync"
	"sync/atomic"
	"time"

	"jordanella.com/tower-bot-go/internal/logging"
)

var busLog = logging.NewLogger("EventBus")

type subscription struct {
	id      SubscriptionID
	handler EventHandler
}

// DefaultEventBus queues events on a buffered channel and hands them to
// subscribers from a single goroutine, one at a time, in publish order.
type DefaultEventBus struct {
	mu       sync.RWMutex
	handlers map[EventType][]subscription
	lastID   atomic.Int64

	queue   chan Event
	closing chan struct{}
	once    sync.Once
	done    sync.WaitGroup

	dropped atomic.Int64
}

// NewEventBus starts a bus holding up to bufferSize undelivered events
func NewEventBus(bufferSize int) *DefaultEventBus {
	eb := &DefaultEventBus{
		handlers: make(map[EventType][]subscription),
		queue:    make(chan Event, bufferSize),
		closing:  make(chan struct{}),
	}
	eb.done.Add(1)
	go eb.run()
	return eb
}

// Subscribe registers handler for eventType
func (eb *DefaultEventBus) Subscribe(eventType EventType, handler EventHandler) SubscriptionID {
	id := SubscriptionID(eb.lastID.Add(1))

	eb.mu.Lock()
	eb.handlers[eventType] = append(eb.handlers[eventType], subscription{id: id, handler: handler})
	eb.mu.Unlock()

	return id
}

// Unsubscribe removes a subscription. Unknown IDs are ignored.
func (eb *DefaultEventBus) Unsubscribe(id SubscriptionID) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for eventType, subs := range eb.handlers {
		for i := range subs {
			if subs[i].id != id {
				continue
			}
			kept := make([]subscription, 0, len(subs)-1)
			kept = append(kept, subs[:i]...)
			eb.handlers[eventType] = append(kept, subs[i+1:]...)
			return
		}
	}
}

func stamp(event *Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
}

// Publish waits for queue space. Events published after Stop are dropped.
func (eb *DefaultEventBus) Publish(event Event) {
	stamp(&event)

	select {
	case eb.queue <- event:
	case <-eb.closing:
		eb.drop(event, "bus stopped")
	}
}

// TryPublish queues an event only if there is room. The scheduler uses
// it so a slow subscriber can never stall a tick.
func (eb *DefaultEventBus) TryPublish(event Event) bool {
	stamp(&event)

	select {
	case <-eb.closing:
		eb.drop(event, "bus stopped")
		return false
	default:
	}

	select {
	case eb.queue <- event:
		return true
	default:
		eb.drop(event, "queue full")
		return false
	}
}

func (eb *DefaultEventBus) drop(event Event, reason string) {
	eb.dropped.Add(1)
	busLog.DebugWithContext("Dropped event", map[string]interface{}{
		"type":   string(event.Type),
		"reason": reason,
	})
}

// Stop delivers what is already queued and then returns. Safe to call twice.
func (eb *DefaultEventBus) Stop() {
	eb.once.Do(func() { close(eb.closing) })
	eb.done.Wait()
}

func (eb *DefaultEventBus) run() {
	defer eb.done.Done()

	for {
		select {
		case event := <-eb.queue:
			eb.deliver(event)
		case <-eb.closing:
			for len(eb.queue) > 0 {
				eb.deliver(<-eb.queue)
			}
			return
		}
	}
}

func (eb *DefaultEventBus) deliver(event Event) {
	eb.mu.RLock()
	subs := eb.handlers[event.Type]
	eb.mu.RUnlock()

	// subs is never mutated in place, so it is safe to range without the lock
	for _, sub := range subs {
		eb.call(sub, event)
	}
}

func (eb *DefaultEventBus) call(sub subscription, event Event) {
	defer func() {
		if r := recover(); r != nil {
			busLog.WarnWithContext("Handler panic", map[string]interface{}{
				"type":         string(event.Type),
				"subscription": int64(sub.id),
				"panic":        r,
			})
		}
	}()
	sub.handler(event)
}

// GetSubscriberCount returns the number of handlers for eventType
func (eb *DefaultEventBus) GetSubscriberCount(eventType EventType) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.handlers[eventType])
}

// Dropped returns how many events were discarded since the bus started
func (eb *DefaultEventBus) Dropped() int64 {
	return eb.dropped.Load()
}
