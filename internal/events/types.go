package events

import "time"

// EventType represents different types of events in the system
type EventType string

const (
	// Bot lifecycle events
	EventTypeBotStarted EventType = "bot.started"
	EventTypeBotStopped EventType = "bot.stopped"

	// Scheduler events
	EventTypeTap          EventType = "scheduler.tap"
	EventTypeWaveChanged  EventType = "scheduler.wave_changed"
	EventTypeStateChanged EventType = "scheduler.state_changed"
	EventTypePerkChosen   EventType = "perk.chosen"
	EventTypePerkNotFound EventType = "perk.not_found"

	// Device events
	EventTypeAppMissing EventType = "device.app_missing"

	// Error events
	EventTypeError EventType = "error"
)

// Event represents a system event with metadata
type Event struct {
	Type      EventType              // Type of event
	Source    string                 // Component that emitted event (e.g., "scheduler")
	Timestamp time.Time              // When the event occurred
	Data      map[string]interface{} // Event-specific data
}

// EventHandler is a function that processes an event
type EventHandler func(Event)

// SubscriptionID uniquely identifies a subscription
type SubscriptionID int64

// EventBus defines the interface for event pub/sub
type EventBus interface {
	// Subscribe registers a handler for a specific event type
	Subscribe(eventType EventType, handler EventHandler) SubscriptionID

	// Unsubscribe removes a subscription by ID
	Unsubscribe(id SubscriptionID)

	// Publish sends an event to all subscribers (blocking until queued)
	Publish(event Event)

	// TryPublish queues an event without blocking and reports whether it was queued
	TryPublish(event Event) bool

	// Stop stops the event bus and drains remaining events
	Stop()
}

// Helper functions to create common events

// NewBotStartedEvent creates a bot started event
func NewBotStartedEvent(backend string) Event {
	return Event{
		Type:      EventTypeBotStarted,
		Source:    "scheduler",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"backend": backend,
		},
	}
}

// NewBotStoppedEvent creates a bot stopped event
func NewBotStoppedEvent(ticks int64, wave int) Event {
	return Event{
		Type:      EventTypeBotStopped,
		Source:    "scheduler",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"ticks": ticks,
			"wave":  wave,
		},
	}
}

// NewTapEvent records one issued tap. Task is the scheduler task key.
func NewTapEvent(task string, x, y, wave int) Event {
	return Event{
		Type:      EventTypeTap,
		Source:    "scheduler",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"task": task,
			"x":    x,
			"y":    y,
			"wave": wave,
		},
	}
}

// NewWaveChangedEvent creates a wave changed event
func NewWaveChangedEvent(previous, current int) Event {
	return Event{
		Type:      EventTypeWaveChanged,
		Source:    "scheduler",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"previous": previous,
			"wave":     current,
		},
	}
}

// NewStateChangedEvent creates a state changed event
func NewStateChangedEvent(from, to string) Event {
	return Event{
		Type:      EventTypeStateChanged,
		Source:    "scheduler",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"from": from,
			"to":   to,
		},
	}
}

// NewPerkChosenEvent creates a perk chosen event
func NewPerkChosenEvent(phrase, region string, wave int) Event {
	return Event{
		Type:      EventTypePerkChosen,
		Source:    "perks",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"phrase": phrase,
			"region": region,
			"wave":   wave,
		},
	}
}

// NewPerkNotFoundEvent creates an event for a selection pass with no match
func NewPerkNotFoundEvent(texts []string, wave int) Event {
	return Event{
		Type:      EventTypePerkNotFound,
		Source:    "perks",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"texts": texts,
			"wave":  wave,
		},
	}
}

// NewAppMissingEvent creates an event for a failed liveness probe
func NewAppMissingEvent(target string, err error) Event {
	data := map[string]interface{}{
		"target": target,
	}
	if err != nil {
		data["error"] = err.Error()
	}
	return Event{
		Type:      EventTypeAppMissing,
		Source:    "device",
		Timestamp: time.Now(),
		Data:      data,
	}
}

// NewErrorEvent creates an error event
func NewErrorEvent(source, component string, err error, metadata map[string]interface{}) Event {
	data := map[string]interface{}{
		"source":    source,
		"component": component,
		"error":     err.Error(),
	}

	// Merge metadata
	for k, v := range metadata {
		data[k] = v
	}

	return Event{
		Type:      EventTypeError,
		Source:    source,
		Timestamp: time.Now(),
		Data:      data,
	}
}
