package database

import (
	"sync"

	"jordanella.com/tower-bot-go/internal/events"
)

// Subscriber is the subset of the event bus the recorder needs
type Subscriber interface {
	Subscribe(eventType events.EventType, handler events.EventHandler) events.SubscriptionID
	Unsubscribe(id events.SubscriptionID)
}

// Recorder persists scheduler events. Each bot.started event opens a
// session; events outside a session are dropped.
type Recorder struct {
	db  *DB
	bus Subscriber

	mu        sync.Mutex
	sessionID int64
	subs      []events.SubscriptionID
}

// NewRecorder creates a recorder; call Attach to start listening
func NewRecorder(db *DB, bus Subscriber) *Recorder {
	return &Recorder{db: db, bus: bus}
}

// Attach subscribes to every event type the recorder stores
func (r *Recorder) Attach() {
	handlers := map[events.EventType]events.EventHandler{
		events.EventTypeBotStarted:  r.onStarted,
		events.EventTypeBotStopped:  r.onStopped,
		events.EventTypeTap:         r.onTap,
		events.EventTypeWaveChanged: r.onWave,
		events.EventTypePerkChosen:  r.onPerk,
		events.EventTypeError:       r.onError,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for eventType, handler := range handlers {
		r.subs = append(r.subs, r.bus.Subscribe(eventType, handler))
	}
}

// Detach removes all subscriptions
func (r *Recorder) Detach() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.subs {
		r.bus.Unsubscribe(id)
	}
	r.subs = nil
}

// SessionID returns the open session, zero if none
func (r *Recorder) SessionID() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessionID
}

func (r *Recorder) onStarted(e events.Event) {
	device, _ := e.Data["backend"].(string)
	id, err := r.db.StartSession(device, e.Timestamp)
	if err != nil {
		log.Error("Failed to start session", err)
		return
	}

	r.mu.Lock()
	r.sessionID = id
	r.mu.Unlock()
}

func (r *Recorder) onStopped(e events.Event) {
	r.mu.Lock()
	id := r.sessionID
	r.sessionID = 0
	r.mu.Unlock()
	if id == 0 {
		return
	}

	ticks := int64(intField(e.Data, "ticks"))
	wave := intField(e.Data, "wave")
	if err := r.db.EndSession(id, e.Timestamp, ticks, wave, SessionStopped); err != nil {
		log.Error("Failed to end session", err)
	}
}

func (r *Recorder) onTap(e events.Event) {
	id := r.SessionID()
	if id == 0 {
		return
	}
	task, _ := e.Data["task"].(string)
	err := r.db.RecordTap(id, task, intField(e.Data, "x"), intField(e.Data, "y"), intField(e.Data, "wave"), e.Timestamp)
	if err != nil {
		log.Error("Failed to record tap", err)
	}
}

func (r *Recorder) onWave(e events.Event) {
	id := r.SessionID()
	if id == 0 {
		return
	}
	if err := r.db.RecordWave(id, intField(e.Data, "wave"), e.Timestamp); err != nil {
		log.Error("Failed to record wave", err)
	}
}

func (r *Recorder) onPerk(e events.Event) {
	id := r.SessionID()
	if id == 0 {
		return
	}
	phrase, _ := e.Data["phrase"].(string)
	region, _ := e.Data["region"].(string)
	if err := r.db.RecordPerk(id, phrase, region, intField(e.Data, "wave"), e.Timestamp); err != nil {
		log.Error("Failed to record perk", err)
	}
}

func (r *Recorder) onError(e events.Event) {
	component, _ := e.Data["component"].(string)
	message, _ := e.Data["error"].(string)
	if err := r.db.LogError(r.SessionID(), e.Source, component, message, e.Timestamp); err != nil {
		log.Error("Failed to record error", err)
	}
}

func intField(data map[string]interface{}, key string) int {
	switch v := data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case int32:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
