package core

import "sync"

type EventCode int

const (
	// An asset file under the resolver root was created or modified.
	// Context carries the relative URI.
	EVENT_CODE_ASSET_CHANGED EventCode = 0x01

	// An asset file under the resolver root was deleted.
	EVENT_CODE_ASSET_REMOVED EventCode = 0x02

	// The resolver watcher reported an error. Context carries the message.
	EVENT_CODE_ASSET_WATCH_ERROR EventCode = 0x03
)

type EventContext struct {
	URI     string
	Message string
}

type FnOnEvent func(code EventCode, sender interface{}, data EventContext) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

// EventBus dispatches engine events to registered listeners. Handlers run
// on the goroutine that fires the event.
type EventBus struct {
	mutex   sync.RWMutex
	entries map[EventCode][]registeredEvent
}

func NewEventBus() *EventBus {
	return &EventBus{
		entries: make(map[EventCode][]registeredEvent),
	}
}

func (eb *EventBus) Register(code EventCode, listener interface{}, onEvent FnOnEvent) bool {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	for _, e := range eb.entries[code] {
		if e.listener == listener {
			LogWarn("event listener already registered for code %d", code)
			return false
		}
	}

	eb.entries[code] = append(eb.entries[code], registeredEvent{
		listener: listener,
		callback: onEvent,
	})
	return true
}

func (eb *EventBus) Unregister(code EventCode, listener interface{}) bool {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	entries := eb.entries[code]
	for i, e := range entries {
		if e.listener == listener {
			eb.entries[code] = append(entries[:i], entries[i+1:]...)
			return true
		}
	}
	return false
}

// Fire invokes every handler registered for code. A handler returning true
// marks the event handled and stops propagation.
func (eb *EventBus) Fire(code EventCode, sender interface{}, data EventContext) bool {
	eb.mutex.RLock()
	entries := make([]registeredEvent, len(eb.entries[code]))
	copy(entries, eb.entries[code])
	eb.mutex.RUnlock()

	for _, e := range entries {
		if e.callback(code, sender, data) {
			return true
		}
	}
	return false
}
