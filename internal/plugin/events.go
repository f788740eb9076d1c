package plugin

import "sync"

// EventKind is the kind of plugin lifecycle event.
type EventKind int

// Lifecycle event kinds.
const (
	// EventInitialized is emitted when a plugin's registration completes.
	EventInitialized EventKind = iota

	// EventError is emitted when a plugin fails, directly or through a
	// failed dependency.
	EventError

	// EventDisabled is emitted when a plugin is disabled.
	EventDisabled

	// EventEnabled is emitted when a plugin is re-enabled.
	EventEnabled
)

// String returns a string representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventInitialized:
		return "initialized"
	case EventError:
		return "error"
	case EventDisabled:
		return "disabled"
	case EventEnabled:
		return "enabled"
	default:
		return "unknown"
	}
}

// Event is a plugin lifecycle notification. Err is set only for EventError.
type Event struct {
	Kind   EventKind
	Plugin string
	Err    error
}

// Listener receives lifecycle events. Listeners must be non-blocking and
// should not call back into the Manager; panics are recovered.
type Listener func(Event)

// notifier is a small typed observer limited to the four lifecycle event
// kinds. It is deliberately separate from the message bus so the manager and
// the bus never depend on each other for lifecycle reporting.
type notifier struct {
	mu        sync.Mutex
	listeners []listenerEntry
}

type listenerEntry struct {
	kind EventKind
	fn   Listener
}

// on registers a listener for one event kind and returns an unsubscribe
// function.
func (n *notifier) on(kind EventKind, fn Listener) func() {
	if fn == nil {
		return func() {}
	}

	n.mu.Lock()
	n.listeners = append(n.listeners, listenerEntry{kind: kind, fn: fn})
	index := len(n.listeners) - 1
	n.mu.Unlock()

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		// Nil out instead of removing to avoid index shifting.
		if index < len(n.listeners) {
			n.listeners[index].fn = nil
		}
	}
}

// emit delivers an event to matching listeners. Listeners are copied under
// the lock and invoked outside it, with panic recovery.
func (n *notifier) emit(ev Event) {
	n.mu.Lock()
	entries := make([]listenerEntry, len(n.listeners))
	copy(entries, n.listeners)
	n.mu.Unlock()

	for _, entry := range entries {
		if entry.fn == nil || entry.kind != ev.Kind {
			continue
		}
		func() {
			defer func() {
				_ = recover()
			}()
			entry.fn(ev)
		}()
	}
}
