package multiplayer

import "sync"

type listener struct {
	id uint64
	fn func(Event)
}

// Emitter is an ordered listener registry keyed by event kind.
// It is safe for concurrent use.
type Emitter struct {
	mu     sync.RWMutex
	nextID uint64
	byKind map[EventKind][]listener
}

// NewEmitter creates an empty registry.
func NewEmitter() *Emitter {
	return &Emitter{byKind: make(map[EventKind][]listener)}
}

// On registers fn for kind. Listeners run in registration order.
// The returned function removes the listener and is safe to call twice.
func (e *Emitter) On(kind EventKind, fn func(Event)) (off func()) {
	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.byKind[kind] = append(e.byKind[kind], listener{id: id, fn: fn})
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		ls := e.byKind[kind]
		for i, l := range ls {
			if l.id == id {
				e.byKind[kind] = append(ls[:i:i], ls[i+1:]...)
				return
			}
		}
	}
}

// Emit calls every listener registered for evt's kind.
// The listener list is copied first so listeners may unregister themselves.
func (e *Emitter) Emit(evt Event) {
	e.mu.RLock()
	ls := append([]listener(nil), e.byKind[evt.Kind()]...)
	e.mu.RUnlock()

	for _, l := range ls {
		l.fn(evt)
	}
}

// Clear drops every listener.
func (e *Emitter) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.byKind = make(map[EventKind][]listener)
}
