// Package events provides the delegated event bus: one listener per event
// type at the document root, with handlers keyed by (type, selector) and
// matched via Closest at dispatch time.
package events

import (
	"log/slog"

	"github.com/pigmentlabs/pigment/pkg/dom"
)

// HandlerFunc is a delegated handler. match is the ancestor-or-self of
// the event target that satisfied the handler's selector.
type HandlerFunc func(ev *dom.Event, match *dom.Element)

// Bus delegates events from the document root instead of attaching
// listeners to individual elements. It starts unbound and binds one root
// listener per event type lazily, on the first registration for that
// type.
//
// Within one (type, selector) key, handlers run in registration order.
// Across keys of the same event type, dispatch follows key registration
// order, but callers must not depend on it.
type Bus struct {
	doc    *dom.Document
	logger *slog.Logger

	// keys indexes registrations by "type::selector".
	keys map[string]*keyEntry

	// byType holds each type's keys in first-registration order.
	byType map[string][]*keyEntry

	// unbinders removes the root listener installed per event type.
	unbinders map[string]func()
}

type keyEntry struct {
	eventType string
	selector  *dom.Selector
	handlers  []*registration
}

type registration struct {
	fn      HandlerFunc
	removed bool
}

// New creates a bus for the document. A nil logger falls back to
// slog.Default.
func New(doc *dom.Document, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		doc:       doc,
		logger:    logger,
		keys:      make(map[string]*keyEntry),
		byType:    make(map[string][]*keyEntry),
		unbinders: make(map[string]func()),
	}
}

// Handle registers a delegated handler and returns its removal function.
// An invalid selector is logged and yields a registration that never
// fires; removal of the last handler under a key leaves the empty key in
// place.
func (b *Bus) Handle(eventType, selector string, fn HandlerFunc) (off func()) {
	sel, err := dom.ParseSelector(selector)
	if err != nil {
		b.logger.Warn("ignoring delegated handler with invalid selector",
			"event", eventType, "selector", selector, "error", err)
		return func() {}
	}

	b.bindType(eventType)

	key := eventType + "::" + selector
	entry, ok := b.keys[key]
	if !ok {
		entry = &keyEntry{eventType: eventType, selector: sel}
		b.keys[key] = entry
		b.byType[eventType] = append(b.byType[eventType], entry)
	}

	reg := &registration{fn: fn}
	entry.handlers = append(entry.handlers, reg)

	return func() {
		reg.removed = true
		for i, existing := range entry.handlers {
			if existing == reg {
				entry.handlers = append(entry.handlers[:i], entry.handlers[i+1:]...)
				return
			}
		}
	}
}

// HandleActivate registers fn for click activation and for keyboard
// activation via Enter or Space. Space cancels its default action so the
// page does not scroll. The returned function removes both
// registrations.
func (b *Bus) HandleActivate(selector string, fn HandlerFunc) (off func()) {
	offClick := b.Handle("click", selector, fn)
	offKey := b.Handle("keydown", selector, func(ev *dom.Event, match *dom.Element) {
		switch ev.Key {
		case "Enter":
			fn(ev, match)
		case " ":
			ev.PreventDefault()
			fn(ev, match)
		}
	})

	return func() {
		offClick()
		offKey()
	}
}

// Close removes every root listener, returning the bus to its unbound
// state. Registrations stay in place and rebind lazily on the next
// Handle call for their type.
func (b *Bus) Close() {
	for _, unbind := range b.unbinders {
		unbind()
	}
	clear(b.unbinders)
}

// bindType installs the root listener for an event type on first use.
// Focus events do not bubble, so they are observed in the capture phase.
// Listeners are passive except for types whose default action the
// handlers may cancel.
func (b *Bus) bindType(eventType string) {
	if _, bound := b.unbinders[eventType]; bound {
		return
	}

	opts := dom.ListenerOptions{
		Capture: eventType == "focusin" || eventType == "focusout",
		Passive: eventType != "submit" && eventType != "keydown",
	}
	b.unbinders[eventType] = b.doc.Root().AddListener(eventType, func(ev *dom.Event) {
		b.dispatch(ev)
	}, opts)
}

// dispatch fans a root-observed event out to matching registrations. The
// closest match must still be connected to the live document; a handler
// earlier in the pass may have detached it.
func (b *Bus) dispatch(ev *dom.Event) {
	if ev.Target == nil {
		return
	}

	for _, entry := range b.byType[ev.Type] {
		if len(entry.handlers) == 0 {
			continue
		}
		match := entry.selector.Closest(ev.Target)
		if match == nil || !match.IsConnected() {
			continue
		}

		snapshot := make([]*registration, len(entry.handlers))
		copy(snapshot, entry.handlers)
		for _, reg := range snapshot {
			if reg.removed {
				continue
			}
			reg.fn(ev, match)
		}
	}
}
