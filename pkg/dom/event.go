package dom

// Event is a synthetic DOM event travelling through the tree in capture,
// target and bubble phases.
type Event struct {
	// Type is the event name, e.g. "click" or "pigment:toast".
	Type string

	// Target is the element the event was dispatched from.
	Target *Element

	// Detail carries an arbitrary payload for custom events.
	Detail any

	// Key is the key value for keyboard events, e.g. "Enter" or " ".
	Key string

	bubbles   bool
	composed  bool
	current   *Element
	stopped   bool
	prevented bool
	inPassive bool
}

// EventInit configures a new event.
type EventInit struct {
	// Bubbles lets the event ascend from the target to the root.
	Bubbles bool

	// Composed marks the event as crossing shadow boundaries. The flag is
	// carried for consumers; this tree has no shadow roots.
	Composed bool

	// Detail is the custom payload.
	Detail any

	// Key is the key value for keyboard events.
	Key string
}

// NewEvent creates an event ready for dispatch.
func NewEvent(eventType string, init EventInit) *Event {
	return &Event{
		Type:     eventType,
		Detail:   init.Detail,
		Key:      init.Key,
		bubbles:  init.Bubbles,
		composed: init.Composed,
	}
}

// CurrentTarget returns the element whose listener is currently running.
func (e *Event) CurrentTarget() *Element { return e.current }

// Bubbles reports whether the event ascends after the target phase.
func (e *Event) Bubbles() bool { return e.bubbles }

// Composed reports the composed flag.
func (e *Event) Composed() bool { return e.composed }

// StopPropagation prevents the event from reaching further elements.
// Remaining listeners on the current element still run.
func (e *Event) StopPropagation() { e.stopped = true }

// PreventDefault marks the event's default action as cancelled. Calls
// from a passive listener are ignored.
func (e *Event) PreventDefault() {
	if e.inPassive {
		return
	}
	e.prevented = true
}

// DefaultPrevented reports whether a non-passive listener cancelled the
// default action.
func (e *Event) DefaultPrevented() bool { return e.prevented }

// HandlerFunc is an event listener.
type HandlerFunc func(*Event)

// ListenerOptions configure AddListener.
type ListenerOptions struct {
	// Capture runs the listener on the way down, before the target phase.
	Capture bool

	// Passive promises the listener never cancels the default action;
	// PreventDefault calls from it are ignored.
	Passive bool

	// Once removes the listener after its first invocation.
	Once bool
}

type listener struct {
	fn      HandlerFunc
	capture bool
	passive bool
	once    bool
	removed bool
}

// AddListener registers a listener for the event type and returns its
// removal function. Listeners run in registration order within a phase.
func (e *Element) AddListener(eventType string, fn HandlerFunc, opts ListenerOptions) (remove func()) {
	if e.listeners == nil {
		e.listeners = make(map[string][]*listener)
	}
	l := &listener{fn: fn, capture: opts.Capture, passive: opts.Passive, once: opts.Once}
	e.listeners[eventType] = append(e.listeners[eventType], l)

	return func() {
		l.removed = true
		list := e.listeners[eventType]
		for i, existing := range list {
			if existing == l {
				e.listeners[eventType] = append(list[:i], list[i+1:]...)
				return
			}
		}
	}
}

// Dispatch runs the event against the tree: capture phase from the root
// down to the target's parent, the target phase, then the bubble phase
// back up when the event bubbles. It reports whether the default action
// survived, mirroring the dispatchEvent contract.
func (e *Element) Dispatch(ev *Event) bool {
	ev.Target = e

	var path []*Element
	for cur := e.Parent(); cur != nil; cur = cur.Parent() {
		path = append(path, cur)
	}

	// Capture: root towards target.
	for i := len(path) - 1; i >= 0; i-- {
		if ev.stopped {
			return !ev.prevented
		}
		path[i].invokeListeners(ev, phaseCapture)
	}

	// Target: both capture and bubble listeners in registration order.
	if !ev.stopped {
		e.invokeListeners(ev, phaseTarget)
	}

	// Bubble: target towards root.
	if ev.bubbles {
		for _, cur := range path {
			if ev.stopped {
				break
			}
			cur.invokeListeners(ev, phaseBubble)
		}
	}

	return !ev.prevented
}

type phase int

const (
	phaseCapture phase = iota
	phaseTarget
	phaseBubble
)

func (e *Element) invokeListeners(ev *Event, p phase) {
	list := e.listeners[ev.Type]
	if len(list) == 0 {
		return
	}

	// Copy so removals from inside a listener do not skip entries.
	snapshot := make([]*listener, len(list))
	copy(snapshot, list)

	ev.current = e
	defer func() { ev.current = nil }()

	for _, l := range snapshot {
		if l.removed {
			continue
		}
		switch p {
		case phaseCapture:
			if !l.capture {
				continue
			}
		case phaseBubble:
			if l.capture {
				continue
			}
		}

		if l.once {
			l.removed = true
			e.removeListener(ev.Type, l)
		}

		ev.inPassive = l.passive
		l.fn(ev)
		ev.inPassive = false
	}
}

func (e *Element) removeListener(eventType string, l *listener) {
	list := e.listeners[eventType]
	for i, existing := range list {
		if existing == l {
			e.listeners[eventType] = append(list[:i], list[i+1:]...)
			return
		}
	}
}
