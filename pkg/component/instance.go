package component

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/pigmentlabs/pigment/pkg/dom"
	"github.com/pigmentlabs/pigment/pkg/events"
)

// ScopeAttr is the marker attribute carrying an instance's scope id.
const ScopeAttr = "data-pid"

// HostAttr flags an element as hosting a named component, for batch
// mounting.
const HostAttr = "data-component"

// Instance is a mounted component: the element it owns, its state and
// props, and the cleanup list run at destroy.
type Instance struct {
	id      string
	name    string
	element *dom.Element
	bus     *events.Bus
	logger  *slog.Logger

	def   any
	hooks hooks

	state State
	props State

	cleanups  []func()
	destroyed bool
}

// ID returns the generated scope id stamped on the element.
func (c *Instance) ID() string { return c.id }

// Name returns the definition name the instance was mounted under.
func (c *Instance) Name() string { return c.name }

// Element returns the host element.
func (c *Instance) Element() *dom.Element { return c.element }

// State returns a shallow copy of the current state. Mutating the copy
// does not affect the instance; go through SetState.
func (c *Instance) State() State { return copyState(c.state) }

// Props returns a shallow copy of the current props.
func (c *Instance) Props() State { return copyState(c.props) }

// SetState shallow-merges partial over the current state, notifies the
// state observer, then re-renders. Exactly one render happens per call,
// even for an empty partial.
func (c *Instance) SetState(partial State) {
	c.applyState(mergeState(c.state, partial))
}

// UpdateState applies fn to a copy of the current state and installs the
// result, notifying the observer and re-rendering like SetState.
func (c *Instance) UpdateState(fn func(prev State) State) {
	c.applyState(fn(copyState(c.state)))
}

func (c *Instance) applyState(next State) {
	prev := c.state
	c.state = next
	if c.hooks.observer != nil {
		c.hooks.observer.StateChanged(c, copyState(prev), copyState(next))
	}
	c.Render()
}

// SetProps shallow-merges partial over the current props and re-renders.
func (c *Instance) SetProps(partial State) {
	c.props = mergeState(c.props, partial)
	c.Render()
}

// Render invokes the definition's render hook, if any, and assigns its
// output wholesale as the element's markup. There is no diffing; every
// render replaces the subtree.
func (c *Instance) Render() {
	if c.hooks.render == nil {
		return
	}
	if err := c.element.SetInnerHTML(c.hooks.render.Render(c)); err != nil {
		c.logger.Error("component render failed", "component", c.name, "id", c.id, "error", err)
	}
}

// On registers a delegated handler scoped to this instance's subtree and
// queues its removal for destroy.
func (c *Instance) On(eventType, selector string, fn events.HandlerFunc) {
	off := c.bus.Handle(eventType, c.scoped(selector), fn)
	c.OnDestroy(off)
}

// OnActivate registers fn for click and keyboard activation, scoped like
// On.
func (c *Instance) OnActivate(selector string, fn events.HandlerFunc) {
	off := c.bus.HandleActivate(c.scoped(selector), fn)
	c.OnDestroy(off)
}

// SubscribeTo subscribes fn to a store and queues the unsubscribe for
// destroy. The store invokes fn immediately with its current state.
func (c *Instance) SubscribeTo(src Subscribable, fn func(state map[string]any)) {
	c.OnDestroy(src.Subscribe(fn))
}

// OnDestroy appends a cleanup function. Cleanups run exactly once, in
// registration order, when the instance is destroyed.
func (c *Instance) OnDestroy(fn func()) {
	c.cleanups = append(c.cleanups, fn)
}

// Emit dispatches a bubbling, composed custom event from the element so
// ancestor glue can observe component-internal occurrences.
func (c *Instance) Emit(name string, detail any) {
	c.element.Dispatch(dom.NewEvent(name, dom.EventInit{
		Bubbles:  true,
		Composed: true,
		Detail:   detail,
	}))
}

// Q returns the first descendant of the host element matching the
// selector.
func (c *Instance) Q(selector string) *dom.Element {
	return c.element.Query(selector)
}

// QAll returns all descendants of the host element matching the
// selector.
func (c *Instance) QAll(selector string) []*dom.Element {
	return c.element.QueryAll(selector)
}

// Destroy runs the teardown hook, then the cleanup list in registration
// order, then removes the element association and scope marker. A second
// call finds nothing to do.
func (c *Instance) Destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true

	if c.hooks.teardown != nil {
		c.hooks.teardown.Destroy(c)
	}
	for _, fn := range c.cleanups {
		fn()
	}
	c.cleanups = nil

	c.element.Unbind()
	c.element.RemoveAttr(ScopeAttr)
}

// scoped prefixes a selector with this instance's scope marker. Comma
// alternatives are each scoped independently.
func (c *Instance) scoped(selector string) string {
	prefix := fmt.Sprintf(`[%s="%s"] `, ScopeAttr, c.id)
	if !strings.Contains(selector, ",") {
		return prefix + selector
	}
	parts := strings.Split(selector, ",")
	for i, p := range parts {
		parts[i] = prefix + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
