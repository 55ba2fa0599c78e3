package component

// State is the shallow-merged string-keyed mapping instances carry for
// both state and props. Values are JSON-compatible.
type State = map[string]any

// Initializer supplies the default state merged under mount-time values.
type Initializer interface {
	DefaultState() State
}

// SetupHook runs before the first render. Typical use is reading child
// DOM content to seed state.
type SetupHook interface {
	Setup(c *Instance)
}

// Renderer produces the markup assigned wholesale into the element on
// every render. Definitions without it never touch their element's
// content.
type Renderer interface {
	Render(c *Instance) string
}

// MountHook runs after the first render, when the instance is live.
// Typical use is binding events and store subscriptions.
type MountHook interface {
	Mounted(c *Instance)
}

// TeardownHook runs at the start of Destroy, before the cleanup list.
type TeardownHook interface {
	Destroy(c *Instance)
}

// StateObserver is notified on every state change, before the re-render.
type StateObserver interface {
	StateChanged(c *Instance, prev, next State)
}

// RenderFunc adapts a plain function into a render-only definition.
type RenderFunc func(c *Instance) string

// Render implements Renderer.
func (f RenderFunc) Render(c *Instance) string { return f(c) }

// Subscribable is the store surface SubscribeTo accepts. The store
// package satisfies it; the indirection keeps components decoupled from
// any concrete store type.
type Subscribable interface {
	Subscribe(fn func(state map[string]any)) (unsubscribe func())
}

// hooks caches a definition's discovered capabilities so mount-time type
// assertions happen once per instance.
type hooks struct {
	init     Initializer
	setup    SetupHook
	render   Renderer
	mounted  MountHook
	teardown TeardownHook
	observer StateObserver
}

func discoverHooks(def any) hooks {
	var h hooks
	if v, ok := def.(Initializer); ok {
		h.init = v
	}
	if v, ok := def.(SetupHook); ok {
		h.setup = v
	}
	if v, ok := def.(Renderer); ok {
		h.render = v
	}
	if v, ok := def.(MountHook); ok {
		h.mounted = v
	}
	if v, ok := def.(TeardownHook); ok {
		h.teardown = v
	}
	if v, ok := def.(StateObserver); ok {
		h.observer = v
	}
	return h
}

// mergeState shallow-merges partial over base into a fresh map.
func mergeState(base, partial State) State {
	next := make(State, len(base)+len(partial))
	for k, v := range base {
		next[k] = v
	}
	for k, v := range partial {
		next[k] = v
	}
	return next
}

// copyState returns a shallow copy, never nil.
func copyState(s State) State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
