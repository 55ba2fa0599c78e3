// Package component implements the stateful component factory: named
// definitions mounted onto document elements, with lifecycle hooks,
// shallow-merged state and props, full-replace rendering, and scoped
// event delegation.
//
// # Definitions
//
// A definition is any value; the factory discovers its capabilities once
// at mount time through the optional single-method interfaces
// (Initializer, SetupHook, Renderer, MountHook, TeardownHook,
// StateObserver). A definition implementing none of them is legal and
// mounts inert. RenderFunc adapts a plain function into a render-only
// definition.
//
// # Lifecycle
//
// Mount looks the definition up, initializes state and props, stamps the
// element with a generated scope id, then runs Setup, the first render,
// and Mounted, in that order, before associating the instance with the
// element. SetState and SetProps re-render; Destroy runs the teardown
// hook, then every registered cleanup exactly once, then clears the
// association and the scope id.
//
// Hook panics are not contained. A panicking Setup or Render propagates
// to the Mount or SetState caller, and the instance may be left partially
// initialized; the only structured failure is NotDefinedError.
//
// # Delegation scope
//
// Instance.On registers through the bus with the selector prefixed by
// the instance's scope id, so handlers observe events only from the
// component's own subtree:
//
//	c.On("click", ".swatch", func(ev *dom.Event, match *dom.Element) { ... })
//
// The subscription is cleaned up automatically at destroy.
package component
