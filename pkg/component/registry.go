package component

import (
	"fmt"
	"log/slog"

	"github.com/pigmentlabs/pigment/pkg/dom"
	"github.com/pigmentlabs/pigment/pkg/events"
	"github.com/pigmentlabs/pigment/pkg/markup"
)

// NotDefinedError is returned by Mount for a name with no registered
// definition.
type NotDefinedError struct {
	Name string
}

func (e *NotDefinedError) Error() string {
	return fmt.Sprintf("component %q is not defined", e.Name)
}

// Registry maps definition names to definitions and mounts instances.
// It belongs to an App; there is no package-level registry.
type Registry struct {
	bus    *events.Bus
	logger *slog.Logger
	defs   map[string]any
}

// NewRegistry creates an empty registry wired to the bus. A nil logger
// falls back to slog.Default.
func NewRegistry(bus *events.Bus, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		bus:    bus,
		logger: logger,
		defs:   make(map[string]any),
	}
}

// Define registers a definition under name. The last registration for a
// name wins.
func (r *Registry) Define(name string, def any) {
	r.defs[name] = def
}

// Defined reports whether a definition is registered under name.
func (r *Registry) Defined(name string) bool {
	_, ok := r.defs[name]
	return ok
}

// Mount instantiates the named definition on el. Mounting an element
// that already hosts a live instance returns that instance unchanged;
// no hook runs again. An unregistered name fails with NotDefinedError.
func (r *Registry) Mount(name string, el *dom.Element, props State) (*Instance, error) {
	if existing, ok := el.Binding().(*Instance); ok {
		return existing, nil
	}

	def, ok := r.defs[name]
	if !ok {
		return nil, &NotDefinedError{Name: name}
	}

	c := &Instance{
		id:      markup.NewID(name),
		name:    name,
		element: el,
		bus:     r.bus,
		logger:  r.logger,
		def:     def,
		hooks:   discoverHooks(def),
		props:   copyState(props),
	}
	if c.hooks.init != nil {
		c.state = copyState(c.hooks.init.DefaultState())
	} else {
		c.state = State{}
	}

	el.SetAttr(ScopeAttr, c.id)
	if !el.HasAttr(HostAttr) {
		el.SetAttr(HostAttr, name)
	}

	if c.hooks.setup != nil {
		c.hooks.setup.Setup(c)
	}
	c.Render()
	if c.hooks.mounted != nil {
		c.hooks.mounted.Mounted(c)
	}

	el.Bind(c)
	return c, nil
}

// MountAll scans the subtree under root for host-marked elements and
// mounts every one whose name is registered, silently skipping unknown
// names. It returns the live instances in document order, including any
// that were already mounted.
func (r *Registry) MountAll(root *dom.Element) []*Instance {
	var out []*Instance
	for _, el := range root.QueryAll("[" + HostAttr + "]") {
		name := el.Attr(HostAttr)
		if !r.Defined(name) {
			continue
		}
		c, err := r.Mount(name, el, nil)
		if err != nil {
			continue
		}
		out = append(out, c)
	}
	return out
}

// UnmountAll destroys every live instance in the subtree under root.
// Nested instances are destroyed before their ancestors.
func (r *Registry) UnmountAll(root *dom.Element) {
	hosts := root.QueryAll("[" + HostAttr + "]")
	for i := len(hosts) - 1; i >= 0; i-- {
		if c, ok := hosts[i].Binding().(*Instance); ok {
			c.Destroy()
		}
	}
}
