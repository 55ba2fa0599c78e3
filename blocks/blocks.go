// Package blocks decorates authored page sections into the Pigment
// site's presentation markup and drives the page load phases.
//
// A block is an element carrying data-block="name". Authors write plain
// content inside it; the registered decorator for that name rebuilds the
// element wholesale, typically with the atoms package, and mounts any
// interactive components it needs. The Pipeline walks the document's
// main sections and runs decorators in load order: the first section
// eagerly, the rest lazily, and delayed work after a configurable wait.
package blocks

import (
	"sort"

	"github.com/pigmentlabs/pigment"
	"github.com/pigmentlabs/pigment/pkg/dom"
)

// BlockAttr marks an element as a block and names its decorator.
const BlockAttr = "data-block"

// DecorateFunc rebuilds a block element in place. Decorators own the
// element's content; anything authored inside is theirs to read and
// replace.
type DecorateFunc func(app *pigment.App, block *dom.Element) error

// Registry maps block names to decorators.
type Registry struct {
	decorators map[string]DecorateFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{decorators: make(map[string]DecorateFunc)}
}

// Register adds a decorator under name. The last registration for a
// name wins.
func (r *Registry) Register(name string, fn DecorateFunc) {
	r.decorators[name] = fn
}

// Decorator returns the decorator registered under name.
func (r *Registry) Decorator(name string) (DecorateFunc, bool) {
	fn, ok := r.decorators[name]
	return fn, ok
}

// Names returns the registered block names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.decorators))
	for name := range r.decorators {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Defaults returns a registry with the site's standard blocks.
func Defaults() *Registry {
	r := NewRegistry()
	r.Register("hero", Hero)
	r.Register("cards", Cards)
	r.Register("header", Header)
	r.Register("footer", Footer)
	r.Register("color-wall", ColorWall)
	return r
}
