// Package pigment is the page runtime behind the Pigment marketing site.
//
// This is the recommended import for site code:
//
//	import "github.com/pigmentlabs/pigment"
//
// Usage:
//
//	app := pigment.New(pigment.DefaultConfig())
//	defer app.Close()
//
//	app.Define("swatch-tray", tray.Definition{})
//	app.MountAll(nil)
//
//	colors := app.Colors()
//	res := colors.AddColor(pigment.Color{Hex: "#C8553D", Name: "Terracotta"})
//	if !res.Success {
//		// res.Reason is "full" or "duplicate"
//	}
//
// Everything hangs off the App: the document, the delegated event bus,
// the component registry, and the reactive stores. Blocks decorate the
// document through the blocks package; the preview CLI under cmd/pigment
// serves the decorated site during development.
package pigment

import (
	"github.com/pigmentlabs/pigment/pkg/component"
	"github.com/pigmentlabs/pigment/pkg/dom"
	"github.com/pigmentlabs/pigment/pkg/markup"
	"github.com/pigmentlabs/pigment/pkg/store"
)

// =============================================================================
// Document & events (re-export from pkg/dom)
// =============================================================================

// Document is the host tree an App runs against.
type Document = dom.Document

// Element is a single node in the document tree.
type Element = dom.Element

// Event is a dispatched document event.
type Event = dom.Event

// ParseDocument parses a full HTML document.
var ParseDocument = dom.ParseDocument

// =============================================================================
// Components (re-export from pkg/component)
// =============================================================================

// Instance is a live, mounted component.
type Instance = component.Instance

// State is the mutable bag components and stores carry. Values must stay
// JSON-serializable so stores can persist and sync them.
type State = component.State

// =============================================================================
// Stores (re-export from pkg/store)
// =============================================================================

// Store is a reactive state container with debounced persistence and
// cross-instance sync.
type Store = store.Store

// ColorsStore manages the bounded saved-colors collection.
type ColorsStore = store.ColorsStore

// Color is one saved palette entry.
type Color = store.Color

// AddResult reports whether AddColor committed, and why not.
type AddResult = store.AddResult

// =============================================================================
// Markup helpers (re-export from pkg/markup)
// =============================================================================

// Attrs is an attribute map that serializes deterministically.
type Attrs = markup.Attrs

// EscapeHTML escapes text for an HTML text position.
var EscapeHTML = markup.EscapeHTML

// EscapeAttr escapes text for a double-quoted attribute value.
var EscapeAttr = markup.EscapeAttr

// Classes joins non-empty class names with single spaces.
var Classes = markup.Classes

// NewID returns a prefixed random id for generated markup.
var NewID = markup.NewID
