// Package markup provides the low-level string utilities the atom library
// and block decorators are built on: HTML escaping, class-name joining,
// attribute serialization, and short id generation.
//
// Everything here is a pure function over strings. Nothing in this package
// touches a DOM tree; callers assemble fragments and hand them to an
// element's SetInnerHTML.
//
// # Escaping
//
// EscapeHTML and EscapeAttr replace the five reserved characters with their
// entity equivalents. Escaping is plain substitution, so escaping an
// already-escaped string doubles the entities. Never escape twice.
//
// # Attributes
//
// Attrs serializes deterministically (keys sorted) so rendered fragments
// are stable across runs and safe to assert against in tests:
//
//	markup.Attrs{"class": "swatch", "disabled": true}.String()
//	// ` class="swatch" disabled`
package markup
