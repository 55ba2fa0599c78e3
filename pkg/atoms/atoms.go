// Package atoms provides the HTML fragment factories the block library
// renders with. Every factory returns an escaped HTML string and never
// touches a document; composition is plain string nesting. Text inputs
// are escaped on the way in, so factory output is safe to hand to
// SetInnerHTML as-is.
package atoms

import (
	"strconv"
	"strings"

	"github.com/pigmentlabs/pigment/pkg/markup"
)

// voidTags are the empty elements the factories emit without a closing
// tag.
var voidTags = map[string]bool{
	"br":     true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"source": true,
}

// Tag renders one element with the given attributes and inner HTML.
// inner is trusted markup, typically the output of other factories;
// plain text must come in through the text-accepting factories or be
// escaped by the caller.
func Tag(name string, attrs markup.Attrs, inner ...string) string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(name)
	if s := attrs.String(); s != "" {
		b.WriteByte(' ')
		b.WriteString(s)
	}
	b.WriteByte('>')
	if voidTags[name] {
		return b.String()
	}
	for _, frag := range inner {
		b.WriteString(frag)
	}
	b.WriteString("</")
	b.WriteString(name)
	b.WriteByte('>')
	return b.String()
}

// mergeAttrs lays opts over base. Classes accumulate instead of
// replacing, so callers can extend a factory's base class list.
func mergeAttrs(base markup.Attrs, opts []markup.Attrs) markup.Attrs {
	merged := make(markup.Attrs, len(base)+2)
	for k, v := range base {
		merged[k] = v
	}
	for _, opt := range opts {
		for k, v := range opt {
			if k == "class" {
				prev, _ := merged["class"].(string)
				next, _ := v.(string)
				merged["class"] = markup.Classes(prev, next)
				continue
			}
			merged[k] = v
		}
	}
	return merged
}

// Heading renders an h1-h6. Levels outside 1..6 clamp.
func Heading(level int, text string, opts ...markup.Attrs) string {
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	return Tag("h"+strconv.Itoa(level), mergeAttrs(nil, opts), markup.EscapeHTML(text))
}

// Text renders a paragraph.
func Text(text string, opts ...markup.Attrs) string {
	return Tag("p", mergeAttrs(nil, opts), markup.EscapeHTML(text))
}

// Button renders a button. The type defaults to "button" so stray
// buttons inside forms don't submit them.
func Button(label string, opts ...markup.Attrs) string {
	base := markup.Attrs{"type": "button", "class": "button"}
	return Tag("button", mergeAttrs(base, opts), markup.EscapeHTML(label))
}

// Link renders an anchor.
func Link(href, label string, opts ...markup.Attrs) string {
	return Tag("a", mergeAttrs(markup.Attrs{"href": href}, opts), markup.EscapeHTML(label))
}

// Input renders an input of the given kind.
func Input(kind string, opts ...markup.Attrs) string {
	return Tag("input", mergeAttrs(markup.Attrs{"type": kind}, opts))
}

// Image renders an img with lazy loading unless overridden. The alt
// attribute always renders, even empty: a missing alt reads as an
// unlabeled image to assistive tech, an empty one as decorative.
func Image(src, alt string, opts ...markup.Attrs) string {
	merged := mergeAttrs(markup.Attrs{"src": src, "loading": "lazy"}, opts)
	if v, ok := merged["alt"].(string); ok {
		alt = v
		delete(merged, "alt")
	}

	var b strings.Builder
	b.WriteString(`<img alt="`)
	b.WriteString(markup.EscapeAttr(alt))
	b.WriteByte('"')
	if s := merged.String(); s != "" {
		b.WriteByte(' ')
		b.WriteString(s)
	}
	b.WriteByte('>')
	return b.String()
}

// Div renders a generic container around the given fragments. attrs
// may be nil.
func Div(attrs markup.Attrs, children ...string) string {
	return Tag("div", mergeAttrs(nil, []markup.Attrs{attrs}), children...)
}

// Section renders a section container.
func Section(attrs markup.Attrs, children ...string) string {
	return Tag("section", mergeAttrs(nil, []markup.Attrs{attrs}), children...)
}

// Stack renders a vertical flow container.
func Stack(attrs markup.Attrs, children ...string) string {
	return Tag("div", mergeAttrs(markup.Attrs{"class": "stack"}, []markup.Attrs{attrs}), children...)
}

// Grid renders a responsive grid container.
func Grid(attrs markup.Attrs, children ...string) string {
	return Tag("div", mergeAttrs(markup.Attrs{"class": "grid"}, []markup.Attrs{attrs}), children...)
}

// Swatch renders a color chip with an accessible caption. The hex goes
// on an inline background so the palette needs no per-color
// stylesheet; the caption falls back to the hex when the color has no
// name.
func Swatch(hex, name string, opts ...markup.Attrs) string {
	label := name
	if label == "" {
		label = hex
	}
	chip := Tag("span", markup.Attrs{
		"class":       "swatch__chip",
		"style":       "background-color: " + hex,
		"aria-hidden": true,
	})
	caption := Tag("span", markup.Attrs{"class": "swatch__name"}, markup.EscapeHTML(label))
	return Tag("span", mergeAttrs(markup.Attrs{"class": "swatch"}, opts), chip, caption)
}

// Icon renders an icon placeholder; icon CSS keys off the class pair.
func Icon(name string, opts ...markup.Attrs) string {
	base := markup.Attrs{
		"class":       markup.Classes("icon", "icon-"+name),
		"aria-hidden": true,
	}
	return Tag("span", mergeAttrs(base, opts))
}
