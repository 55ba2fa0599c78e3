package dom

import (
	"strings"

	"github.com/pigmentlabs/pigment/pkg/markup"
)

// voidElements cannot have children and have no closing tag.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// rawTextElements contain text that must not be entity-escaped.
var rawTextElements = map[string]bool{
	"script": true,
	"style":  true,
}

// InnerHTML serializes the element's children.
func (e *Element) InnerHTML() string {
	var buf strings.Builder
	for _, child := range e.children {
		writeNode(&buf, child)
	}
	return buf.String()
}

// OuterHTML serializes the element including its own tag.
func (e *Element) OuterHTML() string {
	var buf strings.Builder
	writeNode(&buf, e)
	return buf.String()
}

// TextContent concatenates all descendant text.
func (e *Element) TextContent() string {
	var buf strings.Builder
	writeTextContent(&buf, e)
	return buf.String()
}

// SetTextContent replaces all children with a single text node.
func (e *Element) SetTextContent(text string) {
	e.ReplaceChildren(NewText(text))
}

// HTML serializes the whole document, including its doctype.
func (d *Document) HTML() string {
	var buf strings.Builder
	if d.doctype != "" {
		buf.WriteString("<!DOCTYPE ")
		buf.WriteString(d.doctype)
		buf.WriteString(">\n")
	}
	writeNode(&buf, d.root)
	return buf.String()
}

func writeNode(buf *strings.Builder, n Node) {
	switch n := n.(type) {
	case *Element:
		writeElement(buf, n)
	case *Text:
		if p := n.Parent(); p != nil && rawTextElements[p.Tag()] {
			buf.WriteString(n.Data())
			return
		}
		buf.WriteString(markup.EscapeHTML(n.Data()))
	}
}

func writeElement(buf *strings.Builder, e *Element) {
	buf.WriteByte('<')
	buf.WriteString(e.tag)
	for _, a := range e.attrs {
		buf.WriteByte(' ')
		buf.WriteString(a.Name)
		buf.WriteString(`="`)
		buf.WriteString(markup.EscapeAttr(a.Value))
		buf.WriteByte('"')
	}
	buf.WriteByte('>')

	if voidElements[e.tag] {
		return
	}

	for _, child := range e.children {
		writeNode(buf, child)
	}

	buf.WriteString("</")
	buf.WriteString(e.tag)
	buf.WriteByte('>')
}

func writeTextContent(buf *strings.Builder, e *Element) {
	for _, child := range e.children {
		switch child := child.(type) {
		case *Text:
			buf.WriteString(child.Data())
		case *Element:
			writeTextContent(buf, child)
		}
	}
}
