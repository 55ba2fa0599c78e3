package dom

import "strings"

// Node is a member of the document tree, either an *Element or a *Text.
type Node interface {
	// Parent returns the containing element, or nil for a detached node.
	Parent() *Element

	// Document returns the owning document, or nil before adoption.
	Document() *Document

	setParent(*Element)
	adopt(*Document)
}

// Attr is a single element attribute. Attribute order is preserved as
// written, which keeps serialization faithful to the parsed source.
type Attr struct {
	Name  string
	Value string
}

// Element is an element node: a tag, ordered attributes, children, an
// optional listener table and a single binding slot for a mounted
// component instance.
type Element struct {
	tag      string
	attrs    []Attr
	parent   *Element
	children []Node
	doc      *Document

	listeners map[string][]*listener

	// binding holds whatever was mounted on this element. The slot dies
	// with the element, so nothing retains detached subtrees.
	binding any
}

// NewElement creates a detached element. Tag names are normalized to
// lower case.
func NewElement(tag string) *Element {
	return &Element{tag: strings.ToLower(tag)}
}

// Tag returns the lower-case tag name.
func (e *Element) Tag() string { return e.tag }

// Parent returns the containing element, or nil.
func (e *Element) Parent() *Element { return e.parent }

// Document returns the owning document, or nil.
func (e *Element) Document() *Document { return e.doc }

func (e *Element) setParent(p *Element) { e.parent = p }

func (e *Element) adopt(d *Document) {
	if e.doc == d {
		return
	}
	e.doc = d
	for _, child := range e.children {
		child.adopt(d)
	}
}

// IsConnected reports whether the element is attached to its document's
// tree. Detached subtrees keep their document pointer but are no longer
// reachable from the root.
func (e *Element) IsConnected() bool {
	if e.doc == nil {
		return false
	}
	top := e
	for top.parent != nil {
		top = top.parent
	}
	return top == e.doc.root
}

// ---------------------------------------------------------------------------
// Tree structure
// ---------------------------------------------------------------------------

// ChildNodes returns the children, elements and text nodes alike.
func (e *Element) ChildNodes() []Node {
	out := make([]Node, len(e.children))
	copy(out, e.children)
	return out
}

// Children returns the element children only.
func (e *Element) Children() []*Element {
	var out []*Element
	for _, child := range e.children {
		if el, ok := child.(*Element); ok {
			out = append(out, el)
		}
	}
	return out
}

// FirstElementChild returns the first element child, or nil.
func (e *Element) FirstElementChild() *Element {
	for _, child := range e.children {
		if el, ok := child.(*Element); ok {
			return el
		}
	}
	return nil
}

// AppendChild detaches child from its current parent and appends it.
func (e *Element) AppendChild(child Node) {
	detach(child)
	child.setParent(e)
	child.adopt(e.doc)
	e.children = append(e.children, child)
}

// InsertBefore inserts child immediately before ref. A nil ref appends.
func (e *Element) InsertBefore(child, ref Node) {
	if ref == nil {
		e.AppendChild(child)
		return
	}
	detach(child)
	child.setParent(e)
	child.adopt(e.doc)
	for i, existing := range e.children {
		if existing == ref {
			e.children = append(e.children[:i], append([]Node{child}, e.children[i:]...)...)
			return
		}
	}
	e.children = append(e.children, child)
}

// RemoveChild detaches child from this element. Unknown children are
// ignored.
func (e *Element) RemoveChild(child Node) {
	for i, existing := range e.children {
		if existing == child {
			e.children = append(e.children[:i], e.children[i+1:]...)
			child.setParent(nil)
			return
		}
	}
}

// Remove detaches the element from its parent, if any.
func (e *Element) Remove() {
	if e.parent != nil {
		e.parent.RemoveChild(e)
	}
}

// ReplaceChildren replaces all children with the given nodes.
func (e *Element) ReplaceChildren(nodes ...Node) {
	for _, child := range e.children {
		child.setParent(nil)
	}
	e.children = e.children[:0]
	for _, node := range nodes {
		e.AppendChild(node)
	}
}

func detach(n Node) {
	if p := n.Parent(); p != nil {
		p.RemoveChild(n)
	}
}

// ---------------------------------------------------------------------------
// Attributes
// ---------------------------------------------------------------------------

// Attr returns the attribute value, or "" when absent. Use HasAttr to
// distinguish an empty value from a missing attribute.
func (e *Element) Attr(name string) string {
	name = strings.ToLower(name)
	for _, a := range e.attrs {
		if a.Name == name {
			return a.Value
		}
	}
	return ""
}

// HasAttr reports whether the attribute is present.
func (e *Element) HasAttr(name string) bool {
	name = strings.ToLower(name)
	for _, a := range e.attrs {
		if a.Name == name {
			return true
		}
	}
	return false
}

// SetAttr sets or replaces an attribute, preserving its position when it
// already exists.
func (e *Element) SetAttr(name, value string) {
	name = strings.ToLower(name)
	for i, a := range e.attrs {
		if a.Name == name {
			e.attrs[i].Value = value
			return
		}
	}
	e.attrs = append(e.attrs, Attr{Name: name, Value: value})
}

// RemoveAttr removes an attribute if present.
func (e *Element) RemoveAttr(name string) {
	name = strings.ToLower(name)
	for i, a := range e.attrs {
		if a.Name == name {
			e.attrs = append(e.attrs[:i], e.attrs[i+1:]...)
			return
		}
	}
}

// Attrs returns a copy of the attribute list in document order.
func (e *Element) Attrs() []Attr {
	out := make([]Attr, len(e.attrs))
	copy(out, e.attrs)
	return out
}

// HasClass reports whether name appears in the class attribute.
func (e *Element) HasClass(name string) bool {
	for _, c := range strings.Fields(e.Attr("class")) {
		if c == name {
			return true
		}
	}
	return false
}

// AddClass appends class names not already present.
func (e *Element) AddClass(names ...string) {
	classes := strings.Fields(e.Attr("class"))
	for _, name := range names {
		if name == "" {
			continue
		}
		found := false
		for _, c := range classes {
			if c == name {
				found = true
				break
			}
		}
		if !found {
			classes = append(classes, name)
		}
	}
	e.SetAttr("class", strings.Join(classes, " "))
}

// RemoveClass removes class names if present.
func (e *Element) RemoveClass(names ...string) {
	classes := strings.Fields(e.Attr("class"))
	kept := classes[:0]
	for _, c := range classes {
		remove := false
		for _, name := range names {
			if c == name {
				remove = true
				break
			}
		}
		if !remove {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		e.RemoveAttr("class")
		return
	}
	e.SetAttr("class", strings.Join(kept, " "))
}

// ---------------------------------------------------------------------------
// Binding
// ---------------------------------------------------------------------------

// Bind stores v in the element's binding slot, replacing any previous
// value. The component layer uses this to enforce one live instance per
// element.
func (e *Element) Bind(v any) { e.binding = v }

// Binding returns the bound value, or nil.
func (e *Element) Binding() any { return e.binding }

// Unbind clears the binding slot.
func (e *Element) Unbind() { e.binding = nil }

// ---------------------------------------------------------------------------
// Text nodes
// ---------------------------------------------------------------------------

// Text is a text node.
type Text struct {
	data   string
	parent *Element
	doc    *Document
}

// NewText creates a detached text node.
func NewText(data string) *Text {
	return &Text{data: data}
}

// Data returns the node's text.
func (t *Text) Data() string { return t.data }

// SetData replaces the node's text.
func (t *Text) SetData(data string) { t.data = data }

// Parent returns the containing element, or nil.
func (t *Text) Parent() *Element { return t.parent }

// Document returns the owning document, or nil.
func (t *Text) Document() *Document { return t.doc }

func (t *Text) setParent(p *Element) { t.parent = p }

func (t *Text) adopt(d *Document) { t.doc = d }
