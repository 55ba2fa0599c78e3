package dom

// Document owns a tree rooted at an html element. It is the anchor the
// event bus binds to and the unit the preview server parses per request.
type Document struct {
	root    *Element
	doctype string
}

// NewDocument creates an empty document with an html/head/body skeleton.
func NewDocument() *Document {
	doc := &Document{doctype: "html"}
	root := NewElement("html")
	root.adopt(doc)
	doc.root = root
	root.AppendChild(NewElement("head"))
	root.AppendChild(NewElement("body"))
	return doc
}

// Root returns the document's html element.
func (d *Document) Root() *Element { return d.root }

// Head returns the head element, or nil when the tree has none.
func (d *Document) Head() *Element {
	return d.root.Query("head")
}

// Body returns the body element, or nil when the tree has none.
func (d *Document) Body() *Element {
	return d.root.Query("body")
}

// CreateElement creates a detached element owned by this document.
func (d *Document) CreateElement(tag string) *Element {
	el := NewElement(tag)
	el.adopt(d)
	return el
}

// CreateText creates a detached text node owned by this document.
func (d *Document) CreateText(data string) *Text {
	t := NewText(data)
	t.adopt(d)
	return t
}

// Query returns the first element in the document matching the selector.
func (d *Document) Query(selector string) *Element {
	return d.root.Query(selector)
}

// QueryAll returns all elements in the document matching the selector.
func (d *Document) QueryAll(selector string) []*Element {
	return d.root.QueryAll(selector)
}
