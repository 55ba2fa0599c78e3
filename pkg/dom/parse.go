package dom

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseDocument parses a complete HTML document. The parser normalizes
// the tree the way browsers do, so a missing html/head/body skeleton is
// supplied.
func ParseDocument(r io.Reader) (*Document, error) {
	parsed, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	doc := &Document{}
	for c := parsed.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.DoctypeNode:
			doc.doctype = c.Data
		case html.ElementNode:
			root := convertElement(c)
			root.adopt(doc)
			doc.root = root
		}
	}
	if doc.root == nil {
		root := NewElement("html")
		root.adopt(doc)
		doc.root = root
	}
	return doc, nil
}

// ParseDocumentString parses a complete HTML document from a string.
func ParseDocumentString(s string) (*Document, error) {
	return ParseDocument(strings.NewReader(s))
}

// SetInnerHTML parses markup as a fragment in this element's context and
// replaces all children with the result. This is the runtime's only
// rendering primitive: a full replacement, never a merge.
func (e *Element) SetInnerHTML(markup string) error {
	ctx := &html.Node{
		Type:     html.ElementNode,
		Data:     e.tag,
		DataAtom: atom.Lookup([]byte(e.tag)),
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return err
	}

	children := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if converted := convertNode(n); converted != nil {
			children = append(children, converted)
		}
	}
	e.ReplaceChildren(children...)
	return nil
}

// convertNode maps a parsed node into the dom tree. Comments and other
// non-content nodes convert to nil.
func convertNode(n *html.Node) Node {
	switch n.Type {
	case html.ElementNode:
		return convertElement(n)
	case html.TextNode:
		return NewText(n.Data)
	default:
		return nil
	}
}

func convertElement(n *html.Node) *Element {
	el := NewElement(n.Data)
	for _, a := range n.Attr {
		el.SetAttr(a.Key, a.Val)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if child := convertNode(c); child != nil {
			el.AppendChild(child)
		}
	}
	return el
}
