package dom

import "testing"

func TestAppendChildMovesNode(t *testing.T) {
	doc := NewDocument()
	a := doc.CreateElement("div")
	b := doc.CreateElement("div")
	child := doc.CreateElement("span")

	a.AppendChild(child)
	if child.Parent() != a {
		t.Fatalf("child.Parent() = %v, want a", child.Parent())
	}

	b.AppendChild(child)
	if child.Parent() != b {
		t.Errorf("child.Parent() = %v, want b after move", child.Parent())
	}
	if len(a.Children()) != 0 {
		t.Errorf("a still has %d children after move, want 0", len(a.Children()))
	}
}

func TestInsertBefore(t *testing.T) {
	doc := NewDocument()
	parent := doc.CreateElement("ul")
	first := doc.CreateElement("li")
	second := doc.CreateElement("li")
	parent.AppendChild(first)
	parent.AppendChild(second)

	inserted := doc.CreateElement("li")
	inserted.SetAttr("id", "mid")
	parent.InsertBefore(inserted, second)

	children := parent.Children()
	if len(children) != 3 {
		t.Fatalf("got %d children, want 3", len(children))
	}
	if children[1].Attr("id") != "mid" {
		t.Errorf("children[1] id = %q, want %q", children[1].Attr("id"), "mid")
	}
}

func TestReplaceChildren(t *testing.T) {
	doc := NewDocument()
	parent := doc.CreateElement("div")
	old := doc.CreateElement("span")
	parent.AppendChild(old)

	next := doc.CreateElement("p")
	parent.ReplaceChildren(next, doc.CreateText("tail"))

	if old.Parent() != nil {
		t.Errorf("old child still has parent %v after replacement", old.Parent())
	}
	nodes := parent.ChildNodes()
	if len(nodes) != 2 {
		t.Fatalf("got %d child nodes, want 2", len(nodes))
	}
	if nodes[0] != next {
		t.Errorf("first child = %v, want replacement element", nodes[0])
	}
}

func TestAttrs(t *testing.T) {
	el := NewElement("div")

	if el.HasAttr("id") {
		t.Error("HasAttr(id) = true on fresh element")
	}
	el.SetAttr("ID", "hero")
	if got := el.Attr("id"); got != "hero" {
		t.Errorf("Attr(id) = %q, want %q", got, "hero")
	}
	el.SetAttr("id", "hero2")
	if got := el.Attr("id"); got != "hero2" {
		t.Errorf("Attr(id) after overwrite = %q, want %q", got, "hero2")
	}
	if got := len(el.Attrs()); got != 1 {
		t.Errorf("len(Attrs()) = %d, want 1 after overwrite", got)
	}
	el.RemoveAttr("id")
	if el.HasAttr("id") {
		t.Error("HasAttr(id) = true after RemoveAttr")
	}
}

func TestClassHelpers(t *testing.T) {
	el := NewElement("div")
	el.SetAttr("class", "swatch is-active")

	if !el.HasClass("swatch") {
		t.Error("HasClass(swatch) = false")
	}
	if el.HasClass("swat") {
		t.Error("HasClass(swat) matched a prefix")
	}

	el.AddClass("is-active", "selected")
	if got := el.Attr("class"); got != "swatch is-active selected" {
		t.Errorf("class after AddClass = %q", got)
	}

	el.RemoveClass("is-active")
	if got := el.Attr("class"); got != "swatch selected" {
		t.Errorf("class after RemoveClass = %q", got)
	}

	el.RemoveClass("swatch", "selected")
	if el.HasAttr("class") {
		t.Errorf("class attribute still present after removing all names: %q", el.Attr("class"))
	}
}

func TestIsConnected(t *testing.T) {
	doc := NewDocument()
	el := doc.CreateElement("div")

	if el.IsConnected() {
		t.Error("detached element reports connected")
	}

	doc.Body().AppendChild(el)
	if !el.IsConnected() {
		t.Error("attached element reports disconnected")
	}

	el.Remove()
	if el.IsConnected() {
		t.Error("removed element reports connected")
	}
}

func TestBindingSlot(t *testing.T) {
	el := NewElement("div")
	if el.Binding() != nil {
		t.Error("fresh element has non-nil binding")
	}

	el.Bind("instance")
	if got := el.Binding(); got != "instance" {
		t.Errorf("Binding() = %v, want %q", got, "instance")
	}

	el.Unbind()
	if el.Binding() != nil {
		t.Error("binding survives Unbind")
	}
}

func TestTextContent(t *testing.T) {
	doc := NewDocument()
	el := doc.CreateElement("p")
	el.AppendChild(doc.CreateText("Hello "))
	strong := doc.CreateElement("strong")
	strong.AppendChild(doc.CreateText("world"))
	el.AppendChild(strong)

	if got := el.TextContent(); got != "Hello world" {
		t.Errorf("TextContent() = %q, want %q", got, "Hello world")
	}

	el.SetTextContent("replaced")
	if got := el.TextContent(); got != "replaced" {
		t.Errorf("TextContent() after SetTextContent = %q, want %q", got, "replaced")
	}
	if got := len(el.ChildNodes()); got != 1 {
		t.Errorf("SetTextContent left %d child nodes, want 1", got)
	}
}
