package dom

import (
	"fmt"
	"strings"
)

// Selector is a parsed selector list. Supported syntax is compound simple
// selectors (tag, *, #id, .class, [attr], [attr=value]) joined by
// descendant combinators, with comma-separated alternatives. That covers
// every selector the delegation layer registers; combinators beyond
// descendant are not recognized.
type Selector struct {
	source       string
	alternatives []complexSel
}

// complexSel is a descendant chain in source order. Matching proceeds
// right to left, scanning ancestors for each earlier compound.
type complexSel []compound

type compound struct {
	tag     string
	id      string
	classes []string
	attrs   []attrMatch
}

type attrMatch struct {
	name     string
	value    string
	hasValue bool
}

// ParseSelector parses a selector list.
func ParseSelector(source string) (*Selector, error) {
	s := &selScanner{src: source}
	sel := &Selector{source: source}

	for {
		complex, err := s.scanComplex()
		if err != nil {
			return nil, fmt.Errorf("selector %q: %w", source, err)
		}
		if len(complex) == 0 {
			return nil, fmt.Errorf("selector %q: empty selector", source)
		}
		sel.alternatives = append(sel.alternatives, complex)

		s.skipSpace()
		if s.eof() {
			return sel, nil
		}
		if !s.consume(',') {
			return nil, fmt.Errorf("selector %q: unexpected %q", source, s.peek())
		}
	}
}

// String returns the source text the selector was parsed from.
func (s *Selector) String() string { return s.source }

// Matches reports whether el matches any alternative.
func (s *Selector) Matches(el *Element) bool {
	for _, alt := range s.alternatives {
		if alt.matches(el) {
			return true
		}
	}
	return false
}

// Closest returns the nearest ancestor-or-self of el matching the
// selector, or nil.
func (s *Selector) Closest(el *Element) *Element {
	for cur := el; cur != nil; cur = cur.Parent() {
		if s.Matches(cur) {
			return cur
		}
	}
	return nil
}

func (c complexSel) matches(el *Element) bool {
	if !c[len(c)-1].matches(el) {
		return false
	}
	cur := el.Parent()
	for i := len(c) - 2; i >= 0; i-- {
		for cur != nil && !c[i].matches(cur) {
			cur = cur.Parent()
		}
		if cur == nil {
			return false
		}
		cur = cur.Parent()
	}
	return true
}

func (c *compound) matches(el *Element) bool {
	if c.tag != "" && c.tag != "*" && c.tag != el.Tag() {
		return false
	}
	if c.id != "" && el.Attr("id") != c.id {
		return false
	}
	for _, class := range c.classes {
		if !el.HasClass(class) {
			return false
		}
	}
	for _, a := range c.attrs {
		if !el.HasAttr(a.name) {
			return false
		}
		if a.hasValue && el.Attr(a.name) != a.value {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// Element conveniences
//
// The string forms parse on every call and treat an invalid selector as
// matching nothing. Hold a parsed *Selector for hot paths.
// ---------------------------------------------------------------------------

// Matches reports whether the element matches the selector.
func (e *Element) Matches(selector string) bool {
	sel, err := ParseSelector(selector)
	if err != nil {
		return false
	}
	return sel.Matches(e)
}

// Closest returns the nearest ancestor-or-self matching the selector.
func (e *Element) Closest(selector string) *Element {
	sel, err := ParseSelector(selector)
	if err != nil {
		return nil
	}
	return sel.Closest(e)
}

// Query returns the first descendant matching the selector, or nil. The
// element itself is never considered.
func (e *Element) Query(selector string) *Element {
	sel, err := ParseSelector(selector)
	if err != nil {
		return nil
	}
	var found *Element
	var walk func(*Element) bool
	walk = func(el *Element) bool {
		for _, child := range el.Children() {
			if sel.Matches(child) {
				found = child
				return true
			}
			if walk(child) {
				return true
			}
		}
		return false
	}
	walk(e)
	return found
}

// QueryAll returns all descendants matching the selector in document
// order.
func (e *Element) QueryAll(selector string) []*Element {
	sel, err := ParseSelector(selector)
	if err != nil {
		return nil
	}
	var out []*Element
	var walk func(*Element)
	walk = func(el *Element) {
		for _, child := range el.Children() {
			if sel.Matches(child) {
				out = append(out, child)
			}
			walk(child)
		}
	}
	walk(e)
	return out
}

// ---------------------------------------------------------------------------
// Scanner
// ---------------------------------------------------------------------------

type selScanner struct {
	src string
	pos int
}

func (s *selScanner) eof() bool { return s.pos >= len(s.src) }

func (s *selScanner) peek() byte {
	if s.eof() {
		return 0
	}
	return s.src[s.pos]
}

func (s *selScanner) consume(ch byte) bool {
	if !s.eof() && s.src[s.pos] == ch {
		s.pos++
		return true
	}
	return false
}

func (s *selScanner) skipSpace() {
	for !s.eof() && (s.src[s.pos] == ' ' || s.src[s.pos] == '\t' || s.src[s.pos] == '\n') {
		s.pos++
	}
}

func isIdentByte(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' ||
		ch >= '0' && ch <= '9' || ch == '-' || ch == '_' || ch == ':'
}

func (s *selScanner) scanIdent() string {
	start := s.pos
	for !s.eof() && isIdentByte(s.src[s.pos]) {
		s.pos++
	}
	return s.src[start:s.pos]
}

// scanComplex reads compounds until a comma or end of input.
func (s *selScanner) scanComplex() (complexSel, error) {
	var chain complexSel
	for {
		s.skipSpace()
		if s.eof() || s.peek() == ',' {
			return chain, nil
		}
		c, err := s.scanCompound()
		if err != nil {
			return nil, err
		}
		chain = append(chain, c)
	}
}

func (s *selScanner) scanCompound() (compound, error) {
	var c compound

	if s.consume('*') {
		c.tag = "*"
	} else if isIdentByte(s.peek()) {
		c.tag = strings.ToLower(s.scanIdent())
	}

	for {
		switch {
		case s.consume('#'):
			id := s.scanIdent()
			if id == "" {
				return c, fmt.Errorf("missing id after #")
			}
			c.id = id
		case s.consume('.'):
			class := s.scanIdent()
			if class == "" {
				return c, fmt.Errorf("missing class after .")
			}
			c.classes = append(c.classes, class)
		case s.consume('['):
			a, err := s.scanAttrMatch()
			if err != nil {
				return c, err
			}
			c.attrs = append(c.attrs, a)
		default:
			if c.tag == "" && c.id == "" && len(c.classes) == 0 && len(c.attrs) == 0 {
				return c, fmt.Errorf("unexpected %q", s.peek())
			}
			return c, nil
		}
	}
}

func (s *selScanner) scanAttrMatch() (attrMatch, error) {
	s.skipSpace()
	name := strings.ToLower(s.scanIdent())
	if name == "" {
		return attrMatch{}, fmt.Errorf("missing attribute name")
	}
	a := attrMatch{name: name}

	s.skipSpace()
	if s.consume('=') {
		a.hasValue = true
		s.skipSpace()
		switch {
		case s.consume('"'):
			a.value = s.scanUntil('"')
			if !s.consume('"') {
				return a, fmt.Errorf("unterminated attribute value")
			}
		case s.consume('\''):
			a.value = s.scanUntil('\'')
			if !s.consume('\'') {
				return a, fmt.Errorf("unterminated attribute value")
			}
		default:
			start := s.pos
			for !s.eof() && s.src[s.pos] != ']' {
				s.pos++
			}
			a.value = strings.TrimSpace(s.src[start:s.pos])
		}
		s.skipSpace()
	}

	if !s.consume(']') {
		return a, fmt.Errorf("missing ] in attribute selector")
	}
	return a, nil
}

func (s *selScanner) scanUntil(ch byte) string {
	start := s.pos
	for !s.eof() && s.src[s.pos] != ch {
		s.pos++
	}
	return s.src[start:s.pos]
}
