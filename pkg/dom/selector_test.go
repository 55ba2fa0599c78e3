package dom

import "testing"

// buildTree parses a small page used across the selector tests.
func buildTree(t *testing.T) *Document {
	t.Helper()
	doc, err := ParseDocumentString(`<!DOCTYPE html>
<html><body>
  <section class="hero" id="top">
    <div class="card featured" data-index="0">
      <a href="/red" class="card__link">Red</a>
    </div>
    <div class="card" data-index="1">
      <a href="/blue" class="card__link">Blue</a>
    </div>
  </section>
  <footer><a href="/about">About</a></footer>
</body></html>`)
	if err != nil {
		t.Fatalf("ParseDocumentString: %v", err)
	}
	return doc
}

func TestMatches(t *testing.T) {
	doc := buildTree(t)
	featured := doc.Query(".featured")
	if featured == nil {
		t.Fatal("fixture missing .featured")
	}

	tests := []struct {
		selector string
		want     bool
	}{
		{"div", true},
		{"span", false},
		{"*", true},
		{".card", true},
		{".card.featured", true},
		{".card.missing", false},
		{"#top .card", true},
		{"section .featured", true},
		{"footer .card", false},
		{"[data-index]", true},
		{`[data-index="0"]`, true},
		{`[data-index="1"]`, false},
		{"div[data-index='0']", true},
		{"span, .featured", true},
		{"span, .missing", false},
	}

	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			if got := featured.Matches(tt.selector); got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.selector, got, tt.want)
			}
		})
	}
}

func TestClosest(t *testing.T) {
	doc := buildTree(t)
	link := doc.Query(".featured .card__link")
	if link == nil {
		t.Fatal("fixture missing featured link")
	}

	if got := link.Closest(".card"); got == nil || !got.HasClass("featured") {
		t.Errorf("Closest(.card) = %v, want the featured card", got)
	}
	if got := link.Closest("a"); got != link {
		t.Errorf("Closest(a) = %v, want self", got)
	}
	if got := link.Closest(".missing"); got != nil {
		t.Errorf("Closest(.missing) = %v, want nil", got)
	}
}

func TestQueryAll(t *testing.T) {
	doc := buildTree(t)

	cards := doc.QueryAll(".card")
	if len(cards) != 2 {
		t.Fatalf("QueryAll(.card) returned %d, want 2", len(cards))
	}
	if cards[0].Attr("data-index") != "0" || cards[1].Attr("data-index") != "1" {
		t.Error("QueryAll results out of document order")
	}

	links := doc.QueryAll("section a, footer a")
	if len(links) != 3 {
		t.Errorf("QueryAll over comma list returned %d, want 3", len(links))
	}

	section := doc.Query("section")
	if section.Query("footer a") != nil {
		t.Error("scoped Query escaped its subtree")
	}
}

func TestQueryExcludesSelf(t *testing.T) {
	doc := buildTree(t)
	section := doc.Query("section.hero")
	if section == nil {
		t.Fatal("fixture missing section.hero")
	}
	if got := section.Query(".hero"); got != nil {
		t.Errorf("Query matched the scope element itself: %v", got)
	}
}

func TestParseSelectorErrors(t *testing.T) {
	for _, selector := range []string{"", "  ", ".", "#", "[", "[data-x", "..a", "a >> b", `[x="unterminated]`} {
		if _, err := ParseSelector(selector); err == nil {
			t.Errorf("ParseSelector(%q) succeeded, want error", selector)
		}
	}
}

func TestInvalidSelectorMatchesNothing(t *testing.T) {
	doc := buildTree(t)
	el := doc.Query(".card")

	if el.Matches("..broken") {
		t.Error("Matches on invalid selector returned true")
	}
	if el.Closest("..broken") != nil {
		t.Error("Closest on invalid selector returned a node")
	}
	if got := doc.QueryAll("..broken"); got != nil {
		t.Errorf("QueryAll on invalid selector returned %d nodes", len(got))
	}
}
