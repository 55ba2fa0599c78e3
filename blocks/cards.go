package blocks

import (
	"github.com/pigmentlabs/pigment"
	"github.com/pigmentlabs/pigment/pkg/atoms"
	"github.com/pigmentlabs/pigment/pkg/dom"
	"github.com/pigmentlabs/pigment/pkg/markup"
)

// Cards rebuilds a list block into a card grid. Each authored li (or
// direct child div, for list-less markup) becomes one card; its first
// image moves into a lazily loaded media wrapper, its first heading
// becomes the card title, and its first paragraph the card body.
func Cards(app *pigment.App, block *dom.Element) error {
	items := block.QueryAll("li")
	if len(items) == 0 {
		items = block.Children()
	}

	var cards []string
	for _, item := range items {
		var parts []string
		if img := item.Query("img"); img != nil {
			parts = append(parts, atoms.Div(markup.Attrs{"class": "card__media"},
				atoms.Image(img.Attr("src"), img.Attr("alt"), markup.Attrs{"loading": "lazy"}),
			))
		}

		var body []string
		if title := queryFirst(item, "h2", "h3", "h4"); title != nil {
			body = append(body, atoms.Heading(3, title.TextContent(), markup.Attrs{"class": "card__title"}))
		}
		if text := item.Query("p"); text != nil {
			body = append(body, atoms.Text(text.TextContent(), markup.Attrs{"class": "card__text"}))
		}
		parts = append(parts, atoms.Div(markup.Attrs{"class": "card__body"}, body...))

		cards = append(cards, atoms.Div(markup.Attrs{"class": "card"}, parts...))
	}

	return block.SetInnerHTML(atoms.Grid(markup.Attrs{"class": "cards__list"}, cards...))
}

// queryFirst returns the first descendant matching any of the selectors,
// tried in order.
func queryFirst(el *dom.Element, selectors ...string) *dom.Element {
	for _, sel := range selectors {
		if found := el.Query(sel); found != nil {
			return found
		}
	}
	return nil
}
