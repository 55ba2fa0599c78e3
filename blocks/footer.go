package blocks

import (
	"fmt"
	"time"

	"github.com/pigmentlabs/pigment"
	"github.com/pigmentlabs/pigment/pkg/atoms"
	"github.com/pigmentlabs/pigment/pkg/dom"
	"github.com/pigmentlabs/pigment/pkg/markup"
)

// Footer rebuilds the block into the site footer: authored list links
// in a nav, then the legal line with the current year.
func Footer(app *pigment.App, block *dom.Element) error {
	var items []string
	for _, raw := range navLinks(block) {
		link, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		href, _ := link["href"].(string)
		label, _ := link["label"].(string)
		items = append(items, atoms.Tag("li", nil, atoms.Link(href, label)))
	}

	var nav string
	if len(items) > 0 {
		nav = atoms.Tag("nav", markup.Attrs{"class": "footer__nav"},
			atoms.Tag("ul", markup.Attrs{"class": "footer__links"}, items...),
		)
	}

	legal := atoms.Text(
		fmt.Sprintf("© %d Pigment Labs", time.Now().Year()),
		markup.Attrs{"class": "footer__legal"},
	)

	return block.SetInnerHTML(atoms.Div(markup.Attrs{"class": "footer__inner"}, nav, legal))
}
