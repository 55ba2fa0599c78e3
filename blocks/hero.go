package blocks

import (
	"github.com/pigmentlabs/pigment"
	"github.com/pigmentlabs/pigment/pkg/atoms"
	"github.com/pigmentlabs/pigment/pkg/dom"
	"github.com/pigmentlabs/pigment/pkg/markup"
)

// Hero rebuilds the block into a banner: the first image becomes the
// eagerly loaded media panel, the first h1 and lead paragraph become the
// content panel. A call-to-action link, when authored, is restyled as a
// button.
func Hero(app *pigment.App, block *dom.Element) error {
	var media string
	if img := block.Query("img"); img != nil {
		media = atoms.Div(markup.Attrs{"class": "hero__media"},
			atoms.Image(img.Attr("src"), img.Attr("alt"), markup.Attrs{"loading": "eager"}),
		)
	}

	var parts []string
	if h1 := block.Query("h1"); h1 != nil {
		parts = append(parts, atoms.Heading(1, h1.TextContent()))
	}
	if lead := block.Query("p"); lead != nil {
		parts = append(parts, atoms.Text(lead.TextContent(), markup.Attrs{"class": "hero__lead"}))
	}
	if cta := block.Query("a"); cta != nil {
		parts = append(parts, atoms.Link(cta.Attr("href"), cta.TextContent(),
			markup.Attrs{"class": "button hero__cta"}))
	}
	content := atoms.Div(markup.Attrs{"class": "hero__content"}, parts...)

	return block.SetInnerHTML(media + content)
}
