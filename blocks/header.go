package blocks

import (
	"github.com/pigmentlabs/pigment"
	"github.com/pigmentlabs/pigment/pkg/atoms"
	"github.com/pigmentlabs/pigment/pkg/component"
	"github.com/pigmentlabs/pigment/pkg/dom"
	"github.com/pigmentlabs/pigment/pkg/markup"
)

// Header rebuilds the block into the site header and mounts the nav
// component on it. The first authored link becomes the brand; list
// links become the nav items.
func Header(app *pigment.App, block *dom.Element) error {
	brandLabel, brandHref := "Pigment", "/"
	if brand := block.Query("a"); brand != nil {
		if label := brand.TextContent(); label != "" {
			brandLabel = label
		}
		if href := brand.Attr("href"); href != "" {
			brandHref = href
		}
	}

	links := navLinks(block)

	app.Define("site-header", headerDef{})
	_, err := app.Mount("site-header", block, component.State{
		"brand":     brandLabel,
		"brandHref": brandHref,
		"links":     links,
	})
	return err
}

// navLinks collects authored list links as JSON-shaped maps.
func navLinks(block *dom.Element) []any {
	var links []any
	for _, a := range block.QueryAll("li a") {
		links = append(links, map[string]any{
			"href":  a.Attr("href"),
			"label": a.TextContent(),
		})
	}
	return links
}

// headerDef is the site header component: brand, nav links, and a
// toggle that opens the nav on small screens. Escape closes the open
// nav while focus is inside the header.
type headerDef struct{}

func (headerDef) DefaultState() component.State {
	return component.State{"open": false}
}

func (headerDef) Render(c *component.Instance) string {
	open, _ := c.State()["open"].(bool)
	props := c.Props()
	brand, _ := props["brand"].(string)
	brandHref, _ := props["brandHref"].(string)
	links, _ := props["links"].([]any)

	var items []string
	for _, raw := range links {
		link, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		href, _ := link["href"].(string)
		label, _ := link["label"].(string)
		items = append(items, atoms.Tag("li", nil, atoms.Link(href, label)))
	}

	navClass := "header__nav"
	if open {
		navClass = markup.Classes(navClass, "header__nav--open")
	}

	return atoms.Link(brandHref, brand, markup.Attrs{"class": "header__brand"}) +
		atoms.Tag("button", markup.Attrs{
			"class":         "header__toggle",
			"type":          "button",
			"aria-expanded": open,
			"aria-controls": "site-nav",
			"aria-label":    "Toggle navigation",
		}, atoms.Icon("menu")) +
		atoms.Tag("nav", markup.Attrs{"id": "site-nav", "class": navClass},
			atoms.Tag("ul", markup.Attrs{"class": "header__links"}, items...),
		)
}

func (headerDef) Mounted(c *component.Instance) {
	c.OnActivate(".header__toggle", func(_ *dom.Event, _ *dom.Element) {
		open, _ := c.State()["open"].(bool)
		c.SetState(component.State{"open": !open})
	})
	c.On("keydown", "*", func(ev *dom.Event, _ *dom.Element) {
		if ev.Key != "Escape" {
			return
		}
		if open, _ := c.State()["open"].(bool); open {
			c.SetState(component.State{"open": false})
		}
	})
}
