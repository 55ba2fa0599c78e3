package blocks

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pigmentlabs/pigment"
	"github.com/pigmentlabs/pigment/pkg/atoms"
	"github.com/pigmentlabs/pigment/pkg/component"
	"github.com/pigmentlabs/pigment/pkg/dom"
	"github.com/pigmentlabs/pigment/pkg/markup"
	"github.com/pigmentlabs/pigment/pkg/store"
	"github.com/pigmentlabs/pigment/pkg/toast"
)

// PaletteEntry is one color in the brand palette.
type PaletteEntry struct {
	Hex  string `json:"hex" yaml:"hex"`
	Name string `json:"name" yaml:"name"`
}

// DefaultPalette is the brand palette the color wall falls back to when
// the page does not author its own.
var DefaultPalette = []PaletteEntry{
	{Hex: "#C8553D", Name: "Terracotta"},
	{Hex: "#588B8B", Name: "Juniper"},
	{Hex: "#F28F3B", Name: "Marigold"},
	{Hex: "#FFD5C2", Name: "Shell"},
	{Hex: "#2D3047", Name: "Ink"},
}

// ColorWall rebuilds the block into the palette wall: every palette
// color as a swatch button, plus the saved-colors tray. The palette
// comes from authored list items (data-hex, or "#RRGGBB Name" text),
// falling back to DefaultPalette.
func ColorWall(app *pigment.App, block *dom.Element) error {
	return decorateColorWall(app, block, parseAuthoredPalette(block))
}

// ColorWallWith returns a color wall decorator bound to a fixed
// palette, ignoring authored content. The preview server uses it to
// feed the configured palette in.
func ColorWallWith(palette []PaletteEntry) DecorateFunc {
	return func(app *pigment.App, block *dom.Element) error {
		return decorateColorWall(app, block, palette)
	}
}

func decorateColorWall(app *pigment.App, block *dom.Element, palette []PaletteEntry) error {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	app.Define("color-wall", &wallDef{colors: app.Colors()})
	_, err := app.Mount("color-wall", block, component.State{"palette": rawPalette(palette)})
	return err
}

// parseAuthoredPalette reads palette entries from the block's list
// items. An item names its color with a data-hex attribute, or leads
// its text with the hex code.
func parseAuthoredPalette(block *dom.Element) []PaletteEntry {
	var palette []PaletteEntry
	for _, li := range block.QueryAll("li") {
		hex := li.Attr("data-hex")
		name := strings.TrimSpace(li.TextContent())
		if hex == "" {
			fields := strings.Fields(name)
			if len(fields) > 0 && strings.HasPrefix(fields[0], "#") {
				hex = fields[0]
				name = strings.Join(fields[1:], " ")
			}
		}
		if hex == "" {
			continue
		}
		palette = append(palette, PaletteEntry{Hex: hex, Name: name})
	}
	return palette
}

func rawPalette(palette []PaletteEntry) []any {
	out := make([]any, 0, len(palette))
	for _, entry := range palette {
		out = append(out, map[string]any{"hex": entry.Hex, "name": entry.Name})
	}
	return out
}

// wallDef is the color wall component. The palette arrives as props;
// the saved collection is mirrored from the colors store into state, so
// every mutation re-renders the grid and tray together.
type wallDef struct {
	colors *store.ColorsStore
}

func (d *wallDef) DefaultState() component.State {
	return component.State{"colors": []any{}}
}

func (d *wallDef) Render(c *component.Instance) string {
	palette, _ := c.Props()["palette"].([]any)
	saved, _ := c.State()["colors"].([]any)

	var swatches []string
	for _, raw := range palette {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		hex, _ := entry["hex"].(string)
		name, _ := entry["name"].(string)
		label := name
		if label == "" {
			label = hex
		}
		swatches = append(swatches, atoms.Tag("button", markup.Attrs{
			"class":      "color-wall__swatch",
			"type":       "button",
			"aria-label": "Save " + label,
			"data":       map[string]any{"hex": hex, "name": name},
		}, atoms.Swatch(hex, name)))
	}

	var tray []string
	tray = append(tray, atoms.Tag("header", markup.Attrs{"class": "swatch-tray__head"},
		atoms.Tag("span", markup.Attrs{"class": "color-wall__count"},
			markup.EscapeHTML(fmt.Sprintf("%d of %d saved", len(saved), d.colors.MaxColors()))),
		d.clearButton(len(saved)),
	))
	if len(saved) == 0 {
		tray = append(tray, atoms.Text("Tap a swatch to start your palette.",
			markup.Attrs{"class": "swatch-tray__empty"}))
	} else {
		var items []string
		for i, raw := range saved {
			entry, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			items = append(items, d.trayItem(i, len(saved), entry))
		}
		tray = append(tray, atoms.Tag("ul", markup.Attrs{"class": "swatch-tray__list"}, items...))
	}

	return atoms.Grid(markup.Attrs{"class": "color-wall__grid"}, swatches...) +
		atoms.Section(markup.Attrs{"class": "swatch-tray"}, tray...)
}

func (d *wallDef) clearButton(count int) string {
	if count == 0 {
		return ""
	}
	return atoms.Tag("button", markup.Attrs{
		"class": "swatch-tray__clear",
		"type":  "button",
		"data":  map[string]any{"action": "clear"},
	}, markup.EscapeHTML("Clear all"))
}

func (d *wallDef) trayItem(i, n int, entry map[string]any) string {
	id, _ := entry["id"].(string)
	hex, _ := entry["hex"].(string)
	name, _ := entry["name"].(string)
	label := name
	if label == "" {
		label = hex
	}

	control := func(action, icon, describe string, disabled bool) string {
		return atoms.Tag("button", markup.Attrs{
			"class":      "swatch-tray__btn",
			"type":       "button",
			"aria-label": describe,
			"disabled":   disabled,
			"data":       map[string]any{"action": action, "index": i, "id": id},
		}, atoms.Icon(icon))
	}

	return atoms.Tag("li", markup.Attrs{"class": "swatch-tray__item"},
		atoms.Swatch(hex, name),
		atoms.Tag("span", markup.Attrs{"class": "swatch-tray__controls"},
			control("move-up", "arrow-up", "Move "+label+" earlier", i == 0),
			control("move-down", "arrow-down", "Move "+label+" later", i == n-1),
			control("remove", "close", "Remove "+label, false),
		),
	)
}

func (d *wallDef) Mounted(c *component.Instance) {
	c.SubscribeTo(d.colors, func(state map[string]any) {
		list, _ := state["colors"].([]any)
		c.SetState(component.State{"colors": list})
	})

	c.OnActivate(".color-wall__swatch", func(_ *dom.Event, match *dom.Element) {
		res := d.colors.AddColor(store.Color{
			Hex:  match.Attr("data-hex"),
			Name: match.Attr("data-name"),
		})
		if res.Success {
			return
		}
		switch res.Reason {
		case store.ReasonDuplicate:
			toast.Info(c, "That color is already saved.")
		case store.ReasonFull:
			toast.Warning(c, fmt.Sprintf("Your palette holds %d colors. Remove one to add more.", d.colors.MaxColors()))
		}
	})

	c.OnActivate(`[data-action="remove"]`, func(_ *dom.Event, match *dom.Element) {
		d.colors.RemoveColor(match.Attr("data-id"))
	})

	c.OnActivate(`[data-action="move-up"]`, func(_ *dom.Event, match *dom.Element) {
		if i, err := strconv.Atoi(match.Attr("data-index")); err == nil && i > 0 {
			d.colors.Reorder(i, i-1)
		}
	})

	c.OnActivate(`[data-action="move-down"]`, func(_ *dom.Event, match *dom.Element) {
		if i, err := strconv.Atoi(match.Attr("data-index")); err == nil && i < d.colors.Count()-1 {
			d.colors.Reorder(i, i+1)
		}
	})

	c.OnActivate(`[data-action="clear"]`, func(_ *dom.Event, _ *dom.Element) {
		d.colors.ClearColors()
	})
}
