package blocks

import (
	"reflect"
	"testing"

	"github.com/pigmentlabs/pigment"
	"github.com/pigmentlabs/pigment/pkg/dom"
	"github.com/pigmentlabs/pigment/pkg/store"
	"github.com/pigmentlabs/pigment/pkg/toast"
)

func decorateWall(t *testing.T, app *pigment.App) *dom.Element {
	t.Helper()
	block := app.Document().Body().Query(`[data-block="color-wall"]`)
	if block == nil {
		t.Fatal("no color-wall block in fixture")
	}
	if err := ColorWall(app, block); err != nil {
		t.Fatalf("ColorWall: %v", err)
	}
	return block
}

func collectToasts(app *pigment.App, into *[]map[string]any) {
	app.Bus().Handle(toast.EventName, "*", func(ev *dom.Event, _ *dom.Element) {
		if detail, ok := ev.Detail.(map[string]any); ok {
			*into = append(*into, detail)
		}
	})
}

func savedHexes(app *pigment.App) []string {
	var out []string
	for _, c := range app.Colors().Colors() {
		out = append(out, c.Hex)
	}
	return out
}

func TestColorWallRendersDefaultPalette(t *testing.T) {
	app := newTestApp(t, `<div data-block="color-wall"></div>`)
	block := decorateWall(t, app)

	swatches := block.QueryAll(".color-wall__swatch")
	if len(swatches) != len(DefaultPalette) {
		t.Fatalf("rendered %d swatches, want %d", len(swatches), len(DefaultPalette))
	}
	if got := swatches[0].Attr("data-hex"); got != DefaultPalette[0].Hex {
		t.Errorf("first swatch hex = %q, want %q", got, DefaultPalette[0].Hex)
	}
	if count := block.Query(".color-wall__count"); count == nil || count.TextContent() != "0 of 20 saved" {
		t.Error("count badge missing or wrong")
	}
	if block.Query(".swatch-tray__empty") == nil {
		t.Error("empty tray message missing")
	}
}

func TestColorWallParsesAuthoredPalette(t *testing.T) {
	app := newTestApp(t, `<div data-block="color-wall"><ul>
		<li data-hex="#101010">Charcoal</li>
		<li>#FAFAFA Chalk</li>
		<li>just words</li>
	</ul></div>`)
	block := app.Document().Body().Query(`[data-block="color-wall"]`)

	got := parseAuthoredPalette(block)
	want := []PaletteEntry{
		{Hex: "#101010", Name: "Charcoal"},
		{Hex: "#FAFAFA", Name: "Chalk"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parsed palette = %v, want %v", got, want)
	}

	if err := ColorWall(app, block); err != nil {
		t.Fatalf("ColorWall: %v", err)
	}
	if swatches := block.QueryAll(".color-wall__swatch"); len(swatches) != 2 {
		t.Errorf("rendered %d swatches, want 2", len(swatches))
	}
}

func TestColorWallSwatchClickSaves(t *testing.T) {
	app := newTestApp(t, `<div data-block="color-wall"></div>`)
	block := decorateWall(t, app)

	click(block.Query(".color-wall__swatch"))

	colors := app.Colors().Colors()
	if len(colors) != 1 {
		t.Fatalf("saved %d colors, want 1", len(colors))
	}
	if colors[0].Hex != DefaultPalette[0].Hex || colors[0].Name != DefaultPalette[0].Name {
		t.Errorf("saved %+v", colors[0])
	}

	if block.Query(".swatch-tray__item") == nil {
		t.Error("tray did not render the saved color")
	}
	if count := block.Query(".color-wall__count"); count.TextContent() != "1 of 20 saved" {
		t.Errorf("count badge = %q", count.TextContent())
	}
}

func TestColorWallDuplicateShowsToast(t *testing.T) {
	app := newTestApp(t, `<div data-block="color-wall"></div>`)
	block := decorateWall(t, app)

	var toasts []map[string]any
	collectToasts(app, &toasts)

	click(block.Query(".color-wall__swatch"))
	click(block.Query(".color-wall__swatch"))

	if got := app.Colors().Count(); got != 1 {
		t.Errorf("saved %d colors, want 1", got)
	}
	if len(toasts) != 1 {
		t.Fatalf("raised %d toasts, want 1", len(toasts))
	}
	if toasts[0]["level"] != "info" {
		t.Errorf("toast level = %v, want info", toasts[0]["level"])
	}
}

func TestColorWallFullShowsToast(t *testing.T) {
	app := newTestAppWith(t, `<div data-block="color-wall"></div>`, pigment.Config{
		Colors: pigment.ColorsConfig{MaxColors: 2},
	})
	block := decorateWall(t, app)

	var toasts []map[string]any
	collectToasts(app, &toasts)

	click(block.QueryAll(".color-wall__swatch")[0])
	click(block.QueryAll(".color-wall__swatch")[1])
	click(block.QueryAll(".color-wall__swatch")[2])

	if got := app.Colors().Count(); got != 2 {
		t.Errorf("saved %d colors, want 2", got)
	}
	if len(toasts) != 1 || toasts[0]["level"] != "warning" {
		t.Errorf("toasts = %v, want one warning", toasts)
	}
	if count := block.Query(".color-wall__count"); count.TextContent() != "2 of 2 saved" {
		t.Errorf("count badge = %q", count.TextContent())
	}
}

func TestColorWallRemoveAndClear(t *testing.T) {
	app := newTestApp(t, `<div data-block="color-wall"></div>`)
	block := decorateWall(t, app)

	click(block.QueryAll(".color-wall__swatch")[0])
	click(block.QueryAll(".color-wall__swatch")[1])

	click(block.Query(`[data-action="remove"]`))
	if got := savedHexes(app); !reflect.DeepEqual(got, []string{DefaultPalette[1].Hex}) {
		t.Errorf("after remove: %v", got)
	}

	click(block.QueryAll(".color-wall__swatch")[2])
	click(block.Query(`[data-action="clear"]`))
	if got := app.Colors().Count(); got != 0 {
		t.Errorf("after clear: %d colors", got)
	}
	if block.Query(".swatch-tray__empty") == nil {
		t.Error("empty tray message missing after clear")
	}
}

func TestColorWallReorderButtons(t *testing.T) {
	app := newTestApp(t, `<div data-block="color-wall"></div>`)
	block := decorateWall(t, app)

	app.Colors().AddColor(store.Color{Hex: "#111111"})
	app.Colors().AddColor(store.Color{Hex: "#222222"})
	app.Colors().AddColor(store.Color{Hex: "#333333"})

	click(block.QueryAll(`[data-action="move-up"]`)[2])
	if got := savedHexes(app); !reflect.DeepEqual(got, []string{"#111111", "#333333", "#222222"}) {
		t.Errorf("after move-up: %v", got)
	}

	click(block.QueryAll(`[data-action="move-down"]`)[0])
	if got := savedHexes(app); !reflect.DeepEqual(got, []string{"#333333", "#111111", "#222222"}) {
		t.Errorf("after move-down: %v", got)
	}

	// The first item's move-up is disabled; its handler must hold still.
	click(block.QueryAll(`[data-action="move-up"]`)[0])
	if got := savedHexes(app); !reflect.DeepEqual(got, []string{"#333333", "#111111", "#222222"}) {
		t.Errorf("boundary move changed order: %v", got)
	}
}

func TestColorWallWithFixedPalette(t *testing.T) {
	app := newTestApp(t, `<div data-block="color-wall"><ul><li data-hex="#000000">Void</li></ul></div>`)
	block := app.Document().Body().Query(`[data-block="color-wall"]`)

	fixed := []PaletteEntry{{Hex: "#ABCDEF", Name: "Sky"}}
	if err := ColorWallWith(fixed)(app, block); err != nil {
		t.Fatalf("ColorWallWith: %v", err)
	}

	swatches := block.QueryAll(".color-wall__swatch")
	if len(swatches) != 1 {
		t.Fatalf("rendered %d swatches, want 1", len(swatches))
	}
	if got := swatches[0].Attr("data-hex"); got != "#ABCDEF" {
		t.Errorf("swatch hex = %q, authored palette should be ignored", got)
	}
}
