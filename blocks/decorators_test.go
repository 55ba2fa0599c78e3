package blocks

import (
	"fmt"
	"testing"
	"time"
)

func TestHeroWithoutImage(t *testing.T) {
	app := newTestApp(t, `<div data-block="hero"><h1>Pick a wall.</h1></div>`)
	block := app.Document().Body().Query(`[data-block="hero"]`)

	if err := Hero(app, block); err != nil {
		t.Fatalf("Hero: %v", err)
	}
	if block.Query(".hero__media") != nil {
		t.Error("media panel rendered without an image")
	}
	if h1 := block.Query(".hero__content h1"); h1 == nil || h1.TextContent() != "Pick a wall." {
		t.Error("heading missing")
	}
}

func TestCardsFallsBackToChildDivs(t *testing.T) {
	app := newTestApp(t, `<div data-block="cards">
		<div><h3>Primer</h3><p>Start clean.</p></div>
		<div><h3>Finish</h3><p>Seal it.</p></div>
	</div>`)
	block := app.Document().Body().Query(`[data-block="cards"]`)

	if err := Cards(app, block); err != nil {
		t.Fatalf("Cards: %v", err)
	}
	cards := block.QueryAll(".card")
	if len(cards) != 2 {
		t.Fatalf("rendered %d cards, want 2", len(cards))
	}
	if title := cards[0].Query(".card__title"); title == nil || title.TextContent() != "Primer" {
		t.Error("first card title missing")
	}
}

func TestHeaderToggleAndEscape(t *testing.T) {
	app := newTestApp(t, `<div data-block="header">
		<a href="/">Pigment</a>
		<ul><li><a href="/shop">Shop</a></li><li><a href="/story">Story</a></li></ul>
	</div>`)
	block := app.Document().Body().Query(`[data-block="header"]`)

	if err := Header(app, block); err != nil {
		t.Fatalf("Header: %v", err)
	}

	if brand := block.Query(".header__brand"); brand == nil || brand.TextContent() != "Pigment" {
		t.Error("brand link missing")
	}
	if links := block.QueryAll(".header__links a"); len(links) != 2 {
		t.Errorf("rendered %d nav links, want 2", len(links))
	}

	toggle := block.Query(".header__toggle")
	if toggle == nil {
		t.Fatal("toggle missing")
	}
	if got := toggle.Attr("aria-expanded"); got != "false" {
		t.Errorf("aria-expanded = %q, want false", got)
	}

	click(toggle)
	toggle = block.Query(".header__toggle")
	if got := toggle.Attr("aria-expanded"); got != "true" {
		t.Errorf("aria-expanded after toggle = %q, want true", got)
	}
	if block.Query(".header__nav--open") == nil {
		t.Error("nav did not open")
	}

	keydown(block.Query(".header__links a"), "Escape")
	toggle = block.Query(".header__toggle")
	if got := toggle.Attr("aria-expanded"); got != "false" {
		t.Errorf("aria-expanded after escape = %q, want false", got)
	}
	if block.Query(".header__nav--open") != nil {
		t.Error("escape left the nav open")
	}
}

func TestHeaderEscapeWhenClosedIsQuiet(t *testing.T) {
	app := newTestApp(t, `<div data-block="header"><a href="/">Pigment</a></div>`)
	block := app.Document().Body().Query(`[data-block="header"]`)

	if err := Header(app, block); err != nil {
		t.Fatalf("Header: %v", err)
	}

	keydown(block.Query(".header__brand"), "Escape")
	if got := block.Query(".header__toggle").Attr("aria-expanded"); got != "false" {
		t.Errorf("aria-expanded = %q, want false", got)
	}
}

func TestFooterRendersLegalYear(t *testing.T) {
	app := newTestApp(t, `<div data-block="footer">
		<ul><li><a href="/contact">Contact</a></li></ul>
	</div>`)
	block := app.Document().Body().Query(`[data-block="footer"]`)

	if err := Footer(app, block); err != nil {
		t.Fatalf("Footer: %v", err)
	}

	if link := block.Query(".footer__links a"); link == nil || link.Attr("href") != "/contact" {
		t.Error("footer nav link missing")
	}
	legal := block.Query(".footer__legal")
	if legal == nil {
		t.Fatal("legal line missing")
	}
	want := fmt.Sprintf("© %d Pigment Labs", time.Now().Year())
	if got := legal.TextContent(); got != want {
		t.Errorf("legal = %q, want %q", got, want)
	}
}
