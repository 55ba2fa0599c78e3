package pigment

import (
	"context"
	"testing"
	"time"

	"github.com/pigmentlabs/pigment/pkg/component"
	"github.com/pigmentlabs/pigment/pkg/storage"
	"github.com/pigmentlabs/pigment/pkg/store"
)

type greetingDef struct{}

func (greetingDef) DefaultState() component.State {
	return component.State{"who": "world"}
}

func (greetingDef) Render(c *component.Instance) string {
	who, _ := c.State()["who"].(string)
	return "<p>Hello, " + EscapeHTML(who) + "</p>"
}

func TestNewAppliesDefaults(t *testing.T) {
	app := New(Config{})
	defer app.Close()

	if app.Document() == nil {
		t.Fatal("expected a default document")
	}
	if app.Backend() == nil {
		t.Fatal("expected a default backend")
	}
	if app.Broker() == nil {
		t.Fatal("expected a default broker")
	}
	if app.Logger() == nil {
		t.Fatal("expected a default logger")
	}

	cfg := app.Config()
	if cfg.Colors.Key != DefaultColorsKey {
		t.Errorf("colors key = %q, want %q", cfg.Colors.Key, DefaultColorsKey)
	}
	if cfg.Colors.MaxColors != store.DefaultMaxColors {
		t.Errorf("max colors = %d, want %d", cfg.Colors.MaxColors, store.DefaultMaxColors)
	}
	if cfg.Storage.Debounce != store.DefaultDebounce {
		t.Errorf("debounce = %v, want %v", cfg.Storage.Debounce, store.DefaultDebounce)
	}
}

func TestSyncDisabled(t *testing.T) {
	app := New(Config{Sync: SyncConfig{Disabled: true}})
	defer app.Close()

	if app.Broker() != nil {
		t.Fatal("expected no broker with sync disabled")
	}

	s := app.Store("pigment:prefs", store.State{"theme": "light"})
	s.Update(store.State{"theme": "dark"})
	if got := s.Get()["theme"]; got != "dark" {
		t.Errorf("theme = %v, want dark", got)
	}
}

func TestStoreMemoizesPerKey(t *testing.T) {
	app := New(Config{})
	defer app.Close()

	a := app.Store("pigment:prefs", store.State{"theme": "light"})
	b := app.Store("pigment:prefs", store.State{"theme": "dark"})
	if a != b {
		t.Fatal("expected one store instance per key")
	}
	if got := a.Get()["theme"]; got != "light" {
		t.Errorf("theme = %v, want light from the first defaults", got)
	}

	if other := app.Store("pigment:other", nil); other == a {
		t.Error("distinct keys share a store instance")
	}
}

func TestColorsSharesStoreNamespace(t *testing.T) {
	app := New(Config{})
	defer app.Close()

	colors := app.Colors()
	if colors != app.Colors() {
		t.Fatal("expected one colors store")
	}
	if app.Store(DefaultColorsKey, nil) != colors.Store {
		t.Error("Store at the colors key should return the colors store")
	}
}

func TestColorsConfigApplied(t *testing.T) {
	app := New(Config{Colors: ColorsConfig{Key: "site:palette", MaxColors: 2}})
	defer app.Close()

	colors := app.Colors()
	if got := colors.Key(); got != "site:palette" {
		t.Errorf("key = %q, want site:palette", got)
	}

	colors.AddColor(Color{Hex: "#111111"})
	colors.AddColor(Color{Hex: "#222222"})
	res := colors.AddColor(Color{Hex: "#333333"})
	if res.Success || res.Reason != store.ReasonFull {
		t.Errorf("third add = %+v, want rejection with reason %q", res, store.ReasonFull)
	}
}

func TestFlushWritesThrough(t *testing.T) {
	backend := storage.NewMemoryBackend()
	app := New(Config{Storage: StorageConfig{Backend: backend, Debounce: time.Hour}})
	defer app.Close()

	s := app.Store("pigment:prefs", nil)
	s.Update(store.State{"theme": "dark"})

	if data, _ := backend.Load(context.Background(), "pigment:prefs"); data != nil {
		t.Fatal("persist ran before the debounce window")
	}

	app.Flush()
	data, err := backend.Load(context.Background(), "pigment:prefs")
	if err != nil {
		t.Fatalf("loading after flush: %v", err)
	}
	if data == nil {
		t.Fatal("flush did not write through")
	}
}

func TestCloseStopsStores(t *testing.T) {
	app := New(Config{Storage: StorageConfig{Debounce: time.Hour}})

	s := app.Store("pigment:prefs", store.State{"theme": "light"})
	s.Update(store.State{"theme": "dark"})

	if err := app.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := app.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	s.Update(store.State{"theme": "streaky"})
	if got := s.Get()["theme"]; got != "dark" {
		t.Errorf("update after close changed state: theme = %v", got)
	}
}

func TestMountAllScansBody(t *testing.T) {
	app := New(Config{})
	defer app.Close()

	body := app.Document().Body()
	err := body.SetInnerHTML(`<div data-component="greeting"></div><div data-component="mystery"></div>`)
	if err != nil {
		t.Fatalf("seeding body: %v", err)
	}
	app.Define("greeting", greetingDef{})

	mounted := app.MountAll(nil)
	if len(mounted) != 1 {
		t.Fatalf("mounted %d components, want 1", len(mounted))
	}

	host := body.Query(`[data-component="greeting"]`)
	if got := host.InnerHTML(); got != "<p>Hello, world</p>" {
		t.Errorf("rendered %q", got)
	}

	app.UnmountAll(nil)
	if host.Binding() != nil {
		t.Error("unmount left the instance bound")
	}
}
