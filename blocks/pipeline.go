package blocks

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/pigmentlabs/pigment"
	"github.com/pigmentlabs/pigment/pkg/dom"
)

// DefaultDelay is how long after load the delayed phase runs.
const DefaultDelay = 3 * time.Second

// DelayedEvent is dispatched from the body once the delayed phase runs.
// Analytics and other non-critical glue should key off it instead of
// doing work during load.
const DelayedEvent = "pigment:page-delayed"

// Block and section status attribute values, readable from CSS.
const (
	StatusLoading = "loading"
	StatusLoaded  = "loaded"
	StatusError   = "error"
)

const (
	blockStatusAttr   = "data-block-status"
	sectionStatusAttr = "data-section-status"
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDelay sets the wait before the delayed phase. Zero or negative
// runs it synchronously during LoadPage.
func WithDelay(d time.Duration) Option {
	return func(p *Pipeline) { p.delay = d }
}

// WithLogger sets the pipeline's logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// Pipeline runs the page load phases against a document: decorate the
// template, decorate and load the first section's blocks eagerly, the
// remaining sections lazily, then schedule the delayed phase.
type Pipeline struct {
	registry *Registry
	delay    time.Duration
	logger   *slog.Logger

	mu    sync.Mutex
	timer *time.Timer
}

// New creates a pipeline over the given block registry.
func New(registry *Registry, opts ...Option) *Pipeline {
	p := &Pipeline{
		registry: registry,
		delay:    DefaultDelay,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// LoadPage decorates doc and loads its blocks. A nil doc uses the app's
// document. Decorator failures are logged and marked on the block; they
// do not stop the page. The delayed phase fires from a timer goroutine
// unless the delay is zero or negative.
func (p *Pipeline) LoadPage(app *pigment.App, doc *dom.Document) error {
	if doc == nil {
		doc = app.Document()
	}
	body := doc.Body()
	if body == nil {
		return errors.New("document has no body")
	}

	body.AddClass("pigment-site")

	main := body.Query("main")
	if main == nil {
		body.AddClass("appear")
		return nil
	}

	sections := decorateMain(main)

	if len(sections) > 0 {
		p.loadSection(app, sections[0])
	}
	body.AddClass("appear")

	for _, section := range sections[1:] {
		p.loadSection(app, section)
	}

	p.scheduleDelayed(body)
	return nil
}

// UnloadPage tears a loaded page down for navigation: the pending
// delayed phase is cancelled and every component under the body is
// destroyed. Decorated markup stays in place; the next page replaces
// it.
func (p *Pipeline) UnloadPage(app *pigment.App, doc *dom.Document) {
	p.mu.Lock()
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.mu.Unlock()

	if doc == nil {
		doc = app.Document()
	}
	body := doc.Body()
	if body == nil {
		return
	}
	app.UnmountAll(body)
	body.RemoveClass("appear")
}

// decorateMain marks the main element's direct div children as sections.
// A main authored without section wrappers, with blocks sitting directly
// under it, is treated as one section.
func decorateMain(main *dom.Element) []*dom.Element {
	children := main.Children()
	for _, child := range children {
		if child.Tag() == "div" && child.HasAttr(BlockAttr) {
			main.SetAttr(sectionStatusAttr, StatusLoading)
			return []*dom.Element{main}
		}
	}

	var sections []*dom.Element
	for _, child := range children {
		if child.Tag() != "div" {
			continue
		}
		child.AddClass("section")
		child.SetAttr(sectionStatusAttr, StatusLoading)
		sections = append(sections, child)
	}
	if sections == nil && main.Query("["+BlockAttr+"]") != nil {
		main.SetAttr(sectionStatusAttr, StatusLoading)
		sections = append(sections, main)
	}
	return sections
}

func (p *Pipeline) loadSection(app *pigment.App, section *dom.Element) {
	for _, block := range section.QueryAll("[" + BlockAttr + "]") {
		p.loadBlock(app, block)
	}
	app.MountAll(section)
	section.SetAttr(sectionStatusAttr, StatusLoaded)
}

func (p *Pipeline) loadBlock(app *pigment.App, block *dom.Element) {
	name := block.Attr(BlockAttr)
	block.AddClass(name, "block")
	block.SetAttr(blockStatusAttr, StatusLoading)

	fn, ok := p.registry.Decorator(name)
	if !ok {
		p.logger.Debug("no decorator registered", "block", name)
		block.SetAttr(blockStatusAttr, StatusLoaded)
		return
	}
	if err := fn(app, block); err != nil {
		p.logger.Error("decorating block failed", "block", name, "error", err)
		block.SetAttr(blockStatusAttr, StatusError)
		return
	}
	block.SetAttr(blockStatusAttr, StatusLoaded)
}

// scheduleDelayed arms the delayed phase. A second LoadPage before it
// fires pushes it out.
func (p *Pipeline) scheduleDelayed(body *dom.Element) {
	fire := func() {
		body.Dispatch(dom.NewEvent(DelayedEvent, dom.EventInit{Bubbles: true}))
	}

	if p.delay <= 0 {
		fire()
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.AfterFunc(p.delay, fire)
}
