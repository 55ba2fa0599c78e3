package pigment

import (
	"log/slog"
	"sync"

	"github.com/pigmentlabs/pigment/pkg/component"
	"github.com/pigmentlabs/pigment/pkg/dom"
	"github.com/pigmentlabs/pigment/pkg/events"
	"github.com/pigmentlabs/pigment/pkg/pubsub"
	"github.com/pigmentlabs/pigment/pkg/storage"
	"github.com/pigmentlabs/pigment/pkg/store"
)

// =============================================================================
// Application
// =============================================================================

// App is the root object of a Pigment runtime. It owns the document, the
// delegated event bus, the component registry, the storage backend, the
// sync broker, and one reactive store per key. There are no package-level
// singletons; everything hangs off an App, and two Apps never share state
// unless configured onto the same backend or broker.
type App struct {
	config Config
	logger *slog.Logger

	doc      *dom.Document
	bus      *events.Bus
	registry *component.Registry

	backend    storage.Backend
	ownBackend bool
	broker     *pubsub.Broker
	ownBroker  bool

	mu     sync.Mutex
	stores map[string]*store.Store
	colors *store.ColorsStore
	closed bool
}

// New creates an App from the given configuration, filling in defaults
// for anything unset: an empty document, an in-memory storage backend, a
// private sync broker, and slog.Default() for logging.
func New(cfg Config) *App {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	doc := cfg.Document
	if doc == nil {
		doc = dom.NewDocument()
	}

	backend := cfg.Storage.Backend
	ownBackend := false
	if backend == nil {
		backend = storage.NewMemoryBackend()
		ownBackend = true
	}

	if cfg.Storage.Debounce <= 0 {
		cfg.Storage.Debounce = store.DefaultDebounce
	}
	if cfg.Colors.Key == "" {
		cfg.Colors.Key = DefaultColorsKey
	}
	if cfg.Colors.MaxColors <= 0 {
		cfg.Colors.MaxColors = store.DefaultMaxColors
	}

	broker := cfg.Sync.Broker
	ownBroker := false
	if broker == nil && !cfg.Sync.Disabled {
		broker = pubsub.NewBroker()
		ownBroker = true
	}

	bus := events.New(doc, logger)

	return &App{
		config:     cfg,
		logger:     logger,
		doc:        doc,
		bus:        bus,
		registry:   component.NewRegistry(bus, logger),
		backend:    backend,
		ownBackend: ownBackend,
		broker:     broker,
		ownBroker:  ownBroker,
		stores:     make(map[string]*store.Store),
	}
}

// =============================================================================
// Components
// =============================================================================

// Define registers a component definition under name. The last
// registration for a name wins.
func (app *App) Define(name string, def any) {
	app.registry.Define(name, def)
}

// Mount instantiates the named definition on el with the given props.
func (app *App) Mount(name string, el *dom.Element, props component.State) (*component.Instance, error) {
	return app.registry.Mount(name, el, props)
}

// MountAll mounts every registered component found under root. A nil
// root scans the whole document body.
func (app *App) MountAll(root *dom.Element) []*component.Instance {
	if root == nil {
		root = app.doc.Body()
	}
	return app.registry.MountAll(root)
}

// UnmountAll destroys every live component instance under root. A nil
// root tears down the whole document body.
func (app *App) UnmountAll(root *dom.Element) {
	if root == nil {
		root = app.doc.Body()
	}
	app.registry.UnmountAll(root)
}

// =============================================================================
// Stores
// =============================================================================

// Store returns the reactive store registered under key, creating it on
// first use with defaults as its initial state. Later calls return the
// same instance and ignore their defaults argument, so callers across
// blocks can grab a shared store without coordinating who creates it.
func (app *App) Store(key string, defaults store.State) *store.Store {
	app.mu.Lock()
	defer app.mu.Unlock()
	if s, ok := app.stores[key]; ok {
		return s
	}
	s := store.New(key, defaults, app.storeOptionsLocked()...)
	app.stores[key] = s
	return s
}

// Colors returns the saved-colors store, creating it on first use at the
// configured key. The collection shares the store namespace: Store called
// with the same key returns the underlying store instance.
func (app *App) Colors() *store.ColorsStore {
	app.mu.Lock()
	defer app.mu.Unlock()
	if app.colors != nil {
		return app.colors
	}
	opts := append(app.storeOptionsLocked(), store.WithMaxColors(app.config.Colors.MaxColors))
	app.colors = store.NewColorsStore(app.config.Colors.Key, opts...)
	app.stores[app.config.Colors.Key] = app.colors.Store
	return app.colors
}

func (app *App) storeOptionsLocked() []store.Option {
	opts := []store.Option{
		store.WithBackend(app.backend),
		store.WithLogger(app.logger),
		store.WithDebounce(app.config.Storage.Debounce),
	}
	if app.broker != nil {
		opts = append(opts, store.WithBroker(app.broker))
	}
	return opts
}

// =============================================================================
// Lifecycle
// =============================================================================

// Flush forces every store's pending debounced write out immediately.
// Preview tooling calls this before stopping so the last edit lands.
func (app *App) Flush() {
	for _, s := range app.snapshotStores() {
		s.Flush()
	}
}

// Close tears down the app: the bus stops dispatching and stores stop
// persisting and syncing. The broker and backend are closed only when
// the app created them itself; injected ones belong to their injector,
// so several apps can share a backend or broker and close independently.
// Pending debounced writes are dropped; call Flush first to force them
// out. Close is idempotent.
func (app *App) Close() error {
	app.mu.Lock()
	if app.closed {
		app.mu.Unlock()
		return nil
	}
	app.closed = true
	app.mu.Unlock()

	for _, s := range app.snapshotStores() {
		s.Close()
	}
	app.bus.Close()
	if app.ownBroker && app.broker != nil {
		app.broker.Close()
	}
	if app.ownBackend {
		return app.backend.Close()
	}
	return nil
}

func (app *App) snapshotStores() []*store.Store {
	app.mu.Lock()
	defer app.mu.Unlock()
	out := make([]*store.Store, 0, len(app.stores))
	for _, s := range app.stores {
		out = append(out, s)
	}
	return out
}

// =============================================================================
// Accessors
// =============================================================================

// Document returns the live document tree.
func (app *App) Document() *dom.Document {
	return app.doc
}

// Bus returns the delegated event bus. Most apps won't need this
// directly; components listen through their instance so handlers detach
// on destroy.
func (app *App) Bus() *events.Bus {
	return app.bus
}

// Registry returns the component registry. Most apps won't need this;
// Define, Mount, MountAll, and UnmountAll cover the usual cases.
func (app *App) Registry() *component.Registry {
	return app.registry
}

// Backend returns the storage backend stores persist through.
func (app *App) Backend() storage.Backend {
	return app.backend
}

// Broker returns the sync broker, or nil when sync is disabled. Preview
// bridges attach here to mirror store updates over the wire.
func (app *App) Broker() *pubsub.Broker {
	return app.broker
}

// Logger returns the application logger.
func (app *App) Logger() *slog.Logger {
	return app.logger
}

// Config returns the resolved configuration, defaults applied.
func (app *App) Config() Config {
	return app.config
}
