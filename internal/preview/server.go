package preview

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pigmentlabs/pigment"
	"github.com/pigmentlabs/pigment/blocks"
	"github.com/pigmentlabs/pigment/pkg/dom"
	"github.com/pigmentlabs/pigment/pkg/pubsub"
	"github.com/pigmentlabs/pigment/pkg/storage"
)

// ReloadChannel is the hub channel carrying rebuild notifications.
// Connected previews reload when anything arrives on it.
const ReloadChannel = "pigment:reload"

const shutdownTimeout = 10 * time.Second

// Config configures the preview server.
type Config struct {
	// Addr is the listen address. Default: 127.0.0.1:8736.
	Addr string

	// SiteDir holds the authored HTML pages. Required.
	SiteDir string

	// Palette overrides the color wall palette for every page. Nil uses
	// authored palettes with the built-in fallback.
	Palette []blocks.PaletteEntry

	// Delay is the wait before each page's delayed phase. Zero runs the
	// delayed work inline during decoration, so served pages are
	// complete.
	Delay time.Duration

	// Backend persists store state across requests and processes.
	// Default: a private in-memory backend.
	Backend storage.Backend

	// Broker mirrors store state between the per-request apps. Default:
	// a private broker owned by the server.
	Broker *pubsub.Broker

	// SyncSecret enables HS256 bearer auth on /sync when set.
	SyncSecret string

	// SyncDisabled leaves /sync unmounted. Reload notifications ride
	// the hub, so disabling sync silences those too.
	SyncDisabled bool

	// ReplayTTL is the hub's last-payload replay window.
	// Default: DefaultReplayTTL.
	ReplayTTL time.Duration

	// Logger is the server logger. Default: slog.Default().
	Logger *slog.Logger

	// Registry receives the preview metrics. Default: a fresh registry.
	Registry *prometheus.Registry
}

// Server is the preview HTTP server.
type Server struct {
	config   Config
	logger   *slog.Logger
	backend  storage.Backend
	broker   *pubsub.Broker
	pipeline *blocks.Pipeline
	hub      *Hub
	watcher  *Watcher
	metrics  *metrics
	handler  http.Handler

	ownBackend bool
	ownBroker  bool

	httpServer *http.Server
}

// New creates a preview server over the given site directory.
func New(cfg Config) (*Server, error) {
	if cfg.SiteDir == "" {
		return nil, fmt.Errorf("site directory is required")
	}
	if info, err := os.Stat(cfg.SiteDir); err != nil {
		return nil, fmt.Errorf("site directory: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("site directory %s is not a directory", cfg.SiteDir)
	}

	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8736"
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "preview")

	backend := cfg.Backend
	ownBackend := false
	if backend == nil {
		backend = storage.NewMemoryBackend()
		ownBackend = true
	}

	broker := cfg.Broker
	ownBroker := false
	if broker == nil {
		broker = pubsub.NewBroker()
		ownBroker = true
	}

	promReg := cfg.Registry
	if promReg == nil {
		promReg = prometheus.NewRegistry()
	}
	m := newMetrics(promReg)

	var hub *Hub
	if !cfg.SyncDisabled {
		hub = NewHub(HubConfig{
			Secret:    cfg.SyncSecret,
			ReplayTTL: cfg.ReplayTTL,
			Logger:    logger,
		})
		hub.setMetrics(m)
	}

	registry := blocks.Defaults()
	if len(cfg.Palette) > 0 {
		registry.Register("color-wall", blocks.ColorWallWith(cfg.Palette))
	}

	s := &Server{
		config:     cfg,
		logger:     logger,
		backend:    backend,
		broker:     broker,
		pipeline:   blocks.New(registry, blocks.WithDelay(cfg.Delay), blocks.WithLogger(logger)),
		hub:        hub,
		metrics:    m,
		ownBackend: ownBackend,
		ownBroker:  ownBroker,
	}

	r := chi.NewRouter()
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(traceRequests)
	r.Use(m.instrument)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
	if s.hub != nil {
		r.Get("/sync", s.hub.ServeHTTP)
	}
	r.Get("/*", s.handlePage)
	s.handler = r

	return s, nil
}

// Handler returns the server's HTTP handler for mounting in tests or
// external servers.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Hub returns the sync hub, or nil when sync is disabled.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Broker returns the broker per-request apps share.
func (s *Server) Broker() *pubsub.Broker {
	return s.broker
}

// Run starts the server and blocks until shutdown.
func (s *Server) Run() error {
	watcher, err := WatchSite(s.config.SiteDir, 0)
	if err != nil {
		return err
	}
	changes, err := watcher.Start()
	if err != nil {
		watcher.Stop()
		return err
	}
	s.watcher = watcher
	go s.broadcastRebuilds(changes)

	s.httpServer = &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("preview serving", "addr", s.config.Addr, "site", s.config.SiteDir)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			return err
		}
		return nil

	case <-shutdown:
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully stops the server, the watcher, and the hub.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if s.watcher != nil {
		s.watcher.Stop()
		s.watcher = nil
	}
	if s.hub != nil {
		s.hub.Close()
	}

	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}

	if s.ownBroker {
		s.broker.Close()
	}
	if s.ownBackend {
		if cerr := s.backend.Close(); err == nil {
			err = cerr
		}
	}

	if err != nil {
		s.logger.Error("shutdown error", "error", err)
		return err
	}
	s.logger.Info("preview shutdown complete")
	return nil
}

// broadcastRebuilds relays watcher signals onto the reload channel.
func (s *Server) broadcastRebuilds(changes <-chan struct{}) {
	for range changes {
		s.metrics.rebuildsTotal.Inc()
		s.logger.Info("site changed, broadcasting reload")
		if s.hub != nil {
			s.hub.Publish(ReloadChannel, []byte(`{"reason":"site-changed"}`))
		}
	}
}

// =============================================================================
// Page Serving
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handlePage decorates and serves one authored page.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	file, ok := s.resolvePage(chi.URLParam(r, "*"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	html, err := s.renderPage(file)
	if err != nil {
		s.logger.Error("rendering page failed", "file", file, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}

// resolvePage maps a request path to an authored page file. Pages live
// as {name}.html or {name}/index.html under the site directory; the
// empty path serves index.
func (s *Server) resolvePage(page string) (string, bool) {
	page = strings.Trim(page, "/")
	if page == "" {
		page = "index"
	}

	for _, seg := range strings.Split(page, "/") {
		if seg == ".." || strings.HasPrefix(seg, ".") {
			return "", false
		}
	}

	candidates := []string{page + "/index.html"}
	if strings.HasSuffix(page, ".html") {
		candidates = []string{page}
	} else {
		candidates = append([]string{page + ".html"}, candidates...)
	}

	for _, cand := range candidates {
		path := filepath.Join(s.config.SiteDir, filepath.FromSlash(cand))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// renderPage parses the authored file, decorates it through the block
// pipeline with an app sharing the server's backend and broker, and
// returns the serialized result.
func (s *Server) renderPage(file string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", err
	}
	defer f.Close()

	doc, err := dom.ParseDocument(f)
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", file, err)
	}

	app := pigment.New(pigment.Config{
		Document: doc,
		Storage:  pigment.StorageConfig{Backend: s.backend},
		Sync:     pigment.SyncConfig{Broker: s.broker},
		Logger:   s.logger,
	})
	defer app.Close()

	if err := s.pipeline.LoadPage(app, doc); err != nil {
		return "", err
	}
	html := doc.HTML()
	s.pipeline.UnloadPage(app, doc)
	return html, nil
}
