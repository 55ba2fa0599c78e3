// Package store provides reactive state containers for Pigment pages.
//
// A Store wraps a JSON-serializable state map. Every mutation replaces
// the in-memory state, notifies subscribers synchronously in
// registration order, then schedules a debounced write to the storage
// backend and a broadcast on the store's sync channel. Messages
// arriving on the channel replace state and notify without writing
// back, so two synced stores never feed each other write loops.
//
// ColorsStore specializes Store with the saved-colors collection used
// by the color wall: bounded, unique by hex, explicitly reorderable.
package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/pigmentlabs/pigment/pkg/pubsub"
	"github.com/pigmentlabs/pigment/pkg/storage"
)

// State is the shape of store state: a JSON-serializable map.
type State = map[string]any

// persistTimeout bounds a single debounced write against a slow backend.
const persistTimeout = 10 * time.Second

// Option configures a Store.
type Option func(*config)

type config struct {
	backend   storage.Backend
	broker    *pubsub.Broker
	channel   pubsub.Channel
	logger    *slog.Logger
	debounce  time.Duration
	maxColors int
}

func buildConfig(opts []Option) *config {
	cfg := &config{
		debounce:  DefaultDebounce,
		maxColors: DefaultMaxColors,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.backend == nil {
		cfg.backend = storage.NewMemoryBackend()
	}
	return cfg
}

// WithBackend sets the persistence backend. Default: a private
// in-memory backend.
func WithBackend(b storage.Backend) Option {
	return func(c *config) {
		c.backend = b
	}
}

// WithBroker makes the store open its sync channel on broker, named
// after the store key.
func WithBroker(b *pubsub.Broker) Option {
	return func(c *config) {
		c.broker = b
	}
}

// WithChannel sets an explicit sync channel, overriding WithBroker.
// The store takes ownership and closes it on Close.
func WithChannel(ch pubsub.Channel) Option {
	return func(c *config) {
		c.channel = ch
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithDebounce sets the persist debounce window. Default:
// DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(c *config) {
		c.debounce = d
	}
}

// WithMaxColors sets the saved-colors capacity for NewColorsStore.
// Default: DefaultMaxColors.
func WithMaxColors(n int) Option {
	return func(c *config) {
		c.maxColors = n
	}
}

type subscriber struct {
	fn      func(State)
	removed bool
}

// Store is a persistent, observable state map.
type Store struct {
	key     string
	backend storage.Backend
	channel pubsub.Channel
	logger  *slog.Logger
	persist *Debouncer[State]

	mu     sync.Mutex
	state  State
	subs   []*subscriber
	closed bool
}

// New creates a store keyed key, hydrated from the backend. Stored
// top-level keys win over defaults; an absent or unreadable blob
// leaves defaults untouched. If a broker or channel option is present
// the store starts mirroring state across sibling contexts.
func New(key string, defaults State, opts ...Option) *Store {
	cfg := buildConfig(opts)

	channel := cfg.channel
	if channel == nil && cfg.broker != nil {
		channel = cfg.broker.Channel(key)
	}

	s := &Store{
		key:     key,
		backend: cfg.backend,
		channel: channel,
		logger:  cfg.logger.With("store", key),
	}
	s.persist = NewDebouncer(cfg.debounce, s.persistNow)
	s.state = s.hydrate(defaults)

	if s.channel != nil {
		go s.receiveLoop()
	}
	return s
}

func (s *Store) hydrate(defaults State) State {
	state := copyState(defaults)

	data, err := s.backend.Load(context.Background(), s.key)
	if err != nil {
		s.logger.Warn("hydration failed, using defaults", "error", err)
		return state
	}
	if data == nil {
		return state
	}

	var stored State
	if err := json.Unmarshal(data, &stored); err != nil {
		s.logger.Warn("stored value is not valid JSON, using defaults", "error", err)
		return state
	}
	for k, v := range stored {
		state[k] = v
	}
	return state
}

// Key returns the storage key the store persists under.
func (s *Store) Key() string {
	return s.key
}

// Get returns a shallow copy of the current state.
func (s *Store) Get() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyState(s.state)
}

// Subscribe registers fn and invokes it immediately with the current
// state. Later mutations invoke every subscriber synchronously in
// registration order. Subscribers must treat the state they receive as
// read-only. The returned function unsubscribes and is idempotent.
func (s *Store) Subscribe(fn func(state map[string]any)) (unsubscribe func()) {
	sub := &subscriber{fn: fn}

	s.mu.Lock()
	s.subs = append(s.subs, sub)
	snap := copyState(s.state)
	s.mu.Unlock()

	fn(snap)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub.removed {
			return
		}
		sub.removed = true
		for i, cand := range s.subs {
			if cand == sub {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				break
			}
		}
	}
}

// Update shallow-merges partial over the current state and runs the
// mutation pipeline: replace, notify, schedule persist.
func (s *Store) Update(partial State) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	subs, snap := s.swapLocked(mergeState(s.state, partial))
	s.mu.Unlock()

	s.fanout(subs, snap, true)
}

// UpdateFunc computes the next state by applying fn to a copy of the
// current state and replaces the state wholesale with the result.
func (s *Store) UpdateFunc(fn func(state State) State) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	cur := copyState(s.state)
	s.mu.Unlock()

	next := fn(cur)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	subs, snap := s.swapLocked(copyState(next))
	s.mu.Unlock()

	s.fanout(subs, snap, true)
}

// swapLocked installs next as the current state and returns the
// subscriber snapshot and a state copy for notification. Callers hold
// mu.
func (s *Store) swapLocked(next State) ([]*subscriber, State) {
	s.state = next
	subs := make([]*subscriber, len(s.subs))
	copy(subs, s.subs)
	return subs, copyState(next)
}

// fanout notifies subscribers and, for local mutations, schedules the
// debounced persist. Remote applications pass persist=false: state
// that arrived over the channel is already persisted by its writer.
func (s *Store) fanout(subs []*subscriber, snap State, persist bool) {
	for _, sub := range subs {
		if sub.removed {
			continue
		}
		sub.fn(snap)
	}
	if persist {
		s.persist.Call(copyState(snap))
	}
}

func (s *Store) receiveLoop() {
	for data := range s.channel.Messages() {
		s.applyRemote(data)
	}
}

// applyRemote replaces state with a peer's published snapshot. Last
// write wins; concurrent writers race exactly like sibling tabs do.
func (s *Store) applyRemote(data []byte) {
	var next State
	if err := json.Unmarshal(data, &next); err != nil {
		s.logger.Warn("dropping malformed sync message", "error", err)
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	subs, snap := s.swapLocked(next)
	s.mu.Unlock()

	s.fanout(subs, snap, false)
}

// persistNow is the debouncer target: serialize, write, broadcast.
// Failures are logged and swallowed; the in-memory state is already
// committed and callers were already notified.
func (s *Store) persistNow(state State) {
	data, err := json.Marshal(state)
	if err != nil {
		s.logger.Error("marshaling state", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := s.backend.Save(ctx, s.key, data); err != nil {
		s.logger.Error("persisting state", "error", err)
		return
	}
	if s.channel != nil {
		s.channel.Publish(data)
	}
}

// Flush writes pending state immediately instead of waiting out the
// debounce window.
func (s *Store) Flush() {
	s.persist.Flush()
}

// Close drops any pending debounced persist and detaches the sync
// channel. Updates after Close are no-ops. The storage backend is
// shared and stays open.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.persist.Cancel()
	if s.channel != nil {
		s.channel.Close()
	}
}

func copyState(state State) State {
	out := make(State, len(state))
	for k, v := range state {
		out[k] = v
	}
	return out
}

func mergeState(base, partial State) State {
	next := copyState(base)
	for k, v := range partial {
		next[k] = v
	}
	return next
}
