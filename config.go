package pigment

import (
	"log/slog"
	"time"

	"github.com/pigmentlabs/pigment/pkg/dom"
	"github.com/pigmentlabs/pigment/pkg/pubsub"
	"github.com/pigmentlabs/pigment/pkg/storage"
	"github.com/pigmentlabs/pigment/pkg/store"
)

// =============================================================================
// Configuration Types
// =============================================================================

// Config is the main application configuration.
// This is the user-friendly entry point for configuring a Pigment app.
type Config struct {
	// Document is the page the app runs against. If nil, a fresh empty
	// document is created; preview tooling parses site fixtures into one.
	Document *dom.Document

	// Storage configures the persistence surface stores write through.
	Storage StorageConfig

	// Sync configures cross-instance store synchronization.
	Sync SyncConfig

	// Colors configures the saved-colors store.
	Colors ColorsConfig

	// Logger is the structured logger for the application.
	// If nil, slog.Default() is used.
	Logger *slog.Logger
}

// StorageConfig configures the persistence surface.
type StorageConfig struct {
	// Backend is the key-value store for persisted state.
	// If nil, an in-memory backend is used (state lost on app teardown).
	// Use storage.NewMemoryBackend(), NewFileBackend(), NewSQLBackend(),
	// or NewS3Backend(). An injected backend is never closed by the app,
	// so it can be shared across apps.
	Backend storage.Backend

	// Debounce is the write-coalescing window for store persists.
	// Default: store.DefaultDebounce (100ms).
	Debounce time.Duration
}

// SyncConfig configures cross-instance store synchronization.
type SyncConfig struct {
	// Broker fans store updates out between app instances sharing it.
	// If nil, the app creates a private broker; preview bridges attach
	// to it to mirror state over the wire.
	Broker *pubsub.Broker

	// Disabled turns off sync entirely. Stores then persist without
	// broadcasting, and never receive remote updates.
	Disabled bool
}

// ColorsConfig configures the saved-colors store.
type ColorsConfig struct {
	// Key is the storage key the collection persists under.
	// Default: "pigment:colors".
	Key string

	// MaxColors caps the collection size.
	// Default: store.DefaultMaxColors (20).
	MaxColors int
}

// =============================================================================
// Default Configurations
// =============================================================================

// DefaultColorsKey is the storage key for the saved-colors store.
const DefaultColorsKey = "pigment:colors"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Storage: DefaultStorageConfig(),
		Colors:  DefaultColorsConfig(),
	}
}

// DefaultStorageConfig returns a StorageConfig with sensible defaults.
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		Debounce: store.DefaultDebounce,
	}
}

// DefaultColorsConfig returns a ColorsConfig with sensible defaults.
func DefaultColorsConfig() ColorsConfig {
	return ColorsConfig{
		Key:       DefaultColorsKey,
		MaxColors: store.DefaultMaxColors,
	}
}
