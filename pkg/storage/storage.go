// Package storage provides key/value persistence backends for Pigment
// stores. A backend holds opaque byte blobs keyed by store name; the
// reactive layer in pkg/store decides what goes into the blobs and when.
//
// Backends are deliberately dumb: no schema beyond key and value, no
// expiry, no change notification. Cross-context signaling lives in
// pkg/pubsub instead.
package storage

import "context"

// Backend defines the interface for store persistence backends.
// Implementations must be safe for concurrent use.
type Backend interface {
	// Save persists a value blob under key, overwriting any previous value.
	Save(ctx context.Context, key string, data []byte) error

	// Load retrieves the value blob for key.
	// Returns (nil, nil) if the key doesn't exist.
	// Returns (data, nil) if found.
	// Returns (nil, err) on backend errors.
	Load(ctx context.Context, key string) ([]byte, error)

	// Delete removes a key. It is not an error to delete a key that
	// doesn't exist.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the backend.
	Close() error
}

// Lister is an optional interface for backends that can enumerate
// their keys. All four built-in backends implement it.
type Lister interface {
	// Keys returns all keys currently present, in no particular order.
	Keys(ctx context.Context) ([]string, error)
}

// ErrBackendClosed is returned when operations are attempted on a closed
// backend.
type ErrBackendClosed struct{}

func (e ErrBackendClosed) Error() string {
	return "storage backend is closed"
}
