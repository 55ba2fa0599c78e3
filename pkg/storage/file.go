package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileBackend persists each key as one file under a directory.
//
// Writes go through a temp file in the same directory followed by a
// rename, so a crash mid-write never leaves a torn value behind. Keys
// are query-escaped to form filenames, which keeps them reversible for
// Keys and safe for keys like "pigment:colors".
type FileBackend struct {
	dir string

	mu     sync.RWMutex
	closed bool
}

const fileExt = ".json"

// NewFileBackend creates a backend rooted at dir, creating the
// directory if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

// Dir returns the backing directory.
func (f *FileBackend) Dir() string {
	return f.dir
}

func (f *FileBackend) path(key string) string {
	return filepath.Join(f.dir, url.QueryEscape(key)+fileExt)
}

// Save writes data to the file for key atomically.
func (f *FileBackend) Save(ctx context.Context, key string, data []byte) error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return ErrBackendClosed{}
	}

	temp, err := os.CreateTemp(f.dir, ".pigment.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(data); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tempPath, f.path(key)); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Load reads the file for key, or returns (nil, nil) if it doesn't exist.
func (f *FileBackend) Load(ctx context.Context, key string) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return nil, ErrBackendClosed{}
	}

	data, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return data, nil
}

// Delete removes the file for key if present.
func (f *FileBackend) Delete(ctx context.Context, key string) error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return ErrBackendClosed{}
	}

	err := os.Remove(f.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %s: %w", key, err)
	}
	return nil
}

// Keys lists the keys present in the directory. Temp files and foreign
// entries are skipped.
func (f *FileBackend) Keys(ctx context.Context) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return nil, ErrBackendClosed{}
	}

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("reading storage directory: %w", err)
	}

	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileExt) {
			continue
		}
		key, err := url.QueryUnescape(strings.TrimSuffix(name, fileExt))
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// Close marks the backend closed. Files on disk are left intact.
func (f *FileBackend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}
