// Package storage provides key-value adapters for persisted guide progress.
// Values are opaque strings; encoding is the caller's concern.
package storage

import (
	"fmt"
	"path/filepath"

	"github.com/livetemplate/speedlaunch/internal/config"
)

// KV is a string key-value store with local, best-effort semantics.
// Every error returned by an implementation satisfies errors.Is(err, ErrUnavailable).
type KV interface {
	// Get returns the stored value and whether the key was present.
	Get(key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error

	// Close releases any resources held by the store
	Close() error
}

// Open creates the KV store selected by cfg. Relative paths resolve against baseDir.
func Open(cfg config.StorageConfig, baseDir string) (KV, error) {
	path := cfg.GetPath()
	if path != "" && !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}

	switch cfg.GetBackend() {
	case config.BackendMemory:
		return NewMemory(), nil
	case config.BackendNone:
		return NewDisabled(), nil
	case config.BackendFile:
		return NewFileStore(path)
	case config.BackendSQLite:
		return NewSQLiteStore(path, cfg.Table)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}
