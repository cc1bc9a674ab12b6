// Package store keeps the persisted index blob at a well-known location.
// Two backends are provided: a plain file written atomically under a
// cross-process file lock, and a BoltDB database.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/pkg/config"
)

// ErrNotFound is returned by Load when no blob has been saved yet.
var ErrNotFound = errors.New("index blob not found")

// Store saves and loads a single opaque blob.
type Store interface {
	Save(ctx context.Context, blob []byte) error
	Load(ctx context.Context) ([]byte, error)
	Location() string
	Close() error
}

// Open returns the backend named by cfg.Backend.
func Open(cfg config.IndexConfig) (Store, error) {
	switch cfg.Backend {
	case "file", "":
		return NewFileStore(cfg.Path), nil
	case "bolt":
		return OpenBoltStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported index backend %q", cfg.Backend)
	}
}
