package store

import (
	"errors"
	"fmt"

	"TempoRelay/internal/model"
)

// ErrNotFound is returned by Load when nothing has been persisted yet.
var ErrNotFound = errors.New("store: no persisted snapshot")

// Store persists the single latest snapshot.
type Store interface {
	Load() (*model.Snapshot, error)
	Save(snap *model.Snapshot) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendNone   = "none"
)

// Open builds the store for the configured backend.
func Open(backend, path string) (Store, error) {
	switch backend {
	case BackendJSON, "":
		return NewJSONStore(path), nil
	case BackendSQLite:
		return NewSQLiteStore(path)
	case BackendNone:
		return NewNoopStore(), nil
	}
	return nil, fmt.Errorf("store: unknown backend %q", backend)
}
