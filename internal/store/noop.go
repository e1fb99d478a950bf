package store

import "TempoRelay/internal/model"

// NoopStore is used when persistence is disabled.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (n *NoopStore) Load() (*model.Snapshot, error) { return nil, ErrNotFound }
func (n *NoopStore) Save(_ *model.Snapshot) error   { return nil }
func (n *NoopStore) Close() error                   { return nil }
