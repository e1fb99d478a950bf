package state

import (
	"context"
	"errors"
	"time"

	"TempoRelay/internal/model"
	"TempoRelay/internal/store"
)

var (
	errPrimaryDown  = errors.New("primary down")
	errFallbackDown = errors.New("edf down")
)

// mockPrimary implements collector.PrimarySource. Nil funcs return fixed defaults.
type mockPrimary struct {
	DaysFn  func(ctx context.Context, now time.Time) (model.DayPair, error)
	DayFn   func(ctx context.Context, day time.Time) (model.Color, error)
	StatsFn func(ctx context.Context) (model.Stats, error)

	dayCalls []time.Time
}

func (m *mockPrimary) Name() string { return "mock-primary" }

func (m *mockPrimary) FetchDays(ctx context.Context, now time.Time) (model.DayPair, error) {
	if m.DaysFn != nil {
		return m.DaysFn(ctx, now)
	}
	return model.DayPair{Today: model.Blue, Tomorrow: model.White}, nil
}

func (m *mockPrimary) FetchDay(ctx context.Context, day time.Time) (model.Color, error) {
	m.dayCalls = append(m.dayCalls, day)
	if m.DayFn != nil {
		return m.DayFn(ctx, day)
	}
	return model.Blue, nil
}

func (m *mockPrimary) FetchStats(ctx context.Context) (model.Stats, error) {
	if m.StatsFn != nil {
		return m.StatsFn(ctx)
	}
	return model.Stats{"bleu_used": 100.0}, nil
}

// mockFallback implements collector.DaySource and counts calls.
type mockFallback struct {
	Pair  model.DayPair
	Err   error
	calls int
}

func (m *mockFallback) Name() string { return "mock-fallback" }

func (m *mockFallback) FetchDays(_ context.Context, _ time.Time) (model.DayPair, error) {
	m.calls++
	return m.Pair, m.Err
}

// memStore is an in-memory store.Store that can be made to fail.
type memStore struct {
	snap    *model.Snapshot
	loadErr error
	saveErr error
	saves   int
}

func (s *memStore) Load() (*model.Snapshot, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if s.snap == nil {
		return nil, store.ErrNotFound
	}
	c := s.snap.Clone()
	return &c, nil
}

func (s *memStore) Save(snap *model.Snapshot) error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	c := snap.Clone()
	s.snap = &c
	return nil
}

func (s *memStore) Close() error { return nil }
