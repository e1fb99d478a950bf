package state

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"TempoRelay/internal/model"
	"TempoRelay/internal/store"
)

// phase is the outcome of one refresh step: the value to commit (possibly a
// degraded one) and the failures met while producing it.
type phase[T any] struct {
	Value    T
	Failures []string
}

func succeeded[T any](v T) phase[T] { return phase[T]{Value: v} }

func (p phase[T]) failed(format string, args ...any) phase[T] {
	p.Failures = append(p.Failures, fmt.Sprintf(format, args...))
	return p
}

// resolveDays tries the primary source, then the fallback. When both fail the
// pair is Unknown for this cycle rather than the previous cycle's values.
func (m *Manager) resolveDays(ctx context.Context, now time.Time) phase[model.DayPair] {
	pair, err := m.Primary.FetchDays(ctx, now)
	if err == nil {
		return succeeded(pair)
	}
	res := phase[model.DayPair]{}.failed("primary failed: %v", err)

	if m.Fallback == nil {
		return res
	}
	pair, err = m.Fallback.FetchDays(ctx, now)
	if err != nil {
		return res.failed("fallback failed: %v", err)
	}
	res.Value = pair
	return res
}

// resolveYesterday falls back to the persisted today, which is usually what
// yesterday turned out to be when the previous cycle ran before midnight.
func (m *Manager) resolveYesterday(ctx context.Context, now time.Time) phase[model.Color] {
	c, err := m.Primary.FetchDay(ctx, now.AddDate(0, 0, -1))
	if err == nil {
		return succeeded(c)
	}
	res := phase[model.Color]{Value: model.Unknown}.failed("yesterday failed: %v", err)

	// Persisted today, not the in-memory one.
	if prev, err := m.Store.Load(); err == nil {
		res.Value = prev.Today
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Printf("[WARN] yesterday substitute unavailable: %v", err)
	}
	return res
}

func (m *Manager) resolveStats(ctx context.Context) phase[model.Stats] {
	stats, err := m.Primary.FetchStats(ctx)
	if err != nil {
		return phase[model.Stats]{Value: model.Stats{}}.failed("stats failed: %v", err)
	}
	if stats == nil {
		stats = model.Stats{}
	}
	return succeeded(stats)
}
