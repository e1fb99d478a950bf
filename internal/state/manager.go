package state

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"TempoRelay/internal/collector"
	"TempoRelay/internal/model"
	"TempoRelay/internal/store"
)

// Manager owns the served snapshot and the refresh policy that updates it.
type Manager struct {
	mu   sync.RWMutex
	snap model.Snapshot

	Primary  collector.PrimarySource
	Fallback collector.DaySource
	Store    store.Store
	Clock    func() time.Time
}

// NewManager creates a Manager with an all-Unknown snapshot. Call Load to hydrate it.
func NewManager(primary collector.PrimarySource, fallback collector.DaySource, st store.Store) *Manager {
	if st == nil {
		st = store.NewNoopStore()
	}
	return &Manager{
		snap:     model.Snapshot{Stats: model.Stats{}},
		Primary:  primary,
		Fallback: fallback,
		Store:    st,
		Clock:    time.Now,
	}
}

// Load hydrates the snapshot from the store. A missing or unreadable store
// leaves the defaults in place.
func (m *Manager) Load() {
	snap, err := m.Store.Load()
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("[WARN] ignoring persisted snapshot: %v", err)
		}
		return
	}
	m.mu.Lock()
	m.snap = snap.Clone()
	m.mu.Unlock()
	log.Printf("[INFO] restored snapshot from %s", time.Unix(snap.UpdatedAt, 0).Format(time.RFC3339))
}

// Snapshot returns a copy of the current snapshot.
func (m *Manager) Snapshot() model.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap.Clone()
}

// Refresh runs one acquisition cycle. Each phase degrades on its own; the
// collected failures end up in LastError and never abort the cycle.
func (m *Manager) Refresh(ctx context.Context) {
	now := m.Clock()

	days := m.resolveDays(ctx, now)
	yesterday := m.resolveYesterday(ctx, now)
	stats := m.resolveStats(ctx)

	var failures []string
	failures = append(failures, days.Failures...)
	failures = append(failures, yesterday.Failures...)
	failures = append(failures, stats.Failures...)

	m.commit(now, func(s *model.Snapshot) {
		s.Today = days.Value.Today
		s.Tomorrow = days.Value.Tomorrow
		s.Yesterday = yesterday.Value
		s.Stats = stats.Value
		s.LastError = strings.Join(failures, " | ")
	})

	if len(failures) > 0 {
		log.Printf("[WARN] refresh degraded: %s", strings.Join(failures, " | "))
	} else {
		log.Printf("[INFO] refresh ok: today=%s tomorrow=%s yesterday=%s",
			days.Value.Today, days.Value.Tomorrow, yesterday.Value)
	}
}

// RecordFailure stamps a failure that happened outside the refresh phases
// and persists it. Colors and stats are left as they are.
func (m *Manager) RecordFailure(msg string) {
	m.commit(m.Clock(), func(s *model.Snapshot) {
		s.LastError = msg
	})
}

// commit applies mutate under the write lock, stamps UpdatedAt, then persists.
func (m *Manager) commit(now time.Time, mutate func(s *model.Snapshot)) {
	m.mu.Lock()
	mutate(&m.snap)
	if m.snap.Stats == nil {
		m.snap.Stats = model.Stats{}
	}
	if ts := now.Unix(); ts > m.snap.UpdatedAt {
		m.snap.UpdatedAt = ts
	}
	snap := m.snap.Clone()
	m.mu.Unlock()

	if err := m.Store.Save(&snap); err != nil {
		log.Printf("[ERROR] failed to save snapshot: %v", err)
	}
}
