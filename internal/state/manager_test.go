package state

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TempoRelay/internal/collector"
	"TempoRelay/internal/model"
	"TempoRelay/internal/store"
)

var fixedNow = time.Date(2025, 1, 15, 10, 30, 0, 0, time.Local)

func newTestManager(p *mockPrimary, f *mockFallback, st store.Store) *Manager {
	m := NewManager(p, f, st)
	m.Clock = func() time.Time { return fixedNow }
	return m
}

func TestRefresh_AllSuccess(t *testing.T) {
	p := &mockPrimary{}
	f := &mockFallback{}
	st := &memStore{}
	m := newTestManager(p, f, st)

	m.Refresh(context.Background())

	snap := m.Snapshot()
	assert.Equal(t, model.Blue, snap.Today)
	assert.Equal(t, model.White, snap.Tomorrow)
	assert.Equal(t, model.Blue, snap.Yesterday)
	assert.Equal(t, model.Stats{"bleu_used": 100.0}, snap.Stats)
	assert.Equal(t, fixedNow.Unix(), snap.UpdatedAt)
	assert.Empty(t, snap.LastError)

	assert.Equal(t, 0, f.calls, "fallback must not be called when primary succeeds")
	require.Len(t, p.dayCalls, 1)
	assert.Equal(t, "2025-01-14", p.dayCalls[0].Format(time.DateOnly))

	require.NotNil(t, st.snap)
	assert.Equal(t, snap, *st.snap)
}

func TestRefresh_FallbackUsedWhenPrimaryFails(t *testing.T) {
	p := &mockPrimary{DaysFn: func(context.Context, time.Time) (model.DayPair, error) {
		return model.DayPair{}, errPrimaryDown
	}}
	f := &mockFallback{Pair: model.DayPair{Today: model.Red, Tomorrow: model.Blue}}
	m := newTestManager(p, f, &memStore{})

	m.Refresh(context.Background())

	snap := m.Snapshot()
	assert.Equal(t, 1, f.calls)
	assert.Equal(t, model.Red, snap.Today)
	assert.Equal(t, model.Blue, snap.Tomorrow)
	assert.Equal(t, "primary failed: primary down", snap.LastError)
}

func TestRefresh_BothDaySourcesFail(t *testing.T) {
	p := &mockPrimary{DaysFn: func(context.Context, time.Time) (model.DayPair, error) {
		return model.DayPair{}, errPrimaryDown
	}}
	f := &mockFallback{Err: errFallbackDown}
	st := &memStore{snap: &model.Snapshot{Today: model.Red, Tomorrow: model.Red, Stats: model.Stats{}}}
	m := newTestManager(p, f, st)
	m.Load()
	require.Equal(t, model.Red, m.Snapshot().Today)

	m.Refresh(context.Background())

	snap := m.Snapshot()
	assert.Equal(t, model.Unknown, snap.Today, "stale values must not survive a failed phase")
	assert.Equal(t, model.Unknown, snap.Tomorrow)
	assert.Equal(t, "primary failed: primary down | fallback failed: edf down", snap.LastError)
}

func TestRefresh_YesterdayDegradesToPersistedToday(t *testing.T) {
	p := &mockPrimary{DayFn: func(context.Context, time.Time) (model.Color, error) {
		return model.Unknown, errPrimaryDown
	}}
	st := &memStore{snap: &model.Snapshot{Today: model.Red, Stats: model.Stats{}}}
	m := newTestManager(p, &mockFallback{}, st)

	m.Refresh(context.Background())

	snap := m.Snapshot()
	assert.Equal(t, model.Red, snap.Yesterday)
	assert.Equal(t, "yesterday failed: primary down", snap.LastError)
	// Other phases are untouched by the yesterday failure.
	assert.Equal(t, model.Blue, snap.Today)
	assert.Equal(t, model.Stats{"bleu_used": 100.0}, snap.Stats)
}

func TestRefresh_YesterdayReadsDiskNotMemory(t *testing.T) {
	p := &mockPrimary{DayFn: func(context.Context, time.Time) (model.Color, error) {
		return model.Unknown, errPrimaryDown
	}}
	st := &memStore{saveErr: errors.New("disk full")}
	m := newTestManager(p, &mockFallback{}, st)

	// Memory now holds today=BLUE but nothing was persisted.
	m.Refresh(context.Background())
	m.Refresh(context.Background())

	assert.Equal(t, model.Unknown, m.Snapshot().Yesterday)
	assert.Equal(t, model.Blue, m.Snapshot().Today)
}

func TestRefresh_YesterdayUnknownWithoutPersistedState(t *testing.T) {
	p := &mockPrimary{DayFn: func(context.Context, time.Time) (model.Color, error) {
		return model.Unknown, errPrimaryDown
	}}
	m := newTestManager(p, &mockFallback{}, &memStore{loadErr: errors.New("corrupt")})

	m.Refresh(context.Background())

	assert.Equal(t, model.Unknown, m.Snapshot().Yesterday)
}

func TestRefresh_StatsFailureYieldsEmptyMapping(t *testing.T) {
	p := &mockPrimary{StatsFn: func(context.Context) (model.Stats, error) {
		return nil, errPrimaryDown
	}}
	st := &memStore{snap: &model.Snapshot{Stats: model.Stats{"bleu_used": 1.0}}}
	m := newTestManager(p, &mockFallback{}, st)
	m.Load()

	m.Refresh(context.Background())

	snap := m.Snapshot()
	assert.NotNil(t, snap.Stats)
	assert.Empty(t, snap.Stats)
	assert.Equal(t, "stats failed: primary down", snap.LastError)
}

func TestRefresh_EverythingFails(t *testing.T) {
	down := func(context.Context, time.Time) (model.DayPair, error) { return model.DayPair{}, errPrimaryDown }
	p := &mockPrimary{
		DaysFn:  down,
		DayFn:   func(context.Context, time.Time) (model.Color, error) { return model.Unknown, errPrimaryDown },
		StatsFn: func(context.Context) (model.Stats, error) { return nil, errPrimaryDown },
	}
	m := newTestManager(p, &mockFallback{Err: errFallbackDown}, &memStore{})

	m.Refresh(context.Background())

	snap := m.Snapshot()
	assert.Equal(t, model.Snapshot{
		Today:     model.Unknown,
		Tomorrow:  model.Unknown,
		Yesterday: model.Unknown,
		Stats:     model.Stats{},
		UpdatedAt: fixedNow.Unix(),
		LastError: "primary failed: primary down | fallback failed: edf down | " +
			"yesterday failed: primary down | stats failed: primary down",
	}, snap)
}

func TestRefresh_SaveFailureIsNotFatal(t *testing.T) {
	st := &memStore{saveErr: errors.New("read-only filesystem")}
	m := newTestManager(&mockPrimary{}, &mockFallback{}, st)

	m.Refresh(context.Background())

	assert.Equal(t, 1, st.saves)
	assert.Equal(t, model.Blue, m.Snapshot().Today)
	assert.Empty(t, m.Snapshot().LastError)
}

func TestRefresh_UpdatedAtNeverMovesBackward(t *testing.T) {
	m := newTestManager(&mockPrimary{}, &mockFallback{}, &memStore{})
	m.Refresh(context.Background())
	first := m.Snapshot().UpdatedAt

	m.Clock = func() time.Time { return fixedNow.Add(-time.Hour) }
	m.Refresh(context.Background())
	assert.Equal(t, first, m.Snapshot().UpdatedAt)

	m.Clock = func() time.Time { return fixedNow.Add(time.Hour) }
	m.Refresh(context.Background())
	assert.Equal(t, first+3600, m.Snapshot().UpdatedAt)
}

func TestRecordFailure(t *testing.T) {
	st := &memStore{}
	m := newTestManager(&mockPrimary{}, &mockFallback{}, st)
	m.Refresh(context.Background())

	m.Clock = func() time.Time { return fixedNow.Add(time.Minute) }
	m.RecordFailure("refresh crashed: boom")

	snap := m.Snapshot()
	assert.Equal(t, "refresh crashed: boom", snap.LastError)
	assert.Equal(t, fixedNow.Add(time.Minute).Unix(), snap.UpdatedAt)
	assert.Equal(t, model.Blue, snap.Today)
	assert.Equal(t, snap, *st.snap)
}

func TestLoad_CorruptStoreKeepsDefaults(t *testing.T) {
	m := newTestManager(&mockPrimary{}, &mockFallback{}, &memStore{loadErr: errors.New("bad json")})
	m.Load()

	snap := m.Snapshot()
	assert.Equal(t, model.Unknown, snap.Today)
	assert.Equal(t, model.Stats{}, snap.Stats)
	assert.Zero(t, snap.UpdatedAt)
}

func TestPersistence_RoundTripOnFreshManager(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tempo_cache.json")
	stats := map[string]model.Stats{
		"populated": {"periode": "2024-2025", "bleu_used": 120.0, "bissextile": true},
		"empty":     {},
	}
	for name, s := range stats {
		t.Run(name, func(t *testing.T) {
			p := &mockPrimary{StatsFn: func(context.Context) (model.Stats, error) { return s, nil }}
			m := newTestManager(p, &mockFallback{}, store.NewJSONStore(path))
			m.Refresh(context.Background())

			fresh := newTestManager(&mockPrimary{}, &mockFallback{}, store.NewJSONStore(path))
			fresh.Load()
			assert.Equal(t, m.Snapshot(), fresh.Snapshot())
		})
	}
}

func TestSnapshot_ConcurrentReadsDuringRefresh(t *testing.T) {
	cycle := 0
	p := &mockPrimary{DaysFn: func(context.Context, time.Time) (model.DayPair, error) {
		cycle++
		if cycle%2 == 0 {
			return model.DayPair{Today: model.Red, Tomorrow: model.Red}, nil
		}
		return model.DayPair{Today: model.Blue, Tomorrow: model.White}, nil
	}}
	m := newTestManager(p, &mockFallback{}, &memStore{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				snap := m.Snapshot()
				if snap.UpdatedAt == 0 {
					continue
				}
				pair := model.DayPair{Today: snap.Today, Tomorrow: snap.Tomorrow}
				assert.Contains(t, []model.DayPair{
					{Today: model.Blue, Tomorrow: model.White},
					{Today: model.Red, Tomorrow: model.Red},
				}, pair, "colors from different cycles")
			}
		}()
	}
	for i := 0; i < 200; i++ {
		m.Refresh(context.Background())
	}
	wg.Wait()
	assert.Equal(t, 200, cycle)
}

func TestRefresh_MalformedFallbackPayloadIsRecorded(t *testing.T) {
	edf := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":["2025-01-15","2025-01-16"]}`))
	}))
	t.Cleanup(edf.Close)

	p := &mockPrimary{DaysFn: func(context.Context, time.Time) (model.DayPair, error) {
		return model.DayPair{}, errPrimaryDown
	}}
	m := NewManager(p, collector.NewEDFFetcher(edf.URL, "", ""), &memStore{})
	m.Clock = func() time.Time { return fixedNow }

	m.Refresh(context.Background())

	snap := m.Snapshot()
	assert.Equal(t, model.Unknown, snap.Today)
	assert.Equal(t, model.Unknown, snap.Tomorrow)
	assert.True(t, strings.HasPrefix(snap.LastError, "primary failed: primary down | fallback failed: "), snap.LastError)
	assert.Contains(t, snap.LastError, "unexpected payload")
}
