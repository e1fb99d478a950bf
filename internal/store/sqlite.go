package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"TempoRelay/internal/model"
)

// SQLiteStore keeps the snapshot as the single row of the snapshot table.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read the row while the refresh loop writes it.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite store opened: %s", dbPath)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS snapshot (
		id         INTEGER PRIMARY KEY CHECK (id = 1),
		today      TEXT NOT NULL,
		tomorrow   TEXT NOT NULL,
		yesterday  TEXT NOT NULL,
		stats      TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		last_error TEXT NOT NULL
	)`)
	return err
}

func (s *SQLiteStore) Load() (*model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		today, tomorrow, yesterday, stats string
		snap                              model.Snapshot
	)
	err := s.db.QueryRow(`SELECT today, tomorrow, yesterday, stats, updated_at, last_error
		FROM snapshot WHERE id = 1`).
		Scan(&today, &tomorrow, &yesterday, &stats, &snap.UpdatedAt, &snap.LastError)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}

	snap.Today = model.ParseColor(today)
	snap.Tomorrow = model.ParseColor(tomorrow)
	snap.Yesterday = model.ParseColor(yesterday)
	if err := json.Unmarshal([]byte(stats), &snap.Stats); err != nil {
		return nil, fmt.Errorf("parse stats: %w", err)
	}
	snap.Stats = snap.Stats.Clone()
	return &snap, nil
}

func (s *SQLiteStore) Save(snap *model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats, err := json.Marshal(snap.Stats.Clone())
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO snapshot
		(id, today, tomorrow, yesterday, stats, updated_at, last_error)
		VALUES (1,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			today = excluded.today,
			tomorrow = excluded.tomorrow,
			yesterday = excluded.yesterday,
			stats = excluded.stats,
			updated_at = excluded.updated_at,
			last_error = excluded.last_error`,
		snap.Today.String(), snap.Tomorrow.String(), snap.Yesterday.String(),
		string(stats), snap.UpdatedAt, snap.LastError,
	)
	return err
}

func (s *SQLiteStore) Close() error {
	log.Println("[INFO] closing sqlite store")
	return s.db.Close()
}
