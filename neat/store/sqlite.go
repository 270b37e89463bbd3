// Package store persists pipeline snapshots in SQLite.
package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/baldhumanity/neat-pipeline/neat"
)

// ErrNoSnapshot is returned when a run has no saved generation.
var ErrNoSnapshot = errors.New("store: no snapshot saved for run")

// SQLiteCheckpointer keeps every save of one run, numbered by a per-run
// sequence, and loads the most recent one. It implements neat.Checkpointer.
// Generation numbers may repeat within a run after a reset on extinction.
type SQLiteCheckpointer struct {
	path  string
	runID string

	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteCheckpointer stores snapshots of runID in the database at path. An
// empty runID starts a new run with a random id.
func NewSQLiteCheckpointer(path, runID string) *SQLiteCheckpointer {
	if runID == "" {
		runID = uuid.NewString()
	}
	return &SQLiteCheckpointer{path: path, runID: runID}
}

// RunID identifies the run whose snapshots are read and written.
func (s *SQLiteCheckpointer) RunID() string { return s.runID }

// Init opens the database and creates the schema.
func (s *SQLiteCheckpointer) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}
	s.db = db
	return nil
}

// Save appends snap as the run's next save.
func (s *SQLiteCheckpointer) Save(ctx context.Context, snap *neat.Snapshot) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	var payload bytes.Buffer
	if err := neat.EncodeSnapshot(&payload, snap); err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO snapshots (run_id, seq, generation, resume, payload)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM snapshots WHERE run_id = ?), ?, ?, ?)
	`, s.runID, s.runID, snap.Generation, snap.Resume.String(), payload.Bytes())
	if err != nil {
		return fmt.Errorf("save generation %d of run %s: %w", snap.Generation, s.runID, err)
	}
	return nil
}

// Load returns the run's most recently saved snapshot.
func (s *SQLiteCheckpointer) Load(ctx context.Context) (*neat.Snapshot, error) {
	return s.load(ctx, `SELECT payload FROM snapshots WHERE run_id = ? ORDER BY seq DESC LIMIT 1`, s.runID)
}

// LoadGeneration returns the most recent save of generation.
func (s *SQLiteCheckpointer) LoadGeneration(ctx context.Context, generation int) (*neat.Snapshot, error) {
	return s.load(ctx, `SELECT payload FROM snapshots WHERE run_id = ? AND generation = ? ORDER BY seq DESC LIMIT 1`, s.runID, generation)
}

// Generations lists the distinct saved generations of the run in ascending order.
func (s *SQLiteCheckpointer) Generations(ctx context.Context) ([]int, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT DISTINCT generation FROM snapshots WHERE run_id = ? ORDER BY generation`, s.runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var generations []int
	for rows.Next() {
		var g int
		if err := rows.Scan(&g); err != nil {
			return nil, err
		}
		generations = append(generations, g)
	}
	return generations, rows.Err()
}

// Close releases the database.
func (s *SQLiteCheckpointer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteCheckpointer) load(ctx context.Context, query string, args ...any) (*neat.Snapshot, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	var payload []byte
	if err := db.QueryRowContext(ctx, query, args...).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w %s", ErrNoSnapshot, s.runID)
		}
		return nil, err
	}
	snap, err := neat.DecodeSnapshot(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("decode snapshot of run %s: %w", s.runID, err)
	}
	return snap, nil
}

func (s *SQLiteCheckpointer) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS snapshots (
			run_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			generation INTEGER NOT NULL,
			resume TEXT NOT NULL,
			payload BLOB NOT NULL,
			saved_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (run_id, seq)
		);
		CREATE INDEX IF NOT EXISTS snapshots_generation ON snapshots (run_id, generation);
	`)
	return err
}
