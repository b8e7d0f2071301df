package history

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists execution records to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite history store.
// The path should be a file path (e.g., "./history.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS executions (
			id TEXT NOT NULL,
			execution_id TEXT NOT NULL PRIMARY KEY,
			status TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			result BLOB NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_executions_started_at
		ON executions(started_at)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	_, err := s.db.Exec(`
		INSERT INTO executions (id, execution_id, status, started_at, finished_at, result)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(execution_id) DO UPDATE SET
			status = excluded.status,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at,
			result = excluded.result
	`, rec.ID, rec.ExecutionID, rec.Status,
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		rec.FinishedAt.UTC().Format(time.RFC3339Nano),
		rec.Result)

	if err != nil {
		return fmt.Errorf("save execution record: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *SQLiteStore) Load(executionID string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return Record{}, ErrStoreClosed
	}

	var rec Record
	var startedAt, finishedAt string
	err := s.db.QueryRow(`
		SELECT id, execution_id, status, started_at, finished_at, result
		FROM executions
		WHERE execution_id = ?
	`, executionID).Scan(&rec.ID, &rec.ExecutionID, &rec.Status, &startedAt, &finishedAt, &rec.Result)

	if err == sql.ErrNoRows {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("load execution record: %w", err)
	}

	rec.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
	rec.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedAt)
	return rec, nil
}

// List implements Store.
func (s *SQLiteStore) List(limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	query := `
		SELECT id, execution_id, status, started_at, finished_at, result
		FROM executions
		ORDER BY started_at DESC
	`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.Query(query+" LIMIT ?", limit)
	} else {
		rows, err = s.db.Query(query)
	}
	if err != nil {
		return nil, fmt.Errorf("list execution records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var startedAt, finishedAt string
		if err := rows.Scan(&rec.ID, &rec.ExecutionID, &rec.Status, &startedAt, &finishedAt, &rec.Result); err != nil {
			return nil, fmt.Errorf("scan execution record: %w", err)
		}
		rec.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		rec.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedAt)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate execution records: %w", err)
	}

	return records, nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(executionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.Exec(`
		DELETE FROM executions WHERE execution_id = ?
	`, executionID)
	if err != nil {
		return fmt.Errorf("delete execution record: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}
