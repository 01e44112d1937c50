// Package history keeps a best-effort audit log of workflow runs in
// Postgres. Recording failures are logged, never surfaced to the caller.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS query_history (
	id SERIAL PRIMARY KEY,
	question TEXT NOT NULL,
	answer TEXT,
	error TEXT,
	status VARCHAR(20) NOT NULL,
	duration_ms BIGINT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

// Entry is one recorded workflow run.
type Entry struct {
	ID        int
	Question  string
	Answer    string
	Error     string
	Status    string
	Duration  time.Duration
	CreatedAt time.Time
}

// Store is the Postgres-backed history log.
type Store struct {
	db  *sql.DB
	log *log.Logger
}

// Open connects to Postgres and bootstraps the schema.
func Open(url string, logger *log.Logger) (*Store, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return &Store{db: db, log: logger.With("component", "history")}, nil
}

// Record writes one entry. Failures are logged and swallowed.
func (s *Store) Record(ctx context.Context, e Entry) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO query_history (question, answer, error, status, duration_ms) VALUES ($1, $2, $3, $4, $5)`,
		e.Question, e.Answer, e.Error, e.Status, e.Duration.Milliseconds())
	if err != nil {
		s.log.Warn("history insert failed", "err", err)
	}
}

// Recent returns the latest entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question, COALESCE(answer, ''), COALESCE(error, ''), status, duration_ms, created_at
		 FROM query_history ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var durationMs int64
		if err := rows.Scan(&e.ID, &e.Question, &e.Answer, &e.Error, &e.Status, &durationMs, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Duration = time.Duration(durationMs) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
