// Package session persists per-browser-session values that the web
// handlers need across requests: the chosen UI language and the search
// snapshot used to restore the results page after visiting an artist.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Snapshot is the search state captured when the user drills down from
// the results page to an artist page. It is consumed exactly once on
// back-navigation.
type Snapshot struct {
	Query string `json:"query"`
	Page  int    `json:"page"`
	Type  string `json:"type"`
}

// Store is a SQLite-backed key-value store keyed by session id.
type Store struct {
	db *sql.DB
}

// NewStore opens (and if needed creates) the session database at
// dbPath. Use ":memory:" for tests.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection keeps in-memory databases consistent and is
	// plenty for this access pattern.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA journal_mode = WAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS languages (
			session_id TEXT PRIMARY KEY,
			language TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS search_snapshots (
			session_id TEXT PRIMARY KEY,
			snapshot TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_languages_updated ON languages(updated_at);
		CREATE INDEX IF NOT EXISTS idx_snapshots_created ON search_snapshots(created_at);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SetLanguage persists the session's UI language choice.
func (s *Store) SetLanguage(ctx context.Context, sessionID, language string) error {
	query := `
		INSERT INTO languages (session_id, language, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET language = excluded.language, updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, sessionID, language, time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to store language: %w", err)
	}
	return nil
}

// Language returns the session's persisted language, or "" when none
// is stored. Validation against the supported set is the caller's
// concern; an unsupported stored value is simply ignored there.
func (s *Store) Language(ctx context.Context, sessionID string) (string, error) {
	var language string
	err := s.db.QueryRowContext(ctx,
		`SELECT language FROM languages WHERE session_id = ?`, sessionID).Scan(&language)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read language: %w", err)
	}
	return language, nil
}

// SaveSnapshot stores the search snapshot for a session, replacing any
// previous one.
func (s *Store) SaveSnapshot(ctx context.Context, sessionID string, snap Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	query := `
		INSERT INTO search_snapshots (session_id, snapshot, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET snapshot = excluded.snapshot, created_at = excluded.created_at
	`
	if _, err := s.db.ExecContext(ctx, query, sessionID, string(payload), time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	return nil
}

// TakeSnapshot returns the session's search snapshot and deletes it,
// so it is consumed exactly once. Returns nil when none is stored.
func (s *Store) TakeSnapshot(ctx context.Context, sessionID string) (*Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var payload string
	err = tx.QueryRowContext(ctx,
		`SELECT snapshot FROM search_snapshots WHERE session_id = ?`, sessionID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM search_snapshots WHERE session_id = ?`, sessionID); err != nil {
		return nil, fmt.Errorf("failed to consume snapshot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		// A corrupt snapshot is discarded, not surfaced.
		return nil, nil
	}
	return &snap, nil
}

// PruneBefore removes languages and snapshots last touched before
// cutoff.
func (s *Store) PruneBefore(ctx context.Context, cutoff time.Time) error {
	ts := cutoff.Unix()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM languages WHERE updated_at < ?`, ts); err != nil {
		return fmt.Errorf("failed to prune languages: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM search_snapshots WHERE created_at < ?`, ts); err != nil {
		return fmt.Errorf("failed to prune snapshots: %w", err)
	}
	return nil
}
