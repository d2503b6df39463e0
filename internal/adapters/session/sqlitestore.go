package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"thumbscope/internal/domain/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS session_events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL REFERENCES sessions(id),
	score      REAL NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	summary    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_session_events_session
	ON session_events(session_id, id);
`

type eventRow struct {
	Score   float64 `db:"score"`
	Title   string  `db:"title"`
	Summary string  `db:"summary"`
}

// SQLiteStore persists sessions across restarts. SQLite serializes writes
// per database, so the append-then-trim transaction keeps the cap
// invariant without extra locking.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) the database at path and applies the
// schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply session schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// GetOrCreate returns id when known, else creates a new session row.
func (s *SQLiteStore) GetOrCreate(ctx context.Context, id string) (string, error) {
	if id != "" {
		var found string
		err := s.db.GetContext(ctx, &found, `SELECT id FROM sessions WHERE id = ?`, id)
		if err == nil {
			return found, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("look up session %s: %w", id, err)
		}
	}

	newID := uuid.NewString()
	if _, err := s.db.ExecContext(ctx, `INSERT INTO sessions (id) VALUES (?)`, newID); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return newID, nil
}

// Append inserts the event and trims the session to its cap in one
// transaction.
func (s *SQLiteStore) Append(ctx context.Context, id string, ev model.SessionEvent) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions (id) VALUES (?)`, id); err != nil {
		return fmt.Errorf("ensure session %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO session_events (session_id, score, title, summary) VALUES (?, ?, ?, ?)`,
		id, ev.Score, ev.Title, ev.Summary); err != nil {
		return fmt.Errorf("insert session event: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM session_events
		WHERE session_id = ? AND id NOT IN (
			SELECT id FROM session_events
			WHERE session_id = ?
			ORDER BY id DESC
			LIMIT ?
		)`, id, id, maxEventsPerSession); err != nil {
		return fmt.Errorf("trim session events: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append tx: %w", err)
	}
	return nil
}

// Summarize renders the digest for id.
func (s *SQLiteStore) Summarize(ctx context.Context, id string) (string, error) {
	events, err := s.History(ctx, id)
	if err != nil {
		return "", err
	}
	return buildDigest(events), nil
}

// History returns the stored events, oldest first.
func (s *SQLiteStore) History(ctx context.Context, id string) ([]model.SessionEvent, error) {
	var rows []eventRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT score, title, summary FROM session_events
		WHERE session_id = ?
		ORDER BY id ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("load session history %s: %w", id, err)
	}

	out := make([]model.SessionEvent, len(rows))
	for i, r := range rows {
		out[i] = model.SessionEvent{Score: r.Score, Title: r.Title, Summary: r.Summary}
	}
	return out, nil
}

// Count returns the number of known sessions. Errors degrade to zero; the
// count only feeds the stats endpoint.
func (s *SQLiteStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM sessions`); err != nil {
		return 0
	}
	return n
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
