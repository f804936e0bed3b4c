package history

import (
	"database/sql"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Entry is one recorded playback event.
type Entry struct {
	ID       int64
	Title    string
	URL      string
	Outcome  string
	OffsetMs int64
	At       time.Time
}

// Store is the SQLite-backed play history. It records what the player did
// for observability; it is never consulted to resume playback.
type Store struct {
	log zerolog.Logger
	mu  sync.Mutex
	db  *sql.DB
}

// Open creates or opens the history database and runs the schema.
func Open(log zerolog.Logger, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening history database")
	}

	schema := `
	CREATE TABLE IF NOT EXISTS plays (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		url TEXT NOT NULL,
		outcome TEXT NOT NULL,
		offset_ms INTEGER NOT NULL DEFAULT 0,
		played_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initializing history schema")
	}

	return &Store{
		log: log.With().Str("component", "history").Logger(),
		db:  db,
	}, nil
}

// Record stores one playback event. Failures are logged, never propagated:
// history must not affect playback.
func (s *Store) Record(title, url, outcome string, offset time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO plays (title, url, outcome, offset_ms) VALUES (?, ?, ?, ?)`,
		title, url, outcome, offset.Milliseconds(),
	)
	if err != nil {
		s.log.Warn().Err(err).Str("title", title).Msg("failed to record play")
	}
}

// Recent returns the latest entries, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT id, title, url, outcome, offset_ms, played_at
		 FROM plays ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying play history")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Title, &e.URL, &e.Outcome, &e.OffsetMs, &e.At); err != nil {
			return nil, errors.Wrap(err, "scanning play history row")
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
