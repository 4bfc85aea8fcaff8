// Package eventstore provides an append-only SQLite store for
// listening events with time-ranged queries.
package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ottara/tunebox/internal/domain/event"
)

const schema = `
CREATE TABLE IF NOT EXISTS listen (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	track_id    TEXT NOT NULL,
	track_name  TEXT NOT NULL DEFAULT '',
	artist_id   TEXT NOT NULL DEFAULT '',
	artist_name TEXT NOT NULL DEFAULT '',
	genres      TEXT NOT NULL DEFAULT '[]',
	mood        TEXT NOT NULL DEFAULT '',
	skipped     INTEGER NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	played_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_listen_played_at ON listen (played_at);
`

// Store is a SQLite-backed listening-event store.
type Store struct {
	db *sql.DB
}

// New opens (and if needed initializes) the store at path.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to create schema")
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append records one listening event.
func (s *Store) Append(ctx context.Context, ev event.Listening) error {
	return s.AppendBatch(ctx, []event.Listening{ev})
}

// AppendBatch records a batch of listening events transactionally.
func (s *Store) AppendBatch(ctx context.Context, events []event.Listening) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO listen (track_id, track_name, artist_id, artist_name, genres, mood, skipped, duration_ms, played_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare insert")
	}
	defer stmt.Close()

	for _, ev := range events {
		genres, err := json.Marshal(ev.Genres)
		if err != nil {
			return errors.Wrapf(err, "failed to encode genres for track %s", ev.TrackID)
		}

		skipped := 0
		if ev.Skipped {
			skipped = 1
		}

		if _, err := stmt.ExecContext(ctx,
			ev.TrackID, ev.TrackName, ev.ArtistID, ev.ArtistName,
			string(genres), ev.Mood, skipped,
			ev.PlayDuration.Milliseconds(), ev.PlayedAt.UTC().Unix(),
		); err != nil {
			return errors.Wrapf(err, "failed to insert listen for track %s", ev.TrackID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit")
	}
	return nil
}

// Query returns events with from <= played_at <= to, ordered by
// timestamp ascending.
func (s *Store) Query(ctx context.Context, from, to time.Time) ([]event.Listening, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT track_id, track_name, artist_id, artist_name, genres, mood, skipped, duration_ms, played_at
		FROM listen
		WHERE played_at BETWEEN ? AND ?
		ORDER BY played_at ASC`,
		from.UTC().Unix(), to.UTC().Unix())
	if err != nil {
		return nil, errors.Wrap(err, "failed to query listens")
	}
	defer rows.Close()

	var events []event.Listening
	for rows.Next() {
		var (
			ev         event.Listening
			genres     string
			skipped    int
			durationMS int64
			playedAt   int64
		)
		if err := rows.Scan(&ev.TrackID, &ev.TrackName, &ev.ArtistID, &ev.ArtistName,
			&genres, &ev.Mood, &skipped, &durationMS, &playedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan listen row")
		}

		if err := json.Unmarshal([]byte(genres), &ev.Genres); err != nil {
			return nil, errors.Wrapf(err, "failed to decode genres for track %s", ev.TrackID)
		}
		ev.Skipped = skipped != 0
		ev.PlayDuration = time.Duration(durationMS) * time.Millisecond
		ev.PlayedAt = time.Unix(playedAt, 0).UTC()

		events = append(events, ev)
	}
	return events, rows.Err()
}

// Count returns the total number of recorded events.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM listen").Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count listens")
	}
	return count, nil
}
