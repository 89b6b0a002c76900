package eventstore

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/venuestatus/internal/venue"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db    *sql.DB
	mu    sync.RWMutex
	owned bool
}

// NewSQLiteStore creates a new SQLite-based history store.
// Use ":memory:" for in-memory database, or a file path for persistent storage.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, owned: true}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

// NewSQLiteStoreFromDB stores history in an already open database. Close
// leaves db open.
func NewSQLiteStoreFromDB(db *sql.DB) (*SQLiteStore, error) {
	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS transitions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		venue_id TEXT NOT NULL,
		venue_name TEXT NOT NULL,
		old_status TEXT NOT NULL,
		new_status TEXT NOT NULL,
		by_schedule INTEGER NOT NULL,
		seq INTEGER NOT NULL,
		occurred_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transitions_venue ON transitions(venue_id, id);
	CREATE INDEX IF NOT EXISTS idx_transitions_occurred ON transitions(occurred_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append adds a transition to the history.
func (s *SQLiteStore) Append(ctx context.Context, ev venue.TransitionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transitions (venue_id, venue_name, old_status, new_status, by_schedule, seq, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.VenueID, ev.VenueName, string(ev.OldStatus), string(ev.NewStatus),
		ev.CausedBySchedule, int64(ev.Seq), ev.OccurredAt.UnixNano(),
	)
	if err != nil {
		return ErrEventAppendFailed.WithContext("venue_id", ev.VenueID).Wrap(err)
	}
	return nil
}

const selectColumns = "SELECT venue_id, venue_name, old_status, new_status, by_schedule, seq, occurred_at FROM transitions"

// ByVenue returns the most recent transitions of one venue, newest first.
func (s *SQLiteStore) ByVenue(ctx context.Context, venueID string, limit int) ([]venue.TransitionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		selectColumns+" WHERE venue_id = ? ORDER BY id DESC LIMIT ?",
		venueID, limit,
	)
	if err != nil {
		return nil, ErrEventQueryFailed.WithContext("venue_id", venueID).Wrap(err)
	}
	defer func() { _ = rows.Close() }()

	return scanEvents(rows)
}

// Range returns transitions within [start, end] in append order.
func (s *SQLiteStore) Range(ctx context.Context, start, end time.Time) ([]venue.TransitionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		selectColumns+" WHERE occurred_at >= ? AND occurred_at <= ? ORDER BY id",
		start.UnixNano(), end.UnixNano(),
	)
	if err != nil {
		return nil, ErrEventQueryFailed.Wrap(err)
	}
	defer func() { _ = rows.Close() }()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]venue.TransitionEvent, error) {
	var events []venue.TransitionEvent
	for rows.Next() {
		var (
			ev              venue.TransitionEvent
			oldStatus       string
			newStatus       string
			seq, occurredAt int64
		)
		err := rows.Scan(&ev.VenueID, &ev.VenueName, &oldStatus, &newStatus, &ev.CausedBySchedule, &seq, &occurredAt)
		if err != nil {
			return nil, ErrEventQueryFailed.Wrap(fmt.Errorf("scan transition: %w", err))
		}
		ev.OldStatus = venue.Status(oldStatus)
		ev.NewStatus = venue.Status(newStatus)
		ev.Seq = uint64(seq)
		ev.OccurredAt = time.Unix(0, occurredAt).UTC()
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, ErrEventQueryFailed.Wrap(fmt.Errorf("iterate rows: %w", err))
	}
	return events, nil
}

// Close closes the database connection when the store opened it.
func (s *SQLiteStore) Close() error {
	if !s.owned {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
