package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/venuestatus/internal/venue"
)

// SQLiteStore implements Gateway using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (and creates if needed) the venue database.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// :memory: databases are per-connection.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

// DB exposes the handle so other stores can share the database file.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS venues (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		last_updated INTEGER NOT NULL,
		payload TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_venues_owner ON venues(owner_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save upserts the snapshot. An older snapshot never overwrites a newer one.
func (s *SQLiteStore) Save(ctx context.Context, v venue.Venue) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal venue %s: %w", v.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO venues (id, owner_id, last_updated, payload) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id,
			last_updated = excluded.last_updated,
			payload = excluded.payload
		WHERE excluded.last_updated >= venues.last_updated`,
		v.ID, v.OwnerID, v.LastUpdated.UnixNano(), string(payload),
	)
	if err != nil {
		return ErrPersistenceFailure.WithContext("venue_id", v.ID).Wrap(err)
	}
	return nil
}

// Get returns a single venue.
func (s *SQLiteStore) Get(ctx context.Context, id string) (venue.Venue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM venues WHERE id = ?", id).Scan(&payload)
	if err == sql.ErrNoRows {
		return venue.Venue{}, venue.ErrVenueNotFound.WithContext("venue_id", id)
	}
	if err != nil {
		return venue.Venue{}, fmt.Errorf("query venue %s: %w", id, err)
	}
	var v venue.Venue
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return venue.Venue{}, fmt.Errorf("decode venue %s: %w", id, err)
	}
	return v, nil
}

// LoadAll returns every stored venue ordered by id.
func (s *SQLiteStore) LoadAll(ctx context.Context) ([]venue.Venue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, payload FROM venues ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query venues: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []venue.Venue
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scan venue: %w", err)
		}
		var v venue.Venue
		if err := json.Unmarshal([]byte(payload), &v); err != nil {
			return nil, fmt.Errorf("decode venue %s: %w", id, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Delete removes a venue. Deleting an unknown id is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM venues WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete venue %s: %w", id, err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
