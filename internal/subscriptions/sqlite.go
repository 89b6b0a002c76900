package subscriptions

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a favorites table. It can share a
// database handle with the venue store.
type SQLiteStore struct {
	db    *sql.DB
	owned bool
}

// NewSQLiteStore opens its own database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	s, err := NewSQLiteStoreFromDB(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// NewSQLiteStoreFromDB uses an existing handle. Close leaves it open.
func NewSQLiteStoreFromDB(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.initialize(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS favorites (
		device_id TEXT NOT NULL,
		venue_id TEXT NOT NULL,
		created_at INTEGER NOT NULL DEFAULT (unixepoch()),
		PRIMARY KEY (venue_id, device_id)
	);
	CREATE INDEX IF NOT EXISTS idx_favorites_device ON favorites(device_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Favorite records the pairing. Repeating it is a no-op.
func (s *SQLiteStore) Favorite(ctx context.Context, deviceID, venueID string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO favorites (device_id, venue_id) VALUES (?, ?)",
		deviceID, venueID,
	)
	if err != nil {
		return fmt.Errorf("insert favorite: %w", err)
	}
	return nil
}

// Unfavorite removes the pairing.
func (s *SQLiteStore) Unfavorite(ctx context.Context, deviceID, venueID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM favorites WHERE device_id = ? AND venue_id = ?",
		deviceID, venueID,
	)
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	return nil
}

func (s *SQLiteStore) IsFavorited(ctx context.Context, deviceID, venueID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM favorites WHERE device_id = ? AND venue_id = ?",
		deviceID, venueID,
	).Scan(&n)
	if err != nil {
		return false, ErrLookupFailed.WithContext("venue_id", venueID).Wrap(err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) FavoritesOf(ctx context.Context, venueID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT device_id FROM favorites WHERE venue_id = ? ORDER BY device_id",
		venueID,
	)
	if err != nil {
		return nil, ErrLookupFailed.WithContext("venue_id", venueID).Wrap(err)
	}
	defer func() { _ = rows.Close() }()

	var devices []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, ErrLookupFailed.WithContext("venue_id", venueID).Wrap(err)
		}
		devices = append(devices, id)
	}
	if err := rows.Err(); err != nil {
		return nil, ErrLookupFailed.WithContext("venue_id", venueID).Wrap(err)
	}
	return devices, nil
}

// Close closes the database if this store opened it.
func (s *SQLiteStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}
