package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/mathschool/sync-core/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
	collection TEXT PRIMARY KEY,
	body       BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL
);`

// SQLiteStore keeps snapshots in a single-file database, the durable local
// analog of the browser-resident cache.
type SQLiteStore struct {
	db       *sqlx.DB
	capacity int64
}

// NewSQLiteStore opens (creating if needed) the snapshot database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		path = "./data/cache.db"
	}
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare snapshot schema: %w", err)
	}
	return &SQLiteStore{db: db, capacity: DefaultCapacity}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Backup overwrites the collection snapshot.
func (s *SQLiteStore) Backup(ctx context.Context, collection string, payload interface{}) error {
	raw, err := encodeSnapshot(payload)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", collection, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (collection, body, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(collection) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		collection, raw, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("write snapshot %s: %w", collection, err)
	}
	return nil
}

// Restore loads the last snapshot payload into dest.
func (s *SQLiteStore) Restore(ctx context.Context, collection string, dest interface{}) (bool, error) {
	var raw []byte
	err := s.db.GetContext(ctx, &raw, `SELECT body FROM snapshots WHERE collection = ?`, collection)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("read snapshot %s: %w", collection, err)
	}
	return decodeSnapshot(raw, dest), nil
}

// ClearAll removes every stored snapshot row.
func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots`); err != nil {
		return fmt.Errorf("clear snapshots: %w", err)
	}
	return nil
}

// Usage sums stored snapshot sizes.
func (s *SQLiteStore) Usage(ctx context.Context) (models.CacheUsage, error) {
	var used int64
	err := s.db.GetContext(ctx, &used, `SELECT COALESCE(SUM(LENGTH(body)), 0) FROM snapshots`)
	if err != nil {
		return models.CacheUsage{}, fmt.Errorf("measure snapshots: %w", err)
	}
	return usageFrom(used, s.capacity), nil
}
