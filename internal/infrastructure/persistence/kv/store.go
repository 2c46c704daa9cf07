// Package kv implements the persistent cache backend on a dedicated
// sqlite file, kept separate from the behavior database
package kv

import (
	"database/sql"
	"time"

	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/caching/interfaces"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/persistence/database"
)

var _ interfaces.Backend = (*Store)(nil)

// Store persists cache entries to SQL so warm data survives restarts.
// Values are opaque JSON blobs; only expiry is interpreted here.
type Store struct {
	db  *database.DB
	now func() time.Time
}

// NewStore creates a backend bound to the given database
func NewStore(db *database.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// EnsureTable creates the cache_entries table when missing
func (s *Store) EnsureTable() error {
	const stmt = `CREATE TABLE IF NOT EXISTS cache_entries (
		key TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expires_at TIMESTAMP
	)`
	_, err := s.db.Exec(stmt)
	return err
}

// Get returns the stored bytes for key. Expired rows are deleted on read
// and reported as absent.
func (s *Store) Get(key string) ([]byte, bool, error) {
	const query = `SELECT data, expires_at FROM cache_entries WHERE key = ?`

	var data []byte
	var expiresAt sql.NullTime
	err := s.db.QueryRow(query, key).Scan(&data, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if expiresAt.Valid && s.now().After(expiresAt.Time) {
		if err := s.Delete(key); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	return data, true, nil
}

// Set upserts the entry. A non-positive ttl stores the row without expiry.
func (s *Store) Set(key string, data []byte, ttl time.Duration) error {
	const query = `
		INSERT INTO cache_entries (key, data, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at`

	var expiresAt any
	if ttl > 0 {
		expiresAt = s.now().Add(ttl)
	}
	_, err := s.db.Exec(query, key, data, expiresAt)
	return err
}

// Delete removes the entry for key
func (s *Store) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM cache_entries WHERE key = ?`, key)
	return err
}

// DeletePrefix removes every entry whose key starts with prefix and returns
// how many rows were deleted
func (s *Store) DeletePrefix(prefix string) (int, error) {
	result, err := s.db.Exec(`DELETE FROM cache_entries WHERE key LIKE ? || '%'`, prefix)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// Close releases the store's database connection
func (s *Store) Close() error {
	return s.db.Close()
}
