package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Get returns the cached value for key if it has not expired. It satisfies
// cache.Cache so SQLite can back the forecast cache without Redis.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var compressed []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT payload_compressed FROM forecast_cache WHERE key = ? AND expires_at > ?
	`, key, s.now().Unix()).Scan(&compressed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cache %s: %w", key, err)
	}

	val, err := decompress(compressed)
	if err != nil {
		return nil, false, fmt.Errorf("get cache %s: %w", key, err)
	}
	return val, true, nil
}

// Set stores val under key for ttl, replacing any previous entry.
func (s *Store) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	compressed, err := compress(val)
	if err != nil {
		return err
	}
	now := s.now()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO forecast_cache (key, payload_compressed, stored_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			payload_compressed = excluded.payload_compressed,
			stored_at = excluded.stored_at,
			expires_at = excluded.expires_at
	`, key, compressed, now.Unix(), now.Add(ttl).Unix())
	if err != nil {
		return fmt.Errorf("set cache %s: %w", key, err)
	}
	return nil
}

// PurgeExpired deletes expired cache entries and returns how many went.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM forecast_cache WHERE expires_at <= ?`, s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("purge cache: %w", err)
	}
	return result.RowsAffected()
}
