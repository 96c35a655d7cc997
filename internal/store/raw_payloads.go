package store

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"time"
)

// RawPayload is a stored provider response.
type RawPayload struct {
	ID                int64
	FetchRunID        sql.NullString
	FetchedAt         time.Time
	Provider          string
	Endpoint          string
	LocationKey       sql.NullString
	PayloadCompressed []byte
	PayloadHash       string
}

func compress(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(payload); err != nil {
		return nil, fmt.Errorf("compress payload: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("close gzip: %w", err)
	}
	return buf.Bytes(), nil
}

func decompress(compressed []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("create gzip reader: %w", err)
	}
	defer gz.Close()
	return io.ReadAll(gz)
}

// PayloadHash is the hex sha256 used to deduplicate payloads.
func PayloadHash(payload []byte) string {
	hash := sha256.Sum256(payload)
	return hex.EncodeToString(hash[:])
}

// StoreRawPayload stores a compressed provider response.
// Returns the payload ID, or 0 if the payload was a duplicate (same hash).
func (s *Store) StoreRawPayload(ctx context.Context, runID, provider, endpoint, locationKey string, payload []byte) (int64, error) {
	hash := PayloadHash(payload)
	existing, err := s.GetRawPayloadByHash(ctx, hash)
	if err != nil {
		return 0, fmt.Errorf("check raw payload: %w", err)
	}
	if existing != nil {
		return 0, nil
	}

	compressed, err := compress(payload)
	if err != nil {
		return 0, err
	}

	var runIDNull, locationKeyNull sql.NullString
	if runID != "" {
		runIDNull = sql.NullString{String: runID, Valid: true}
	}
	if locationKey != "" {
		locationKeyNull = sql.NullString{String: locationKey, Valid: true}
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO raw_payloads
		(fetch_run_id, fetched_at, provider, endpoint, location_key, payload_compressed, payload_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(payload_hash) DO NOTHING
	`, runIDNull, s.now().Unix(), provider, endpoint, locationKeyNull, compressed, hash)
	if err != nil {
		return 0, fmt.Errorf("insert raw payload: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil || n == 0 {
		return 0, err
	}
	return result.LastInsertId()
}

// GetRawPayloadByHash retrieves a payload by its hash, or nil if absent.
func (s *Store) GetRawPayloadByHash(ctx context.Context, hash string) (*RawPayload, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, fetch_run_id, fetched_at, provider, endpoint, location_key,
		       payload_compressed, payload_hash
		FROM raw_payloads WHERE payload_hash = ?
	`, hash)

	var p RawPayload
	var fetched int64
	err := row.Scan(&p.ID, &p.FetchRunID, &fetched, &p.Provider, &p.Endpoint,
		&p.LocationKey, &p.PayloadCompressed, &p.PayloadHash)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.FetchedAt = time.Unix(fetched, 0).In(s.loc)
	return &p, nil
}

// CleanupOldRawPayloads deletes raw payloads older than the given number of
// days and returns the number of deleted records.
func (s *Store) CleanupOldRawPayloads(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := s.now().AddDate(0, 0, -retentionDays).Unix()
	result, err := s.db.ExecContext(ctx, `DELETE FROM raw_payloads WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
