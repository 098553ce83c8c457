package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Metadata keys. Sweep and changes timestamps are tracked per family so a
// movie sweep does not suppress a series changes sync.
const (
	MetaLastFullSweepMovie    = "last_full_sweep_movie"
	MetaLastFullSweepSeries   = "last_full_sweep_series"
	MetaLastChangesSyncMovie  = "last_changes_sync_movie"
	MetaLastChangesSyncSeries = "last_changes_sync_series"
)

// SetMetadata upserts a service_metadata entry.
func (db *DB) SetMetadata(ctx context.Context, key, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO service_metadata (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set metadata %s: %w", key, err)
	}
	return nil
}

// GetMetadata returns the value for a key, or "" when unset.
func (db *DB) GetMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx, "SELECT value FROM service_metadata WHERE key = $1", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get metadata %s: %w", key, err)
	}
	return value, nil
}

// GetMetadataTime parses a stored RFC 3339 timestamp. The zero time is
// returned when the key is unset or unparseable.
func (db *DB) GetMetadataTime(ctx context.Context, key string) (time.Time, error) {
	value, err := db.GetMetadata(ctx, key)
	if err != nil || value == "" {
		return time.Time{}, err
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, nil
	}
	return ts, nil
}

// SetMetadataTime stores a timestamp in RFC 3339 form.
func (db *DB) SetMetadataTime(ctx context.Context, key string, ts time.Time) error {
	return db.SetMetadata(ctx, key, ts.UTC().Format(time.RFC3339))
}
