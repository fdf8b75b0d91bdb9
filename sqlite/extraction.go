package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fwojciec/clipper"
)

var _ clipper.ExtractionStore = (*ExtractionStore)(nil)

// ExtractionStore implements clipper.ExtractionStore using SQLite.
type ExtractionStore struct {
	db *DB
}

// NewExtractionStore creates a new ExtractionStore.
func NewExtractionStore(db *DB) *ExtractionStore {
	return &ExtractionStore{db: db}
}

// FindExtraction returns the stored result for url and when it was cached.
func (s *ExtractionStore) FindExtraction(ctx context.Context, url string) (*clipper.ExtractionResult, time.Time, error) {
	var payload, cachedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT result_json, cached_at
		FROM extractions
		WHERE url_hash = ? AND url = ?
	`, hashURL(url), url).Scan(&payload, &cachedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, clipper.Errorf(clipper.ENOTFOUND, "no stored extraction for %s", url)
	}
	if err != nil {
		return nil, time.Time{}, err
	}

	var result clipper.ExtractionResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to decode result_json: %w", err)
	}
	at, err := parseTime(cachedAt, "cached_at")
	if err != nil {
		return nil, time.Time{}, err
	}
	return &result, at, nil
}

// SaveExtraction stores result for url, replacing any previous value.
func (s *ExtractionStore) SaveExtraction(ctx context.Context, url string, result *clipper.ExtractionResult, cachedAt time.Time) error {
	if url == "" {
		return clipper.Errorf(clipper.EINVALID, "url required")
	}
	if result == nil {
		return clipper.Errorf(clipper.EINVALID, "result required")
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO extractions (url_hash, url, result_json, cached_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(url_hash) DO UPDATE SET
			url = excluded.url,
			result_json = excluded.result_json,
			cached_at = excluded.cached_at
	`, hashURL(url), url, string(payload), cachedAt.UTC().Format(timeLayout))
	return err
}

// DeleteExtractions removes every stored result.
func (s *ExtractionStore) DeleteExtractions(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM extractions`)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// PurgeExtractions removes results cached before cutoff.
func (s *ExtractionStore) PurgeExtractions(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM extractions WHERE cached_at < ?`, cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
