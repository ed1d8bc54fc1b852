// Package cache persists deep extraction results in SQLite so repeated enrichments of
// the same URL skip the network.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/shpitdev/linknest/pkg/card"
	"github.com/shpitdev/linknest/pkg/extract"
)

var _ extract.Cache = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS extractions (
	url        TEXT PRIMARY KEY,
	content    TEXT NOT NULL,
	stored_at  INTEGER NOT NULL
)`

// Store is a TTL cache of card.ExtractedContent keyed by URL.
type Store struct {
	db     *sql.DB
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// Open creates or opens the cache database at path.
func Open(path string, ttl time.Duration, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return &Store{db: db, ttl: ttl, logger: logger, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the cached content for rawURL when it is younger than the TTL.
// Read errors are logged and reported as a miss.
func (s *Store) Get(ctx context.Context, rawURL string) (card.ExtractedContent, bool) {
	var raw string
	var storedAt int64
	err := s.db.QueryRowContext(ctx, `SELECT content, stored_at FROM extractions WHERE url = ?`, rawURL).Scan(&raw, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return card.ExtractedContent{}, false
	}
	if err != nil {
		s.logger.Warn("cache read failed", "err", err)
		return card.ExtractedContent{}, false
	}
	if s.expired(storedAt) {
		return card.ExtractedContent{}, false
	}
	var c card.ExtractedContent
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		s.logger.Warn("cache entry is corrupt", "url", rawURL, "err", err)
		return card.ExtractedContent{}, false
	}
	return c, true
}

func (s *Store) Put(ctx context.Context, rawURL string, c card.ExtractedContent) error {
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO extractions (url, content, stored_at) VALUES (?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET content = excluded.content, stored_at = excluded.stored_at`,
		rawURL, string(b), s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Prune deletes expired entries and returns how many were removed.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.ttl).UnixMilli()
	res, err := s.db.ExecContext(ctx, `DELETE FROM extractions WHERE stored_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning cache: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) expired(storedAt int64) bool {
	return s.ttl > 0 && s.now().Sub(time.UnixMilli(storedAt)) > s.ttl
}
