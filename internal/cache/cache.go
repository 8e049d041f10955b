// Package cache tracks downloaded audio files in a SQLite database so the
// same track is never fetched twice and the cache directory can be pruned
// against a byte budget.
package cache

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cadence-music/cadence/internal/logger"
	"github.com/cadence-music/cadence/internal/structures"
)

// Store is the SQLite-backed audio cache index.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens or creates the cache database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	schema := `CREATE TABLE IF NOT EXISTS audio_cache (
		track_id  TEXT PRIMARY KEY,
		file_path TEXT NOT NULL,
		file_size INTEGER NOT NULL DEFAULT 0,
		added_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f','now')),
		last_used TEXT NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f','now'))
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache table: %w", err)
	}

	return &Store{db: db}, nil
}

// Get returns the cache entry for a track and marks it as recently used.
func (s *Store) Get(trackID string) (structures.CacheEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entry structures.CacheEntry
	row := s.db.QueryRow(
		`SELECT track_id, file_path, file_size FROM audio_cache WHERE track_id = ?`, trackID)
	if err := row.Scan(&entry.TrackID, &entry.FilePath, &entry.FileSize); err != nil {
		if err != sql.ErrNoRows {
			logger.Error("Cache lookup for %s failed: %v", trackID, err)
		}
		return structures.CacheEntry{}, false
	}

	if _, err := s.db.Exec(
		`UPDATE audio_cache SET last_used = strftime('%Y-%m-%d %H:%M:%f','now') WHERE track_id = ?`, trackID); err != nil {
		logger.Warn("Failed to touch cache entry %s: %v", trackID, err)
	}
	return entry, true
}

// Put inserts or replaces the entry for a track.
func (s *Store) Put(entry structures.CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO audio_cache (track_id, file_path, file_size)
		 VALUES (?, ?, ?)
		 ON CONFLICT(track_id) DO UPDATE SET
		   file_path = excluded.file_path,
		   file_size = excluded.file_size,
		   last_used = strftime('%Y-%m-%d %H:%M:%f','now')`,
		entry.TrackID, entry.FilePath, entry.FileSize)
	if err != nil {
		return fmt.Errorf("record cache entry: %w", err)
	}
	return nil
}

// Remove drops a track's entry from the index.
func (s *Store) Remove(trackID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM audio_cache WHERE track_id = ?`, trackID); err != nil {
		return fmt.Errorf("remove cache entry: %w", err)
	}
	return nil
}

// TotalSize returns the summed size of all cached files.
func (s *Store) TotalSize() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total sql.NullInt64
	if err := s.db.QueryRow(`SELECT SUM(file_size) FROM audio_cache`).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum cache size: %w", err)
	}
	return total.Int64, nil
}

// Prune evicts least-recently-used entries and their files until the cache
// fits within maxBytes.
func (s *Store) Prune(maxBytes int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total sql.NullInt64
	if err := s.db.QueryRow(`SELECT SUM(file_size) FROM audio_cache`).Scan(&total); err != nil {
		return fmt.Errorf("sum cache size: %w", err)
	}
	if total.Int64 <= maxBytes {
		return nil
	}

	rows, err := s.db.Query(
		`SELECT track_id, file_path, file_size FROM audio_cache ORDER BY last_used ASC, rowid ASC`)
	if err != nil {
		return fmt.Errorf("list cache entries: %w", err)
	}
	defer rows.Close()

	over := total.Int64 - maxBytes
	var victims []structures.CacheEntry
	for rows.Next() && over > 0 {
		var e structures.CacheEntry
		if err := rows.Scan(&e.TrackID, &e.FilePath, &e.FileSize); err != nil {
			return fmt.Errorf("scan cache entry: %w", err)
		}
		victims = append(victims, e)
		over -= e.FileSize
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, e := range victims {
		if err := os.Remove(e.FilePath); err != nil && !os.IsNotExist(err) {
			logger.Warn("Failed to delete cached file %s: %v", e.FilePath, err)
		}
		if _, err := s.db.Exec(`DELETE FROM audio_cache WHERE track_id = ?`, e.TrackID); err != nil {
			return fmt.Errorf("evict cache entry: %w", err)
		}
		logger.Debug("Evicted %s from audio cache (%d bytes)", e.TrackID, e.FileSize)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
