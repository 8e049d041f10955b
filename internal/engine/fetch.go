package engine

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cadence-music/cadence/internal/cache"
	"github.com/cadence-music/cadence/internal/logger"
	"github.com/cadence-music/cadence/internal/structures"
)

// Fetcher resolves audio refs into local files. Local draft paths pass
// through untouched; remote URLs are downloaded into the cache directory once
// and reused afterwards. beep's MP3 seeker needs a ReadSeeker, so playback is
// always from a file, never straight off the network.
type Fetcher struct {
	store    *cache.Store
	dir      string
	maxBytes int64
	client   *http.Client
}

// NewFetcher creates a fetcher that stores downloads under dir and keeps the
// cache below maxBytes (0 disables pruning).
func NewFetcher(store *cache.Store, dir string, maxBytes int64) *Fetcher {
	return &Fetcher{
		store:    store,
		dir:      dir,
		maxBytes: maxBytes,
		client:   &http.Client{Timeout: 2 * time.Minute},
	}
}

// Resolve returns a playable local path for the track's audio ref.
func (f *Fetcher) Resolve(track structures.Track) (string, error) {
	if track.Audio.IsLocal() {
		if _, err := os.Stat(track.Audio.LocalPath); err != nil {
			return "", fmt.Errorf("local draft audio: %w", err)
		}
		return track.Audio.LocalPath, nil
	}
	if track.Audio.URL == "" {
		return "", fmt.Errorf("track %s has no audio source", track.ID)
	}

	if entry, ok := f.store.Get(track.ID); ok {
		if _, err := os.Stat(entry.FilePath); err == nil {
			return entry.FilePath, nil
		}
		// Stale row, the file was deleted out from under us.
		if err := f.store.Remove(track.ID); err != nil {
			logger.Warn("Failed to drop stale cache row for %s: %v", track.ID, err)
		}
	}

	path, size, err := f.download(track)
	if err != nil {
		return "", err
	}

	if err := f.store.Put(structures.CacheEntry{TrackID: track.ID, FilePath: path, FileSize: size}); err != nil {
		logger.Warn("Failed to record cache entry for %s: %v", track.ID, err)
	}
	if f.maxBytes > 0 {
		if err := f.store.Prune(f.maxBytes); err != nil {
			logger.Warn("Cache prune failed: %v", err)
		}
	}
	return path, nil
}

func (f *Fetcher) download(track structures.Track) (string, int64, error) {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return "", 0, fmt.Errorf("create cache dir: %w", err)
	}

	resp, err := f.client.Get(track.Audio.URL)
	if err != nil {
		return "", 0, fmt.Errorf("fetch audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("fetch audio: unexpected status %s", resp.Status)
	}

	dest := filepath.Join(f.dir, track.ID+".mp3")
	tmp, err := os.CreateTemp(f.dir, track.ID+".*.part")
	if err != nil {
		return "", 0, fmt.Errorf("create temp file: %w", err)
	}

	size, err := io.Copy(tmp, resp.Body)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", 0, fmt.Errorf("download audio: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", 0, err
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return "", 0, fmt.Errorf("finalize download: %w", err)
	}

	logger.Info("Cached audio for %s (%d bytes)", track.ID, size)
	return dest, size, nil
}
