package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cadence-music/cadence/internal/structures"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPutGetRemove(t *testing.T) {
	store := openTestStore(t)

	if _, ok := store.Get("missing"); ok {
		t.Error("Get returned ok for a missing entry")
	}

	entry := structures.CacheEntry{TrackID: "t1", FilePath: "/tmp/t1.mp3", FileSize: 1234}
	if err := store.Put(entry); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	got, ok := store.Get("t1")
	if !ok {
		t.Fatal("Get returned !ok after Put")
	}
	if got != entry {
		t.Errorf("Get = %+v, want %+v", got, entry)
	}

	// Put again replaces.
	entry.FilePath = "/tmp/other.mp3"
	if err := store.Put(entry); err != nil {
		t.Fatal(err)
	}
	if got, _ := store.Get("t1"); got.FilePath != "/tmp/other.mp3" {
		t.Errorf("FilePath = %q after re-Put, want /tmp/other.mp3", got.FilePath)
	}

	if err := store.Remove("t1"); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if _, ok := store.Get("t1"); ok {
		t.Error("entry still present after Remove")
	}
}

func TestTotalSize(t *testing.T) {
	store := openTestStore(t)
	store.Put(structures.CacheEntry{TrackID: "a", FilePath: "/a", FileSize: 100})
	store.Put(structures.CacheEntry{TrackID: "b", FilePath: "/b", FileSize: 250})

	total, err := store.TotalSize()
	if err != nil {
		t.Fatal(err)
	}
	if total != 350 {
		t.Errorf("TotalSize = %d, want 350", total)
	}
}

func TestPruneEvictsLeastRecentlyUsed(t *testing.T) {
	store := openTestStore(t)
	dir := t.TempDir()

	write := func(name string, size int) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	oldPath := write("old.mp3", 600)
	newPath := write("new.mp3", 600)
	store.Put(structures.CacheEntry{TrackID: "old", FilePath: oldPath, FileSize: 600})
	store.Put(structures.CacheEntry{TrackID: "new", FilePath: newPath, FileSize: 600})
	// Touch "new" so "old" is the LRU victim.
	store.Get("new")

	if err := store.Prune(1000); err != nil {
		t.Fatalf("Prune returned error: %v", err)
	}

	if _, ok := store.Get("old"); ok {
		t.Error("LRU entry survived prune")
	}
	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Error("LRU file still on disk after prune")
	}
	if _, ok := store.Get("new"); !ok {
		t.Error("recently used entry was evicted")
	}
	if _, err := os.Stat(newPath); err != nil {
		t.Errorf("recently used file missing: %v", err)
	}
}

func TestPruneNoopUnderBudget(t *testing.T) {
	store := openTestStore(t)
	store.Put(structures.CacheEntry{TrackID: "a", FilePath: "/a", FileSize: 100})

	if err := store.Prune(1000); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.Get("a"); !ok {
		t.Error("entry evicted although cache was under budget")
	}
}
