package system

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFindLatestMovie(t *testing.T) {
	dir := t.TempDir()

	files := []string{"old.yaml", "newest.yml", "middle.yaml", "ignored.txt"}
	for i, name := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("tags: []"), 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		modTime := time.Now().Add(time.Duration(i) * time.Hour)
		if name == "newest.yml" {
			modTime = time.Now().Add(10 * time.Hour)
		}
		os.Chtimes(path, modTime, modTime)
	}

	latest, err := FindLatestMovie(dir)
	if err != nil {
		t.Fatalf("FindLatestMovie failed: %v", err)
	}
	if filepath.Base(latest) != "newest.yml" {
		t.Errorf("Expected newest.yml, got %s", latest)
	}
}

func TestFindLatestMovieEmpty(t *testing.T) {
	if _, err := FindLatestMovie(t.TempDir()); err == nil {
		t.Error("Expected error for empty directory")
	}
}

func TestCurrentProcessStats(t *testing.T) {
	stats, err := CurrentProcessStats()
	if err != nil {
		t.Skipf("process stats unavailable: %v", err)
	}
	if stats.RSS == 0 {
		t.Error("Expected non-zero RSS")
	}
	t.Logf("RSS: %d bytes, threads: %d", stats.RSS, stats.Threads)
}
