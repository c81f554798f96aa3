package collector

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestReadLockFileHealthy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.lock")
	content := `{"pid":123,"startTime":"2026-01-01T00:00:00Z","lastHeartbeat":"` + time.Now().Format(time.RFC3339) + `"}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	lock, err := readLockFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lock.PID != 123 || !lock.Healthy {
		t.Fatalf("unexpected lock state: %+v", lock)
	}
}

func TestReadLockFileStale(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.lock")
	stale := time.Now().Add(-time.Minute).Format(time.RFC3339)
	content := `{"pid":123,"startTime":"2026-01-01T00:00:00Z","lastHeartbeat":"` + stale + `"}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	lock, err := readLockFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lock.Healthy {
		t.Fatalf("expected stale heartbeat to be unhealthy")
	}
}

func TestReadLockFileMissing(t *testing.T) {
	if _, err := readLockFile(filepath.Join(t.TempDir(), "missing.lock")); err == nil {
		t.Fatalf("expected an error for a missing lock file")
	}
}

func TestErrorLogPath(t *testing.T) {
	if got := errorLogPath("/var/state/app.lock"); got != "/var/state/app.errlog" {
		t.Fatalf("unexpected error log path: %s", got)
	}
}

func TestReadErrorLogTail(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, "app.lock")
	if err := os.WriteFile(errorLogPath(lockPath), []byte("first\nsecond\nthird\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	summary, err := readErrorLogTail(lockPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.RecentCount != 3 || summary.LastMessage != "third" {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestReadErrorLogTailMissingIsEmpty(t *testing.T) {
	summary, err := readErrorLogTail(filepath.Join(t.TempDir(), "nope.lock"))
	if err != nil {
		t.Fatalf("missing error log should not be an error: %v", err)
	}
	if summary.RecentCount != 0 {
		t.Fatalf("expected empty summary, got %+v", summary)
	}
}
