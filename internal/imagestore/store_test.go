package imagestore

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"
	"time"
)

func TestSave_UniquePathsAndContent(t *testing.T) {
	t.Parallel()

	store, err := New(nil, t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	pathA, cleanupA, err := store.Save(strings.NewReader("first"))
	if err != nil {
		t.Fatalf("save first: %v", err)
	}
	defer cleanupA()
	pathB, cleanupB, err := store.Save(strings.NewReader("second"))
	if err != nil {
		t.Fatalf("save second: %v", err)
	}
	defer cleanupB()

	if pathA == pathB {
		t.Fatalf("staged files share a path: %s", pathA)
	}
	for path, want := range map[string]string{pathA: "first", pathB: "second"} {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		if string(data) != want {
			t.Fatalf("content of %s: got %q want %q", path, data, want)
		}
	}
}

func TestSave_CleanupRemovesFile(t *testing.T) {
	t.Parallel()

	store, err := New(nil, t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	path, cleanup, err := store.Save(strings.NewReader("x"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	cleanup()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("staged file still present after cleanup: %v", err)
	}
	// A second invocation must be harmless.
	cleanup()
}

func TestSave_FailedCopyLeavesNothingBehind(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := New(nil, dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	_, _, err = store.Save(iotest.ErrReader(errors.New("connection reset")))
	if err == nil {
		t.Fatal("expected error from failing reader")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty staging dir, found %d entries", len(entries))
	}
}

func TestSweep_RemovesOnlyExpiredStagedFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := New(nil, dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	oldPath, _, err := store.Save(strings.NewReader("orphan"))
	if err != nil {
		t.Fatalf("save orphan: %v", err)
	}
	stale := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(oldPath, stale, stale); err != nil {
		t.Fatalf("age orphan: %v", err)
	}

	freshPath, cleanup, err := store.Save(strings.NewReader("in flight"))
	if err != nil {
		t.Fatalf("save fresh: %v", err)
	}
	defer cleanup()

	// Files without the staged extension are never touched.
	otherPath := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(otherPath, []byte("keep"), 0o600); err != nil {
		t.Fatalf("write other: %v", err)
	}
	if err := os.Chtimes(otherPath, stale, stale); err != nil {
		t.Fatalf("age other: %v", err)
	}

	removed, err := store.Sweep(time.Hour)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed: got %d want 1", removed)
	}
	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Fatalf("expired file survived sweep: %v", err)
	}
	if _, err := os.Stat(freshPath); err != nil {
		t.Fatalf("fresh file removed by sweep: %v", err)
	}
	if _, err := os.Stat(otherPath); err != nil {
		t.Fatalf("unrelated file removed by sweep: %v", err)
	}
}

func TestNew_RequiresDir(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, "  "); err == nil {
		t.Fatal("expected error for blank dir")
	}
}
