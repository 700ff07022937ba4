// ABOUTME: Tests for recent upload tracking
// ABOUTME: Validates persistence, ordering, limits and stale path filtering

package recentfiles

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadEmpty(t *testing.T) {
	r := New(t.TempDir())

	entries, err := r.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty list, got %d", len(entries))
	}
}

func TestAddPersists(t *testing.T) {
	dir := t.TempDir()
	r := New(dir)
	r.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	p := touch(t, dir, "notes.pdf")

	if err := r.Add(p, "Week 1 notes"); err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	loaded, err := New(dir).Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(loaded))
	}
	if loaded[0].Path != p || loaded[0].Name != "Week 1 notes" {
		t.Errorf("unexpected entry %+v", loaded[0])
	}
	if !loaded[0].UploadedAt.Equal(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected time %v", loaded[0].UploadedAt)
	}

	info, err := os.Stat(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected 0600, got %v", info.Mode().Perm())
	}
}

func TestAddMovesToFront(t *testing.T) {
	dir := t.TempDir()
	r := New(dir)
	a := touch(t, dir, "a.pdf")
	b := touch(t, dir, "b.pdf")

	r.Add(a, "a")
	r.Add(b, "b")
	r.Add(a, "a again")

	list := r.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(list))
	}
	if list[0].Path != a || list[0].Name != "a again" {
		t.Errorf("expected a at front, got %+v", list[0])
	}
}

func TestAddTrimsToMax(t *testing.T) {
	dir := t.TempDir()
	r := New(dir)

	for i := 0; i < MaxEntries+3; i++ {
		p := touch(t, dir, string(rune('a'+i))+".pdf")
		if err := r.Add(p, ""); err != nil {
			t.Fatal(err)
		}
	}

	if got := len(r.List()); got != MaxEntries {
		t.Errorf("expected %d entries, got %d", MaxEntries, got)
	}
}

func TestLoadDropsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	r := New(dir)
	p := touch(t, dir, "gone.pdf")
	r.Add(p, "gone")
	os.Remove(p)

	loaded, _ := New(dir).Load()
	if len(loaded) != 0 {
		t.Errorf("expected missing file filtered, got %+v", loaded)
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, FileName), []byte("{"), 0600)

	loaded, err := New(dir).Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("expected empty list, got %d", len(loaded))
	}
}
