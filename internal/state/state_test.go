package state

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	s, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := s.LastCheckedAt(); got != "" {
		t.Errorf("LastCheckedAt() = %q, want empty", got)
	}
	if got := s.ETag("/notifications"); got != "" {
		t.Errorf("ETag() = %q, want empty", got)
	}
}

func TestPersistAndReload(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	s, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	s.SetLastCheckedAt("2024-03-01T10:00:00Z")
	s.SetETag("/notifications", `W/"abc123"`)
	if err := s.Persist(); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	reloaded, err := Load(dir)
	if err != nil {
		t.Fatalf("reload error = %v", err)
	}
	if got := reloaded.LastCheckedAt(); got != "2024-03-01T10:00:00Z" {
		t.Errorf("LastCheckedAt() = %q", got)
	}
	if got := reloaded.ETag("/notifications"); got != `W/"abc123"` {
		t.Errorf("ETag() = %q", got)
	}

	// No leftover temp file after the atomic rename.
	if _, err := os.Stat(filepath.Join(dir, fileName+".tmp")); !os.IsNotExist(err) {
		t.Errorf("temp file still present: %v", err)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, fileName), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(dir); err == nil {
		t.Error("Load(corrupt) error = nil, want parse error")
	}
}
