package archive

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codeberg.org/snonux/quicktrans/internal/history"
	"codeberg.org/snonux/quicktrans/internal/storage"
)

func newHistory(t *testing.T, texts ...string) *history.Store {
	t.Helper()

	store := history.NewStore(storage.NewMemoryStore(), nil)
	for _, text := range texts {
		if err := store.Append(history.NewEntry("en", "de", text, strings.ToUpper(text))); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	return store
}

func TestArchiveHistory(t *testing.T) {
	tmpDir := t.TempDir()
	store := newHistory(t, "one", "two")

	path, err := ArchiveHistory(store, tmpDir)
	if err != nil {
		t.Fatalf("ArchiveHistory failed: %v", err)
	}

	if filepath.Dir(path) != filepath.Join(tmpDir, "archive") {
		t.Errorf("Expected archive in %s, got %s", filepath.Join(tmpDir, "archive"), path)
	}
	name := filepath.Base(path)
	if !strings.HasPrefix(name, "history-") || !strings.HasSuffix(name, ".json") {
		t.Errorf("Unexpected archive name: %s", name)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read archive: %v", err)
	}
	var entries []history.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("Archive is not valid JSON: %v", err)
	}
	if len(entries) != 2 || entries[0].Original != "two" {
		t.Errorf("Expected both entries newest-first, got %+v", entries)
	}

	if got := len(store.List()); got != 0 {
		t.Errorf("Expected history to be cleared, got %d entries", got)
	}
}

func TestArchiveHistory_Empty(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := ArchiveHistory(newHistory(t), tmpDir)
	if !errors.Is(err, ErrEmptyHistory) {
		t.Errorf("Expected ErrEmptyHistory, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "archive")); !os.IsNotExist(err) {
		t.Error("Expected no archive directory for empty history")
	}
}

func TestArchiveHistory_MultipleArchives(t *testing.T) {
	tmpDir := t.TempDir()

	for i := 0; i < 2; i++ {
		if _, err := ArchiveHistory(newHistory(t, "text"), tmpDir); err != nil {
			t.Fatalf("ArchiveHistory failed on iteration %d: %v", i, err)
		}
	}

	entries, err := os.ReadDir(filepath.Join(tmpDir, "archive"))
	if err != nil {
		t.Fatalf("Failed to read archive directory: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 archives, got %d", len(entries))
	}
	if entries[0].Name() == entries[1].Name() {
		t.Error("Archive names are not unique")
	}
}
