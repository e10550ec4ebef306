// Package archive moves the translation history out of the live store
// into timestamped JSON files.
package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"codeberg.org/snonux/quicktrans/internal/history"
)

// ErrEmptyHistory is returned when there is nothing to archive
var ErrEmptyHistory = errors.New("history is empty")

// ArchiveHistory writes all entries of store to
// <stateDir>/archive/history-<timestamp>.json and clears the store. It
// returns the path of the archive file.
func ArchiveHistory(store *history.Store, stateDir string) (string, error) {
	entries := store.List()
	if len(entries) == 0 {
		return "", ErrEmptyHistory
	}

	archiveDir := filepath.Join(stateDir, "archive")
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	archivePath := filepath.Join(archiveDir, archiveName(time.Now().Format("20060102-150405")))
	if _, err := os.Stat(archivePath); err == nil {
		archivePath = filepath.Join(archiveDir, archiveName(time.Now().Format("20060102-150405.000000")))
	}

	// O_EXCL so a concurrent archive never overwrites this one
	f, err := os.OpenFile(archivePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create archive file: %w", err)
	}
	if err := history.Export(f, entries, history.FormatJSON); err != nil {
		f.Close()
		os.Remove(archivePath)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write archive file: %w", err)
	}

	if err := store.Clear(); err != nil {
		return archivePath, fmt.Errorf("archived to %s but failed to clear history: %w", archivePath, err)
	}
	return archivePath, nil
}

func archiveName(timestamp string) string {
	return fmt.Sprintf("history-%s.json", timestamp)
}
