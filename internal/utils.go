package internal

import (
	"sync"
	"time"
)

// Version is the application version shown by the CLI and the window title
const Version = "0.4.0"

// TimestampLayout is the layout used for human readable history timestamps
const TimestampLayout = "2006-01-02 15:04:05"

var (
	idMu   sync.Mutex
	lastID int64
)

// NewEntryID returns a unique, strictly increasing id based on the current
// time in milliseconds. Two calls within the same millisecond still yield
// distinct ids.
func NewEntryID(now time.Time) int64 {
	idMu.Lock()
	defer idMu.Unlock()

	id := now.UnixMilli()
	if id <= lastID {
		id = lastID + 1
	}
	lastID = id
	return id
}

// FormatTimestamp formats t in local time for display in the history list
func FormatTimestamp(t time.Time) string {
	return t.Local().Format(TimestampLayout)
}

// SanitizeFilename creates a safe filename from a string
func SanitizeFilename(s string) string {
	result := make([]rune, 0, len(s))
	for _, r := range s {
		if isAlphaNumeric(r) || r == '-' || r == '_' || r == '.' {
			result = append(result, r)
		} else {
			result = append(result, '_')
		}
	}
	return string(result)
}

// isAlphaNumeric checks if a rune is an ASCII letter or digit
func isAlphaNumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
