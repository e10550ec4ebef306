package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"codeberg.org/snonux/quicktrans/internal"
	"codeberg.org/snonux/quicktrans/internal/storage"
)

// StorageKey is the key of the history record
const StorageKey = "openai_translator_history_v2"

// MaxEntries is how many translations are kept
const MaxEntries = 50

// Entry is one completed translation
type Entry struct {
	ID         int64  `json:"id" yaml:"id"`
	Timestamp  string `json:"timestamp" yaml:"timestamp"`
	From       string `json:"from" yaml:"from"`
	To         string `json:"to" yaml:"to"`
	Original   string `json:"original" yaml:"original"`
	Translated string `json:"translated" yaml:"translated"`
}

// NewEntry creates an entry stamped with the current time
func NewEntry(from, to, original, translated string) Entry {
	now := time.Now()
	return Entry{
		ID:         internal.NewEntryID(now),
		Timestamp:  internal.FormatTimestamp(now),
		From:       from,
		To:         to,
		Original:   original,
		Translated: translated,
	}
}

// Store is the persisted translation history
type Store struct {
	kv     storage.Store
	logger *log.Logger

	mu       sync.Mutex
	onChange func([]Entry)
}

// NewStore creates a history store on top of kv
func NewStore(kv storage.Store, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{kv: kv, logger: logger}
}

// OnChange registers fn to be called with the new list after every
// successful Append or Clear
func (s *Store) OnChange(fn func([]Entry)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// List returns the entries newest-first
func (s *Store) List() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Append prepends e and keeps the newest MaxEntries. Entries without a
// translation are ignored and nothing is written.
func (s *Store) Append(e Entry) error {
	if e.Translated == "" {
		return nil
	}

	s.mu.Lock()
	entries := append([]Entry{e}, s.load()...)
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}
	if err := s.save(entries); err != nil {
		s.mu.Unlock()
		return err
	}
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(entries)
	}
	return nil
}

// Clear erases the whole history. Callers are expected to ask the user
// for confirmation first.
func (s *Store) Clear() error {
	s.mu.Lock()
	if err := s.kv.Remove(StorageKey); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to clear history: %w", err)
	}
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(nil)
	}
	return nil
}

func (s *Store) load() []Entry {
	raw, err := s.kv.Get(StorageKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Printf("Warning: failed to read history: %v", err)
		}
		return nil
	}

	var entries []Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		s.logger.Printf("Warning: ignoring malformed history: %v", err)
		return nil
	}
	return entries
}

func (s *Store) save(entries []Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err := s.kv.Set(StorageKey, string(data)); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}
