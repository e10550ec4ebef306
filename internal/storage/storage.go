package storage

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// ErrNotFound is returned by Get when no value is stored under the key
var ErrNotFound = errors.New("key not found")

// Store is a string key-value store that survives restarts
type Store interface {
	// Get returns the value stored under key or ErrNotFound
	Get(key string) (string, error)

	// Set stores value under key, replacing any previous value
	Set(key, value string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
}

// DefaultPath returns the default location of the state database, following
// the XDG state directory layout.
func DefaultPath() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "quicktrans", "state.db")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "quicktrans", "state.db")
}

// MemoryStore is an in-memory Store, used for tests and ephemeral sessions
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
	writes int
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get implements Store
func (m *MemoryStore) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set implements Store
func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	m.writes++
	return nil
}

// Remove implements Store
func (m *MemoryStore) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	m.writes++
	return nil
}

// Writes returns how many Set and Remove calls the store has seen
func (m *MemoryStore) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}
