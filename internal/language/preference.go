package language

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"codeberg.org/snonux/quicktrans/internal/storage"
)

// StorageKey is the key of the language preference record
const StorageKey = "openai_translator_lang_prefs"

// Preference is the selected source/target pair
type Preference struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// DefaultPreference is the selection before anything has been saved
func DefaultPreference() Preference {
	return Preference{Source: Auto, Target: "zh-CN"}
}

// PreferenceStore persists the last used language pair
type PreferenceStore struct {
	kv     storage.Store
	logger *log.Logger
}

// NewPreferenceStore creates a preference store on top of kv
func NewPreferenceStore(kv storage.Store, logger *log.Logger) *PreferenceStore {
	if logger == nil {
		logger = log.Default()
	}
	return &PreferenceStore{kv: kv, logger: logger}
}

// Load applies the saved codes to defaults. Each saved code is only used
// when it is still a valid option for its selector.
func (s *PreferenceStore) Load(defaults Preference) Preference {
	raw, err := s.kv.Get(StorageKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Printf("Warning: failed to read language preference: %v", err)
		}
		return defaults
	}

	var saved Preference
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		s.logger.Printf("Warning: ignoring malformed language preference: %v", err)
		return defaults
	}

	p := defaults
	if saved.Source != "" && IsValidSource(saved.Source) {
		p.Source = saved.Source
	}
	if saved.Target != "" && IsValidTarget(saved.Target) {
		p.Target = saved.Target
	}
	return p
}

// Save persists p unconditionally
func (s *PreferenceStore) Save(p Preference) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode language preference: %w", err)
	}
	if err := s.kv.Set(StorageKey, string(data)); err != nil {
		return fmt.Errorf("failed to save language preference: %w", err)
	}
	return nil
}

// Swap exchanges source and target and saves the result. Auto cannot be a
// target, so with an Auto source only the source side changes.
func (s *PreferenceStore) Swap(p Preference) (Preference, error) {
	swapped := Preference{Source: p.Target, Target: p.Source}
	if !IsValidTarget(swapped.Target) {
		swapped.Target = p.Target
	}
	return swapped, s.Save(swapped)
}
