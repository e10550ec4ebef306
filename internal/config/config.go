// Package config holds the translation settings (endpoint, credential,
// model, temperature, streaming) and persists them in the key-value store.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"

	"codeberg.org/snonux/quicktrans/internal/storage"
)

// StorageKey is the key of the configuration record
const StorageKey = "openai_translator_config_v2"

// Defaults
const (
	DefaultAPIURL      = "https://api.openai.com"
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = 0.1
	MinTemperature     = 0.0
	MaxTemperature     = 2.0
)

// ErrInvalidTemperature is returned by Save for non-finite or out of range values
var ErrInvalidTemperature = errors.New("temperature must be a number between 0 and 2")

// Config holds the settings a translation request is built from
type Config struct {
	APIURL      string  `json:"apiUrl"`
	APIKey      string  `json:"apiKey"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	Stream      bool    `json:"stream"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		APIURL:      DefaultAPIURL,
		Model:       DefaultModel,
		Temperature: DefaultTemperature,
		Stream:      true,
	}
}

// HasCredential reports whether an API key is configured
func (c Config) HasCredential() bool {
	return c.APIKey != ""
}

// Store loads and saves the configuration record
type Store struct {
	kv     storage.Store
	logger *log.Logger
}

// NewStore creates a configuration store on top of kv. A nil logger
// uses the standard logger.
func NewStore(kv storage.Store, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{kv: kv, logger: logger}
}

// Load returns the persisted configuration merged over the defaults. It
// never fails: unreadable or malformed records yield the defaults, and a
// field of the wrong type keeps its default while the others load.
func (s *Store) Load() Config {
	cfg := Default()

	raw, err := s.kv.Get(StorageKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Printf("Warning: failed to read settings: %v", err)
		}
		return cfg
	}

	// Unmarshalling onto the defaults gives a shallow merge: fields missing
	// from the record keep their default value.
	merged := cfg
	if err := json.Unmarshal([]byte(raw), &merged); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			// The other fields were decoded; only the mistyped one keeps
			// its default.
			s.logger.Printf("Warning: ignoring invalid setting %q: %v", typeErr.Field, err)
			return merged
		}
		s.logger.Printf("Warning: ignoring malformed settings: %v", err)
		return cfg
	}
	return merged
}

// Save normalises draft, validates it and persists it as a full overwrite.
// The normalised configuration is returned.
func (s *Store) Save(draft Config) (Config, error) {
	cfg, err := Normalize(draft)
	if err != nil {
		return Config{}, err
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := s.kv.Set(StorageKey, string(data)); err != nil {
		return Config{}, fmt.Errorf("failed to save settings: %w", err)
	}
	return cfg, nil
}

// Normalize trims the URL (dropping trailing slashes), the credential and
// the model, and validates the temperature.
func Normalize(c Config) (Config, error) {
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.Model = strings.TrimSpace(c.Model)

	if math.IsNaN(c.Temperature) || math.IsInf(c.Temperature, 0) ||
		c.Temperature < MinTemperature || c.Temperature > MaxTemperature {
		return Config{}, fmt.Errorf("%w: got %v", ErrInvalidTemperature, c.Temperature)
	}
	return c, nil
}
