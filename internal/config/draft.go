package config

// Draft is an editable copy of the configuration, as held by an open
// settings panel. Edits mark it dirty; closing the panel saves only dirty
// drafts.
type Draft struct {
	Config
	dirty bool
}

// Open returns a fresh draft of the persisted configuration
func (s *Store) Open() *Draft {
	return &Draft{Config: s.Load()}
}

// Update applies fn to the draft and marks it dirty
func (d *Draft) Update(fn func(*Config)) {
	fn(&d.Config)
	d.dirty = true
}

// ResetURL restores the default endpoint URL
func (d *Draft) ResetURL() {
	d.Update(func(c *Config) { c.APIURL = DefaultAPIURL })
}

// Dirty reports whether the draft has pending edits
func (d *Draft) Dirty() bool {
	return d.dirty
}

// Close persists the draft if it has pending edits. It reports whether
// anything was saved, together with the configuration now in effect.
func (s *Store) Close(d *Draft) (Config, bool, error) {
	if !d.dirty {
		return s.Load(), false, nil
	}

	cfg, err := s.Save(d.Config)
	if err != nil {
		return Config{}, false, err
	}
	d.Config = cfg
	d.dirty = false
	return cfg, true, nil
}
