package processor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"codeberg.org/snonux/quicktrans/internal/archive"
	"codeberg.org/snonux/quicktrans/internal/config"
	"codeberg.org/snonux/quicktrans/internal/history"
	"codeberg.org/snonux/quicktrans/internal/i18n"
	"codeberg.org/snonux/quicktrans/internal/language"
	"codeberg.org/snonux/quicktrans/internal/models"
	"codeberg.org/snonux/quicktrans/internal/translation"
)

// ListHistory prints the history newest first
func (p *Processor) ListHistory(w io.Writer) error {
	entries := p.history.List()
	if len(entries) == 0 {
		fmt.Fprintln(w, "No translations yet")
		return nil
	}
	if p.flags.Limit > 0 && len(entries) > p.flags.Limit {
		entries = entries[:p.flags.Limit]
	}

	for _, e := range entries {
		fmt.Fprintf(w, "[%s] %s -> %s\n", e.Timestamp, language.SourceName(e.From), language.DisplayName(e.To))
		fmt.Fprintf(w, "  %s\n", indent(e.Original))
		fmt.Fprintf(w, "  => %s\n\n", indent(e.Translated))
	}
	return nil
}

// ClearHistory deletes the history
func (p *Processor) ClearHistory() error {
	return p.history.Clear()
}

// ExportHistory writes the history to path in the format of its extension
func (p *Processor) ExportHistory(path string) error {
	format, err := history.FormatFromPath(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	entries := p.history.List()
	if err := history.Export(f, entries, format); err != nil {
		f.Close()
		return fmt.Errorf("failed to export history: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}

	fmt.Fprintf(p.out, "Exported %d entries to %s\n", len(entries), path)
	return nil
}

// ArchiveHistory moves the history to a file in the state directory
func (p *Processor) ArchiveHistory(w io.Writer) error {
	path, err := archive.ArchiveHistory(p.history, filepath.Dir(p.flags.DBPath))
	if err != nil {
		return fmt.Errorf("failed to archive history: %w", err)
	}
	fmt.Fprintf(w, "History archived to: %s\n", path)
	return nil
}

// shownConfig is the printable form of the settings
type shownConfig struct {
	APIURL      string  `yaml:"api_url"`
	Endpoint    string  `yaml:"endpoint"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	Stream      bool    `yaml:"stream"`
	Source      string  `yaml:"source_language"`
	Target      string  `yaml:"target_language"`
}

// ShowConfig prints the saved settings as YAML with the key masked
func (p *Processor) ShowConfig(w io.Writer) error {
	cfg := p.configs.Load()
	pref := p.prefs.Load(language.DefaultPreference())

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(shownConfig{
		APIURL:      cfg.APIURL,
		Endpoint:    translation.ResolveEndpoint(cfg.APIURL),
		APIKey:      maskKey(cfg.APIKey),
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		Stream:      cfg.Stream,
		Source:      pref.Source,
		Target:      pref.Target,
	}); err != nil {
		return err
	}
	return enc.Close()
}

// SetConfig changes one saved setting
func (p *Processor) SetConfig(key, value string) error {
	draft := p.configs.Open()

	switch key {
	case "api-url":
		draft.Update(func(c *config.Config) { c.APIURL = value })
	case "api-key":
		draft.Update(func(c *config.Config) { c.APIKey = value })
	case "model":
		draft.Update(func(c *config.Config) { c.Model = value })
	case "temperature":
		t, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %q", config.ErrInvalidTemperature, value)
		}
		draft.Update(func(c *config.Config) { c.Temperature = t })
	case "stream":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("stream must be true or false, got %q", value)
		}
		draft.Update(func(c *config.Config) { c.Stream = b })
	default:
		return fmt.Errorf("unknown setting %q", key)
	}

	return p.closeDraft(draft)
}

// ResetURL restores the default endpoint URL
func (p *Processor) ResetURL() error {
	draft := p.configs.Open()
	draft.ResetURL()
	return p.closeDraft(draft)
}

func (p *Processor) closeDraft(draft *config.Draft) error {
	_, saved, err := p.configs.Close(draft)
	if err != nil {
		return err
	}
	if saved && !p.flags.Quiet {
		fmt.Fprintln(p.errOut, i18n.T("Settings updated"))
	}
	return nil
}

// Swap exchanges the remembered languages
func (p *Processor) Swap(w io.Writer) error {
	swapped, err := p.prefs.Swap(p.prefs.Load(language.DefaultPreference()))
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s -> %s\n", language.DisplayName(swapped.Source), language.DisplayName(swapped.Target))
	return nil
}

// ListModels prints the chat models of the configured endpoint
func (p *Processor) ListModels(ctx context.Context, w io.Writer) error {
	cfg, err := p.effectiveConfig()
	if err != nil {
		return err
	}

	list, err := models.NewLister(cfg).ChatModels(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Chat models at %s:\n", cfg.APIURL)
	models.Print(w, list, cfg.Model)
	return nil
}

func maskKey(key string) string {
	switch {
	case key == "":
		return "(not set)"
	case len(key) <= 10:
		return strings.Repeat("*", len(key))
	default:
		return key[:3] + "..." + key[len(key)-4:]
	}
}

func indent(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "\n", "\n    ")
}
