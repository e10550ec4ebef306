package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/quicktrans/internal/batch"
	"codeberg.org/snonux/quicktrans/internal/cli"
	"codeberg.org/snonux/quicktrans/internal/config"
	"codeberg.org/snonux/quicktrans/internal/controller"
	"codeberg.org/snonux/quicktrans/internal/gui"
	"codeberg.org/snonux/quicktrans/internal/history"
	"codeberg.org/snonux/quicktrans/internal/language"
	"codeberg.org/snonux/quicktrans/internal/render"
	"codeberg.org/snonux/quicktrans/internal/storage"
	"codeberg.org/snonux/quicktrans/internal/translation"
)

// ErrFailed is returned after a failed translation has been reported
var ErrFailed = errors.New("translation failed")

// Processor handles the main translation logic
type Processor struct {
	flags   *cli.Flags
	kv      storage.Store
	closer  io.Closer
	configs *config.Store
	prefs   *language.PreferenceStore
	history *history.Store
	client  *translation.Client

	warn    *log.Logger
	verbose *log.Logger
	stdin   io.Reader
	out     io.Writer
	errOut  io.Writer
}

// NewProcessor opens the state database and creates a processor
func NewProcessor(flags *cli.Flags) (*Processor, error) {
	if path := viper.GetString("storage.path"); path != "" {
		flags.DBPath = path
	}

	db, err := storage.OpenSQLite(flags.DBPath)
	if err != nil {
		return nil, err
	}

	p := newProcessor(flags, db, os.Stdin, os.Stdout, os.Stderr)
	p.closer = db
	return p, nil
}

func newProcessor(flags *cli.Flags, kv storage.Store, stdin io.Reader, out, errOut io.Writer) *Processor {
	warn := log.New(errOut, "", 0)
	verbose := log.New(io.Discard, "", 0)
	if flags.Verbose {
		verbose = log.New(errOut, "quicktrans: ", log.Ltime|log.Lmicroseconds)
	}

	return &Processor{
		flags:   flags,
		kv:      kv,
		configs: config.NewStore(kv, warn),
		prefs:   language.NewPreferenceStore(kv, warn),
		history: history.NewStore(kv, warn),
		client:  translation.NewClient(cli.GetBreakerSettings()),
		warn:    warn,
		verbose: verbose,
		stdin:   stdin,
		out:     out,
		errOut:  errOut,
	}
}

// Close closes the state database
func (p *Processor) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

// Run translates the given text, the batch file or stdin. Without any
// input it launches the GUI.
func (p *Processor) Run(ctx context.Context, cmd *cobra.Command, args []string) error {
	switch {
	case p.flags.GUIMode:
		return p.RunGUIMode()
	case p.flags.BatchFile != "":
		return p.ProcessBatch(ctx)
	case len(args) > 0:
		return p.ProcessSingle(ctx, strings.Join(args, " "))
	case !isTerminal(p.stdin):
		data, err := io.ReadAll(p.stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		return p.ProcessSingle(ctx, string(data))
	default:
		return p.RunGUIMode()
	}
}

// ProcessSingle translates one text and prints the result
func (p *Processor) ProcessSingle(ctx context.Context, text string) error {
	pref, err := p.languages()
	if err != nil {
		return err
	}
	ctrl, err := p.newController()
	if err != nil {
		return err
	}

	res, err := ctrl.Translate(ctx, controller.Input{Text: text, Source: pref.Source, Target: pref.Target})
	return p.outcome(ctx, res, err)
}

// ProcessBatch translates every text of the batch file in order
func (p *Processor) ProcessBatch(ctx context.Context) error {
	items, err := batch.ReadBatchFile(p.flags.BatchFile)
	if err != nil {
		return err
	}
	pref, err := p.languages()
	if err != nil {
		return err
	}
	ctrl, err := p.newController()
	if err != nil {
		return err
	}

	translated, failed := 0, 0
	for i, item := range items {
		in := controller.Input{Text: item.Text, Source: pref.Source, Target: pref.Target}
		if item.Source != "" {
			in.Source, in.Target = item.Source, item.Target
		}

		if !p.flags.Quiet {
			fmt.Fprintf(p.out, "\n[%d/%d] %s -> %s: %s\n", i+1, len(items),
				language.DisplayName(in.Source), language.DisplayName(in.Target), firstLine(item.Text))
		}

		res, err := ctrl.Translate(ctx, in)
		if err := p.outcome(ctx, res, err); err != nil {
			if ctx.Err() != nil || errors.Is(err, controller.ErrMissingCredential) {
				return err
			}
			failed++
			continue
		}
		translated++
	}

	if !p.flags.Quiet {
		fmt.Fprintf(p.out, "\n=== Batch Translation Summary ===\n")
		fmt.Fprintf(p.out, "Total texts: %d\n", len(items))
		fmt.Fprintf(p.out, "Translated: %d\n", translated)
		if failed > 0 {
			fmt.Fprintf(p.out, "Failed: %d\n", failed)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d translations failed", failed, len(items))
	}
	return nil
}

// RunGUIMode launches the GUI application
func (p *Processor) RunGUIMode() error {
	app := gui.New(gui.Options{
		Configs:     p.configs,
		Preferences: p.prefs,
		History:     p.history,
		Sender:      p.client,
		APIKey:      cli.GetAPIKey(),
		ArchiveDir:  filepath.Dir(p.flags.DBPath),
		Logger:      p.verbose,
	})
	app.Run()
	return nil
}

func (p *Processor) newController() (*controller.Controller, error) {
	cfg, err := p.effectiveConfig()
	if err != nil {
		return nil, err
	}

	var renderer render.Renderer = render.Plain{}
	if p.flags.HTML {
		renderer = render.NewHTML()
	}

	return controller.New(controller.Options{
		Config:   func() config.Config { return cfg },
		Sender:   p.client,
		History:  p.history,
		Renderer: renderer,
		View:     render.NewTerminal(p.out, p.errOut, p.flags.Quiet),
		Logger:   p.verbose,
	}), nil
}

// effectiveConfig overlays the command line and config file onto the
// saved settings. The saved API key wins over the environment.
func (p *Processor) effectiveConfig() (config.Config, error) {
	cfg := p.configs.Load()

	if url := viper.GetString("api.url"); url != "" {
		cfg.APIURL = url
	}
	if model := viper.GetString("api.model"); model != "" {
		cfg.Model = model
	}
	if viper.IsSet("api.temperature") {
		cfg.Temperature = viper.GetFloat64("api.temperature")
	}
	// HTML output is rendered once, so it needs the whole response
	if p.flags.NoStream || p.flags.HTML {
		cfg.Stream = false
	}
	if cfg.APIKey == "" {
		cfg.APIKey = cli.GetAPIKey()
	}

	return config.Normalize(cfg)
}

// languages returns the remembered pair with --from/--to applied. An
// explicitly chosen pair is remembered for the next run.
func (p *Processor) languages() (language.Preference, error) {
	pref := p.prefs.Load(language.DefaultPreference())
	if p.flags.From == "" && p.flags.To == "" {
		return pref, nil
	}

	if p.flags.From != "" {
		code, ok := language.CodeForName(p.flags.From)
		if !ok || !language.IsValidSource(code) {
			return pref, fmt.Errorf("unknown source language %q", p.flags.From)
		}
		pref.Source = code
	}
	if p.flags.To != "" {
		code, ok := language.CodeForName(p.flags.To)
		if !ok || !language.IsValidTarget(code) {
			return pref, fmt.Errorf("unknown target language %q", p.flags.To)
		}
		pref.Target = code
	}

	if err := p.prefs.Save(pref); err != nil {
		p.warn.Printf("Warning: %v", err)
	}
	return pref, nil
}

// outcome maps a controller result to the command's error
func (p *Processor) outcome(ctx context.Context, res controller.Result, err error) error {
	switch {
	case errors.Is(err, controller.ErrMissingCredential):
		return fmt.Errorf("%w: run 'quicktrans config set api-key <key>' or set OPENAI_API_KEY", err)
	case errors.Is(err, controller.ErrEmptyInput):
		return err
	case err != nil:
		return ErrFailed
	case res.Outcome == controller.OutcomeCancelled:
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return context.Canceled
	}
	return nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	if r := []rune(line); len(r) > 60 {
		return string(r[:57]) + "..."
	}
	return line
}
