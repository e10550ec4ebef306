package processor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"codeberg.org/snonux/quicktrans/internal/cli"
	"codeberg.org/snonux/quicktrans/internal/config"
	"codeberg.org/snonux/quicktrans/internal/controller"
	"codeberg.org/snonux/quicktrans/internal/language"
	"codeberg.org/snonux/quicktrans/internal/storage"
	"codeberg.org/snonux/quicktrans/internal/testutil"
)

type testEnv struct {
	proc     *Processor
	flags    *cli.Flags
	endpoint *testutil.FakeEndpoint
	out      *bytes.Buffer
	errOut   *bytes.Buffer
}

func resetViper(t *testing.T) {
	t.Helper()
	originalConfig := viper.New()
	*originalConfig = *viper.GetViper()
	t.Cleanup(func() {
		*viper.GetViper() = *originalConfig
	})
	viper.Reset()
}

// newTestEnv creates a processor on an in-memory store whose saved
// settings point at a fake endpoint
func newTestEnv(t *testing.T, stdin string, fragments ...string) *testEnv {
	t.Helper()
	resetViper(t)
	t.Setenv("OPENAI_API_KEY", "")

	env := &testEnv{
		flags:    cli.NewFlags(),
		endpoint: testutil.NewFakeEndpoint(t, fragments...),
		out:      &bytes.Buffer{},
		errOut:   &bytes.Buffer{},
	}
	env.flags.DBPath = filepath.Join(t.TempDir(), "state.db")
	env.proc = newProcessor(env.flags, storage.NewMemoryStore(), strings.NewReader(stdin), env.out, env.errOut)

	cfg := config.Default()
	cfg.APIURL = env.endpoint.URL()
	cfg.APIKey = "sk-test"
	if _, err := env.proc.configs.Save(cfg); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}
	return env
}

func TestProcessSingle(t *testing.T) {
	env := newTestEnv(t, "", "Hallo", " Welt")
	env.flags.From = "en"
	env.flags.To = "German"

	if err := env.proc.ProcessSingle(context.Background(), "Hello world"); err != nil {
		t.Fatalf("ProcessSingle failed: %v", err)
	}

	if env.out.String() != "Hallo Welt\n" {
		t.Errorf("Expected %q on stdout, got %q", "Hallo Welt\n", env.out.String())
	}
	if !strings.Contains(env.errOut.String(), "Translation complete") {
		t.Errorf("Expected completion notice on stderr, got %q", env.errOut.String())
	}

	entries := env.proc.history.List()
	if len(entries) != 1 || entries[0].To != "de" {
		t.Errorf("Expected one history entry to de, got %+v", entries)
	}

	pref := env.proc.prefs.Load(language.DefaultPreference())
	if pref.Source != "en" || pref.Target != "de" {
		t.Errorf("Expected explicit pair to be remembered, got %+v", pref)
	}
}

func TestProcessSingle_Quiet(t *testing.T) {
	env := newTestEnv(t, "", "Bonjour")
	env.flags.Quiet = true

	if err := env.proc.ProcessSingle(context.Background(), "Hello"); err != nil {
		t.Fatalf("ProcessSingle failed: %v", err)
	}
	if env.errOut.Len() != 0 {
		t.Errorf("Expected nothing on stderr, got %q", env.errOut.String())
	}
}

func TestProcessSingle_NoStream(t *testing.T) {
	env := newTestEnv(t, "")
	env.flags.NoStream = true
	env.endpoint.SetHandler(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testutil.MessageBody("Hola"))
	})

	if err := env.proc.ProcessSingle(context.Background(), "Hello"); err != nil {
		t.Fatalf("ProcessSingle failed: %v", err)
	}
	if env.out.String() != "Hola\n" {
		t.Errorf("Expected Hola, got %q", env.out.String())
	}

	reqs := env.endpoint.Requests()
	if len(reqs) != 1 || reqs[0].Body["stream"] != false {
		t.Errorf("Expected one non-streaming request, got %+v", reqs)
	}
}

func TestProcessSingle_HTML(t *testing.T) {
	env := newTestEnv(t, "")
	env.flags.HTML = true
	env.endpoint.SetHandler(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testutil.MessageBody("**fett**"))
	})

	if err := env.proc.ProcessSingle(context.Background(), "bold"); err != nil {
		t.Fatalf("ProcessSingle failed: %v", err)
	}
	if !strings.Contains(env.out.String(), "<strong>fett</strong>") {
		t.Errorf("Expected HTML output, got %q", env.out.String())
	}
}

func TestProcessSingle_MissingCredential(t *testing.T) {
	env := newTestEnv(t, "", "x")
	if err := env.proc.SetConfig("api-key", ""); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}

	err := env.proc.ProcessSingle(context.Background(), "Hello")
	if !errors.Is(err, controller.ErrMissingCredential) {
		t.Fatalf("Expected ErrMissingCredential, got %v", err)
	}
	if !strings.Contains(err.Error(), "config set api-key") {
		t.Errorf("Expected hint in error, got %q", err.Error())
	}
	if got := len(env.endpoint.Requests()); got != 0 {
		t.Errorf("Expected no requests, got %d", got)
	}
}

func TestProcessSingle_EnvironmentKeyFallback(t *testing.T) {
	env := newTestEnv(t, "", "ok")
	if err := env.proc.SetConfig("api-key", ""); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}
	t.Setenv("OPENAI_API_KEY", "sk-env")

	if err := env.proc.ProcessSingle(context.Background(), "Hello"); err != nil {
		t.Fatalf("ProcessSingle failed: %v", err)
	}
	reqs := env.endpoint.Requests()
	if len(reqs) != 1 || reqs[0].Authorization != "Bearer sk-env" {
		t.Errorf("Expected environment key to be used, got %+v", reqs)
	}
}

func TestProcessSingle_Failure(t *testing.T) {
	env := newTestEnv(t, "")
	env.endpoint.SetHandler(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"Rate limit reached"}}`)
	})

	err := env.proc.ProcessSingle(context.Background(), "Hello")
	if !errors.Is(err, ErrFailed) {
		t.Fatalf("Expected ErrFailed, got %v", err)
	}
	if !strings.Contains(env.errOut.String(), "Rate limit reached") {
		t.Errorf("Expected API message on stderr, got %q", env.errOut.String())
	}
	if len(env.proc.history.List()) != 0 {
		t.Error("Expected no history entry")
	}
}

func TestProcessSingle_UnknownLanguage(t *testing.T) {
	env := newTestEnv(t, "", "x")
	env.flags.To = "Auto"

	if err := env.proc.ProcessSingle(context.Background(), "Hello"); err == nil {
		t.Error("Expected error for Auto as target")
	}
	if got := len(env.endpoint.Requests()); got != 0 {
		t.Errorf("Expected no requests, got %d", got)
	}
}

func TestRun_Stdin(t *testing.T) {
	env := newTestEnv(t, "Guten Morgen\n", "Good morning")

	if err := env.proc.Run(context.Background(), nil, nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	entries := env.proc.history.List()
	if len(entries) != 1 || entries[0].Original != "Guten Morgen" {
		t.Errorf("Expected stdin text in history, got %+v", entries)
	}
}

func TestRun_EmptyStdin(t *testing.T) {
	env := newTestEnv(t, "  \n", "x")

	err := env.proc.Run(context.Background(), nil, nil)
	if !errors.Is(err, controller.ErrEmptyInput) {
		t.Errorf("Expected ErrEmptyInput, got %v", err)
	}
	if got := len(env.endpoint.Requests()); got != 0 {
		t.Errorf("Expected no request for empty input, got %d", got)
	}
	if env.out.Len() != 0 {
		t.Errorf("Expected no output for empty input, got %q", env.out.String())
	}
}

func TestProcessBatch(t *testing.T) {
	env := newTestEnv(t, "", "T")
	batchFile := filepath.Join(t.TempDir(), "batch.txt")
	testutil.CreateTestFile(t, batchFile, []byte("# texts\nHello\n\nen>ja = Good night\n"))
	env.flags.BatchFile = batchFile

	if err := env.proc.ProcessBatch(context.Background()); err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}

	if !strings.Contains(env.out.String(), "Translated: 2") {
		t.Errorf("Expected summary, got %q", env.out.String())
	}
	entries := env.proc.history.List()
	if len(entries) != 2 {
		t.Fatalf("Expected 2 history entries, got %d", len(entries))
	}
	if entries[0].From != "en" || entries[0].To != "ja" {
		t.Errorf("Expected per-line languages, got %s -> %s", entries[0].From, entries[0].To)
	}
}

func TestProcessBatch_Failures(t *testing.T) {
	env := newTestEnv(t, "")
	env.endpoint.SetHandler(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	batchFile := filepath.Join(t.TempDir(), "batch.txt")
	testutil.CreateTestFile(t, batchFile, []byte("one\ntwo\n"))
	env.flags.BatchFile = batchFile

	err := env.proc.ProcessBatch(context.Background())
	if err == nil || !strings.Contains(err.Error(), "2 of 2") {
		t.Errorf("Expected failure count in error, got %v", err)
	}
	if !strings.Contains(env.out.String(), "Failed: 2") {
		t.Errorf("Expected failures in summary, got %q", env.out.String())
	}
}

func TestProcessBatch_InvalidFile(t *testing.T) {
	env := newTestEnv(t, "")
	env.flags.BatchFile = "/nonexistent/file.txt"

	if err := env.proc.ProcessBatch(context.Background()); err == nil {
		t.Error("Expected error for non-existent batch file")
	}
}

func TestSetConfig(t *testing.T) {
	env := newTestEnv(t, "")

	steps := [][2]string{
		{"api-url", " https://example.com/v1/ "},
		{"api-key", "sk-abcdefghijkl"},
		{"model", "gpt-4o"},
		{"temperature", "0.5"},
		{"stream", "false"},
	}
	for _, step := range steps {
		if err := env.proc.SetConfig(step[0], step[1]); err != nil {
			t.Fatalf("SetConfig(%s) failed: %v", step[0], err)
		}
	}

	cfg := env.proc.configs.Load()
	expected := config.Config{
		APIURL:      "https://example.com/v1",
		APIKey:      "sk-abcdefghijkl",
		Model:       "gpt-4o",
		Temperature: 0.5,
		Stream:      false,
	}
	if cfg != expected {
		t.Errorf("Expected %+v, got %+v", expected, cfg)
	}
	if !strings.Contains(env.errOut.String(), "Settings updated") {
		t.Errorf("Expected settings notice, got %q", env.errOut.String())
	}

	var out bytes.Buffer
	if err := env.proc.ShowConfig(&out); err != nil {
		t.Fatalf("ShowConfig failed: %v", err)
	}
	for _, want := range []string{"api_key: sk-...ijkl", "endpoint: https://example.com/v1/chat/completions", "temperature: 0.5", "stream: false"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Expected %q in output:\n%s", want, out.String())
		}
	}
	if strings.Contains(out.String(), "abcdefghijkl") {
		t.Error("API key must not be printed in full")
	}
}

func TestSetConfig_Invalid(t *testing.T) {
	env := newTestEnv(t, "")
	before := env.proc.configs.Load()

	if err := env.proc.SetConfig("temperature", "3"); !errors.Is(err, config.ErrInvalidTemperature) {
		t.Errorf("Expected ErrInvalidTemperature, got %v", err)
	}
	if err := env.proc.SetConfig("temperature", "warm"); err == nil {
		t.Error("Expected error for non-numeric temperature")
	}
	if err := env.proc.SetConfig("stream", "maybe"); err == nil {
		t.Error("Expected error for non-boolean stream")
	}
	if env.proc.configs.Load() != before {
		t.Error("Expected settings to be unchanged")
	}
}

func TestResetURL(t *testing.T) {
	env := newTestEnv(t, "")

	if err := env.proc.ResetURL(); err != nil {
		t.Fatalf("ResetURL failed: %v", err)
	}
	if got := env.proc.configs.Load().APIURL; got != config.DefaultAPIURL {
		t.Errorf("Expected %s, got %s", config.DefaultAPIURL, got)
	}
}

func TestSwap(t *testing.T) {
	env := newTestEnv(t, "")
	if err := env.proc.prefs.Save(language.Preference{Source: "en", Target: "de"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	var out bytes.Buffer
	if err := env.proc.Swap(&out); err != nil {
		t.Fatalf("Swap failed: %v", err)
	}
	if out.String() != "German -> English\n" {
		t.Errorf("Unexpected output %q", out.String())
	}
	if got := env.proc.prefs.Load(language.DefaultPreference()); got.Source != "de" || got.Target != "en" {
		t.Errorf("Expected swapped pair to be saved, got %+v", got)
	}
}

func TestHistoryCommands(t *testing.T) {
	env := newTestEnv(t, "", "Hallo")
	for _, text := range []string{"Hello", "Hi"} {
		if err := env.proc.ProcessSingle(context.Background(), text); err != nil {
			t.Fatalf("ProcessSingle failed: %v", err)
		}
	}

	var list bytes.Buffer
	env.flags.Limit = 1
	if err := env.proc.ListHistory(&list); err != nil {
		t.Fatalf("ListHistory failed: %v", err)
	}
	if !strings.Contains(list.String(), "Hi") || strings.Contains(list.String(), "Hello") {
		t.Errorf("Expected only the newest entry, got %q", list.String())
	}

	exportPath := filepath.Join(t.TempDir(), "history.yaml")
	if err := env.proc.ExportHistory(exportPath); err != nil {
		t.Fatalf("ExportHistory failed: %v", err)
	}
	testutil.AssertFileContains(t, exportPath, "original: Hello")

	if err := env.proc.ExportHistory(filepath.Join(t.TempDir(), "history.txt")); err == nil {
		t.Error("Expected error for unknown export format")
	}

	var archived bytes.Buffer
	if err := env.proc.ArchiveHistory(&archived); err != nil {
		t.Fatalf("ArchiveHistory failed: %v", err)
	}
	path := strings.TrimSpace(strings.TrimPrefix(archived.String(), "History archived to:"))
	testutil.AssertFileExists(t, path)
	if filepath.Dir(filepath.Dir(path)) != filepath.Dir(env.flags.DBPath) {
		t.Errorf("Expected archive next to the database, got %s", path)
	}
	if len(env.proc.history.List()) != 0 {
		t.Error("Expected history to be empty after archiving")
	}

	if err := env.proc.ClearHistory(); err != nil {
		t.Fatalf("ClearHistory failed: %v", err)
	}
}

func TestListModels(t *testing.T) {
	env := newTestEnv(t, "")
	env.endpoint.SetHandler(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"object":"list","data":[{"id":"gpt-4o-mini"},{"id":"tts-1"}]}`)
	})

	var out bytes.Buffer
	if err := env.proc.ListModels(context.Background(), &out); err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}
	if !strings.Contains(out.String(), "* gpt-4o-mini") {
		t.Errorf("Expected current model marked, got %q", out.String())
	}
	if strings.Contains(out.String(), "tts-1") {
		t.Errorf("Expected non-chat models filtered, got %q", out.String())
	}
}

func TestNewProcessor_OpensDatabase(t *testing.T) {
	resetViper(t)

	flags := cli.NewFlags()
	flags.DBPath = filepath.Join(t.TempDir(), "nested", "state.db")

	p, err := NewProcessor(flags)
	if err != nil {
		t.Fatalf("NewProcessor failed: %v", err)
	}
	defer p.Close()

	if _, err := os.Stat(flags.DBPath); err != nil {
		t.Errorf("Expected database file to exist: %v", err)
	}
}
