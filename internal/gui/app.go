package gui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	fynetooltip "github.com/dweymouth/fyne-tooltip"
	ttwidget "github.com/dweymouth/fyne-tooltip/widget"

	"codeberg.org/snonux/quicktrans/internal"
	"codeberg.org/snonux/quicktrans/internal/config"
	"codeberg.org/snonux/quicktrans/internal/controller"
	"codeberg.org/snonux/quicktrans/internal/history"
	"codeberg.org/snonux/quicktrans/internal/i18n"
	"codeberg.org/snonux/quicktrans/internal/language"
)

// Options wires the window to the shared stores and the transport
type Options struct {
	Configs     *config.Store
	Preferences *language.PreferenceStore
	History     *history.Store
	Sender      controller.Sender

	// APIKey is used when no key has been saved in the settings
	APIKey string

	// ArchiveDir is where history archives are written
	ArchiveDir string

	// Logger also receives everything shown in the log tab
	Logger *log.Logger

	// App overrides the Fyne application, for tests
	App fyne.App
}

// Application represents the main GUI application
type Application struct {
	// Fyne components
	app    fyne.App
	window fyne.Window
	tabs   *container.AppTabs

	// Translate tab
	input           *InputEntry
	sourceSelect    *widget.Select
	targetSelect    *widget.Select
	translateButton *ttwidget.Button
	swapButton      *ttwidget.Button
	copyButton      *ttwidget.Button
	clearButton     *ttwidget.Button
	settingsButton  *ttwidget.Button
	output          *widget.RichText
	progress        *widget.ProgressBarInfinite
	statusLabel     *widget.Label

	// History tab
	historyList    *widget.List
	historyEntries []history.Entry
	exportButton   *ttwidget.Button
	archiveButton  *ttwidget.Button
	clearHistory   *ttwidget.Button

	logViewer *LogViewer

	// State, only touched on the Fyne goroutine
	outputText    string
	pref          language.Preference
	updatingPairs bool

	configs    *config.Store
	prefs      *language.PreferenceStore
	history    *history.Store
	ctrl       *controller.Controller
	apiKey     string
	archiveDir string
	logger     *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new GUI application
func New(opts Options) *Application {
	ctx, cancel := context.WithCancel(context.Background())

	fyneApp := opts.App
	if fyneApp == nil {
		fyneApp = app.NewWithID("org.codeberg.snonux.quicktrans")
	}
	fyneApp.SetIcon(GetAppIcon())

	a := &Application{
		app:        fyneApp,
		configs:    opts.Configs,
		prefs:      opts.Preferences,
		history:    opts.History,
		apiKey:     opts.APIKey,
		archiveDir: opts.ArchiveDir,
		ctx:        ctx,
		cancel:     cancel,
	}

	a.logViewer = NewLogViewer()
	var logOut io.Writer = a.logViewer
	if opts.Logger != nil {
		logOut = io.MultiWriter(opts.Logger.Writer(), a.logViewer)
	}
	a.logger = log.New(logOut, "", 0)

	a.ctrl = controller.New(controller.Options{
		Config:  a.effectiveConfig,
		Sender:  opts.Sender,
		History: opts.History,
		View:    windowView{a: a},
		Logger:  a.logger,
	})

	a.pref = a.prefs.Load(language.DefaultPreference())
	a.historyEntries = a.history.List()

	a.setupUI()

	a.history.OnChange(func(entries []history.Entry) {
		fyne.Do(func() {
			a.historyEntries = entries
			a.historyList.Refresh()
		})
	})

	return a
}

// setupUI creates the main user interface
func (a *Application) setupUI() {
	a.window = a.app.NewWindow(fmt.Sprintf("QuickTrans v%s", internal.Version))
	a.window.SetIcon(GetAppIcon())
	a.window.Resize(fyne.NewSize(900, 640))

	translateTab := container.NewTabItemWithIcon(i18n.T("Translate"), theme.DocumentIcon(), a.createTranslateTab())
	historyTab := container.NewTabItemWithIcon(i18n.T("History"), theme.HistoryIcon(), a.createHistoryTab())
	logTab := container.NewTabItemWithIcon(i18n.T("Log"), theme.ListIcon(), a.logViewer)
	a.tabs = container.NewAppTabs(translateTab, historyTab, logTab)

	// Add the tooltip layer to enable tooltips
	a.window.SetContent(fynetooltip.AddWindowToolTipLayer(a.tabs, a.window.Canvas()))

	// Now that tooltip layer is created, set all tooltips
	a.setupTooltips()

	a.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyne.KeyComma,
		Modifier: fyne.KeyModifierShortcutDefault,
	}, func(fyne.Shortcut) {
		a.showSettings()
	})

	a.window.SetOnClosed(func() {
		a.ctrl.Cancel()
		a.cancel()
	})
}

func (a *Application) createTranslateTab() fyne.CanvasObject {
	a.sourceSelect = widget.NewSelect(languageNames(language.SourceOptions()), a.onPairChanged)
	a.targetSelect = widget.NewSelect(languageNames(language.TargetOptions()), a.onPairChanged)
	a.setPair(a.pref)

	a.swapButton = ttwidget.NewButtonWithIcon("", theme.ViewRefreshIcon(), a.onSwap)
	a.settingsButton = ttwidget.NewButtonWithIcon("", theme.SettingsIcon(), a.showSettings)

	pairBar := container.NewBorder(nil, nil,
		container.NewHBox(widget.NewLabel(i18n.T("From")), a.sourceSelect, a.swapButton,
			widget.NewLabel(i18n.T("To")), a.targetSelect),
		a.settingsButton,
	)

	a.input = NewInputEntry()
	a.input.SetPlaceHolder(i18n.T("Enter text to translate (Ctrl+Enter to translate, Esc to stop)"))
	a.input.SetOnSubmit(a.onSubmit)
	a.input.SetOnEscape(func() { a.ctrl.Cancel() })

	a.translateButton = ttwidget.NewButtonWithIcon(i18n.T("Translate"), theme.MailSendIcon(), a.onToggle)
	a.translateButton.Importance = widget.HighImportance
	a.clearButton = ttwidget.NewButtonWithIcon("", theme.ContentClearIcon(), a.onClear)
	a.copyButton = ttwidget.NewButtonWithIcon("", theme.ContentCopyIcon(), a.onCopy)

	a.progress = widget.NewProgressBarInfinite()
	a.progress.Stop()
	a.progress.Hide()

	inputSection := container.NewBorder(nil,
		container.NewHBox(a.translateButton, a.clearButton),
		nil, nil,
		a.input,
	)

	a.output = widget.NewRichTextFromMarkdown("")
	a.output.Wrapping = fyne.TextWrapWord
	outputSection := container.NewBorder(nil,
		container.NewHBox(a.copyButton),
		nil, nil,
		container.NewScroll(a.output),
	)

	split := container.NewHSplit(inputSection, outputSection)
	split.Offset = 0.5

	a.statusLabel = widget.NewLabel(i18n.T("Ready"))
	statusSection := container.NewVBox(a.progress, a.statusLabel)

	return container.NewBorder(pairBar, statusSection, nil, nil, split)
}

func (a *Application) setupTooltips() {
	a.swapButton.SetToolTip(i18n.T("Swap languages"))
	a.settingsButton.SetToolTip(i18n.T("Settings (Ctrl+,)"))
	a.translateButton.SetToolTip(i18n.T("Translate or stop (Ctrl+Enter)"))
	a.clearButton.SetToolTip(i18n.T("Clear input"))
	a.copyButton.SetToolTip(i18n.T("Copy translation"))
	a.exportButton.SetToolTip(i18n.T("Export history"))
	a.archiveButton.SetToolTip(i18n.T("Archive and clear history"))
	a.clearHistory.SetToolTip(i18n.T("Clear history"))
}

// Run starts the GUI application
func (a *Application) Run() {
	a.window.Canvas().Focus(a.input)
	a.window.ShowAndRun()
}

// effectiveConfig is the saved configuration with the environment key as a
// fallback credential
func (a *Application) effectiveConfig() config.Config {
	cfg := a.configs.Load()
	if cfg.APIKey == "" {
		cfg.APIKey = a.apiKey
	}
	return cfg
}

func (a *Application) currentInput() controller.Input {
	return controller.Input{
		Text:   a.input.Text,
		Source: a.pref.Source,
		Target: a.pref.Target,
	}
}

// onToggle stops the translation in flight or starts a new one
func (a *Application) onToggle() {
	in := a.currentInput()
	go func() {
		_, err := a.ctrl.Toggle(a.ctx, in)
		a.afterTranslate(err)
	}()
}

// onSubmit always starts a new translation, superseding one in flight
func (a *Application) onSubmit() {
	in := a.currentInput()
	go func() {
		_, err := a.ctrl.Translate(a.ctx, in)
		a.afterTranslate(err)
	}()
}

func (a *Application) afterTranslate(err error) {
	switch {
	case errors.Is(err, controller.ErrMissingCredential):
		fyne.Do(a.showSettings)
	case errors.Is(err, controller.ErrEmptyInput):
		fyne.Do(func() {
			a.updateStatus(i18n.T("Please enter text to translate"))
			a.window.Canvas().Focus(a.input)
		})
	}
}

func (a *Application) onClear() {
	a.ctrl.Cancel()
	a.input.SetText("")
	a.showOutput("")
	a.window.Canvas().Focus(a.input)
}

func (a *Application) onCopy() {
	if a.outputText == "" {
		return
	}
	a.window.Clipboard().SetContent(a.outputText)
	a.updateStatus(i18n.T("Copied to clipboard"))
}

func (a *Application) onPairChanged(string) {
	if a.updatingPairs {
		return
	}
	source, okSource := language.CodeForName(a.sourceSelect.Selected)
	target, okTarget := language.CodeForName(a.targetSelect.Selected)
	if !okSource || !okTarget {
		return
	}
	a.pref = language.Preference{Source: source, Target: target}
	if err := a.prefs.Save(a.pref); err != nil {
		a.logger.Printf("Failed to save language preference: %v", err)
	}
}

func (a *Application) onSwap() {
	swapped, err := a.prefs.Swap(a.pref)
	if err != nil {
		a.logger.Printf("Failed to save language preference: %v", err)
	}
	a.pref = swapped
	a.setPair(swapped)
}

// setPair updates both selectors without saving the preference again
func (a *Application) setPair(p language.Preference) {
	a.updatingPairs = true
	defer func() { a.updatingPairs = false }()
	a.sourceSelect.SetSelected(language.DisplayName(p.Source))
	a.targetSelect.SetSelected(language.DisplayName(p.Target))
}

func (a *Application) updateStatus(message string) {
	a.statusLabel.SetText(message)
}

func languageNames(langs []language.Language) []string {
	names := make([]string, len(langs))
	for i, l := range langs {
		names[i] = l.Name
	}
	return names
}

// singleLine collapses text for a one-line list row
func singleLine(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
