package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"codeberg.org/snonux/quicktrans/internal/i18n"
	"codeberg.org/snonux/quicktrans/internal/render"
)

// windowView is the render.View of the main window. The controller calls
// it from its own goroutine, so every widget update goes through fyne.Do.
type windowView struct {
	a *Application
}

// Show replaces the output area with the markdown received so far
func (v windowView) Show(markup string) {
	fyne.Do(func() {
		v.a.showOutput(markup)
	})
}

// ShowError renders the error inline in the output area
func (v windowView) ShowError(message string) {
	fyne.Do(func() {
		v.a.outputText = ""
		v.a.output.ParseMarkdown("**" + i18n.T("Error") + ":** " + message)
	})
}

// Notify puts the message into the status bar
func (v windowView) Notify(kind render.Notice, message string) {
	fyne.Do(func() {
		v.a.updateStatus(message)
		if kind == render.NoticeError {
			v.a.logger.Printf("%s", message)
		}
	})
}

// SetBusy turns the translate button into a stop button and back
func (v windowView) SetBusy(busy bool) {
	fyne.Do(func() {
		v.a.setBusy(busy)
	})
}

func (a *Application) showOutput(markup string) {
	a.outputText = markup
	a.output.ParseMarkdown(markup)
}

func (a *Application) setBusy(busy bool) {
	if busy {
		a.translateButton.SetText(i18n.T("Stop"))
		a.translateButton.SetIcon(theme.MediaStopIcon())
		a.translateButton.Importance = widget.DangerImportance
		a.progress.Show()
		a.progress.Start()
	} else {
		a.translateButton.SetText(i18n.T("Translate"))
		a.translateButton.SetIcon(theme.MailSendIcon())
		a.translateButton.Importance = widget.HighImportance
		a.progress.Stop()
		a.progress.Hide()
	}
	a.translateButton.Refresh()
}

var _ render.View = windowView{}
