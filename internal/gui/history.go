package gui

import (
	"errors"
	"fmt"
	"io"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	ttwidget "github.com/dweymouth/fyne-tooltip/widget"

	"codeberg.org/snonux/quicktrans/internal"
	"codeberg.org/snonux/quicktrans/internal/archive"
	"codeberg.org/snonux/quicktrans/internal/history"
	"codeberg.org/snonux/quicktrans/internal/i18n"
	"codeberg.org/snonux/quicktrans/internal/language"
)

func (a *Application) createHistoryTab() fyne.CanvasObject {
	a.historyList = widget.NewList(
		func() int {
			return len(a.historyEntries)
		},
		func() fyne.CanvasObject {
			header := widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
			original := widget.NewLabel("")
			original.Truncation = fyne.TextTruncateEllipsis
			translated := widget.NewLabel("")
			translated.Truncation = fyne.TextTruncateEllipsis
			return container.NewVBox(header, original, translated)
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id >= len(a.historyEntries) {
				return
			}
			e := a.historyEntries[id]
			row := obj.(*fyne.Container)
			row.Objects[0].(*widget.Label).SetText(historyHeader(e))
			row.Objects[1].(*widget.Label).SetText(singleLine(e.Original))
			row.Objects[2].(*widget.Label).SetText("→ " + singleLine(e.Translated))
		},
	)
	a.historyList.OnSelected = func(id widget.ListItemID) {
		if id < len(a.historyEntries) {
			a.loadHistoryEntry(a.historyEntries[id])
		}
		a.historyList.Unselect(id)
	}

	a.exportButton = ttwidget.NewButtonWithIcon(i18n.T("Export"), theme.DocumentSaveIcon(), a.onExportHistory)
	a.archiveButton = ttwidget.NewButtonWithIcon(i18n.T("Archive"), theme.StorageIcon(), a.onArchiveHistory)
	a.clearHistory = ttwidget.NewButtonWithIcon(i18n.T("Clear"), theme.DeleteIcon(), a.onClearHistory)
	a.clearHistory.Importance = widget.DangerImportance

	toolbar := container.NewHBox(a.exportButton, a.archiveButton, a.clearHistory)
	return container.NewBorder(toolbar, nil, nil, nil, a.historyList)
}

// loadHistoryEntry brings an entry back into the translate tab
func (a *Application) loadHistoryEntry(e history.Entry) {
	a.ctrl.Cancel()
	a.input.SetText(e.Original)
	if language.IsValidSource(e.From) && language.IsValidTarget(e.To) {
		a.pref = language.Preference{Source: e.From, Target: e.To}
		a.setPair(a.pref)
	}
	a.showOutput(e.Translated)
	a.tabs.SelectIndex(0)
}

func (a *Application) onClearHistory() {
	dialog.ShowConfirm(i18n.T("Clear history"), i18n.T("Delete all saved translations?"), func(ok bool) {
		if !ok {
			return
		}
		if err := a.history.Clear(); err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		a.updateStatus(i18n.T("History cleared"))
	}, a.window)
}

func (a *Application) onArchiveHistory() {
	path, err := archive.ArchiveHistory(a.history, a.archiveDir)
	if errors.Is(err, archive.ErrEmptyHistory) {
		a.updateStatus(i18n.T("History is empty"))
		return
	}
	if err != nil {
		dialog.ShowError(err, a.window)
		return
	}
	a.logger.Printf("History archived to %s", path)
	a.updateStatus(fmt.Sprintf(i18n.T("History archived to: %s"), path))
}

func (a *Application) onExportHistory() {
	d := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		if w == nil {
			return
		}
		defer w.Close()

		entries := a.history.List()
		if err := exportEntries(w, w.URI().Path(), entries); err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		a.updateStatus(i18n.N("Exported %d entry", "Exported %d entries", len(entries)))
	}, a.window)
	d.SetFileName(exportFileName(time.Now()))
	d.Show()
}

func exportEntries(w io.Writer, path string, entries []history.Entry) error {
	format, err := history.FormatFromPath(path)
	if err != nil {
		return err
	}
	return history.Export(w, entries, format)
}

func historyHeader(e history.Entry) string {
	return fmt.Sprintf("%s   %s → %s", e.Timestamp, language.DisplayName(e.From), language.DisplayName(e.To))
}

// exportFileName suggests a file name for the export dialog
func exportFileName(now time.Time) string {
	return "quicktrans-history-" + internal.SanitizeFilename(internal.FormatTimestamp(now)) + ".json"
}
