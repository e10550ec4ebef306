package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

// InputEntry is the multi-line text input. Ctrl+Enter (Cmd+Enter on
// macOS) submits and Escape cancels; plain Enter inserts a newline.
type InputEntry struct {
	widget.Entry
	onSubmit func()
	onEscape func()
}

// NewInputEntry creates a new input entry
func NewInputEntry() *InputEntry {
	entry := &InputEntry{}
	entry.MultiLine = true
	entry.Wrapping = fyne.TextWrapWord
	entry.ExtendBaseWidget(entry)
	return entry
}

// TypedKey handles key events
func (e *InputEntry) TypedKey(key *fyne.KeyEvent) {
	if key.Name == fyne.KeyEscape && e.onEscape != nil {
		e.onEscape()
		return
	}
	e.Entry.TypedKey(key)
}

// TypedShortcut handles the submit shortcut
func (e *InputEntry) TypedShortcut(s fyne.Shortcut) {
	if isSubmitShortcut(s) && e.onSubmit != nil {
		e.onSubmit()
		return
	}
	e.Entry.TypedShortcut(s)
}

// SetOnSubmit sets the callback for the submit shortcut
func (e *InputEntry) SetOnSubmit(f func()) {
	e.onSubmit = f
}

// SetOnEscape sets the callback for when Escape is pressed
func (e *InputEntry) SetOnEscape(f func()) {
	e.onEscape = f
}

func isSubmitShortcut(s fyne.Shortcut) bool {
	cs, ok := s.(*desktop.CustomShortcut)
	if !ok {
		return false
	}
	if cs.KeyName != fyne.KeyReturn && cs.KeyName != fyne.KeyEnter {
		return false
	}
	return cs.Modifier == fyne.KeyModifierShortcutDefault || cs.Modifier == fyne.KeyModifierControl
}
