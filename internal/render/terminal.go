package render

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Terminal is a View that writes to a terminal. Since a terminal cannot
// redraw what it already printed, Show only writes the part of the markup
// that extends what is already on screen.
type Terminal struct {
	out    io.Writer
	errOut io.Writer
	quiet  bool

	mu      sync.Mutex
	printed string
}

// NewTerminal creates a terminal view. Notifications go to errOut unless
// quiet is set, so that out only ever carries the translation.
func NewTerminal(out, errOut io.Writer, quiet bool) *Terminal {
	return &Terminal{out: out, errOut: errOut, quiet: quiet}
}

// Show implements View
func (t *Terminal) Show(markup string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if strings.HasPrefix(markup, t.printed) {
		fmt.Fprint(t.out, markup[len(t.printed):])
	} else {
		// The renderer rewrote earlier output; start over on a new line.
		fmt.Fprint(t.out, "\n"+markup)
	}
	t.printed = markup
}

// ShowError implements View
func (t *Terminal) ShowError(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.errOut, "Error: %s\n", message)
}

// Notify implements View
func (t *Terminal) Notify(kind Notice, message string) {
	if t.quiet {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.errOut, "[%s] %s\n", kind, message)
}

// SetBusy implements View. Going busy starts a fresh output; going idle
// terminates the output line.
func (t *Terminal) SetBusy(busy bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if busy {
		t.printed = ""
		return
	}
	if t.printed != "" && !strings.HasSuffix(t.printed, "\n") {
		fmt.Fprintln(t.out)
	}
	t.printed = ""
}
