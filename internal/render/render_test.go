package render

import (
	"bytes"
	"strings"
	"testing"
)

func TestPlain(t *testing.T) {
	if got := (Plain{}).Render("**bold**"); got != "**bold**" {
		t.Errorf("Plain.Render() = %q", got)
	}
}

func TestHTML_Render(t *testing.T) {
	r := NewHTML()

	got := r.Render("**Hallo**\nWelt")
	if !strings.Contains(got, "<strong>Hallo</strong>") {
		t.Errorf("Expected bold markup, got %q", got)
	}
	if !strings.Contains(got, "<br") {
		t.Errorf("Expected hard wraps for single newlines, got %q", got)
	}
}

func TestHTML_Sanitizes(t *testing.T) {
	r := NewHTML()

	got := r.Render("<script>alert(1)</script>\n\n[x](javascript:alert(1))")
	if strings.Contains(got, "<script>") {
		t.Errorf("Raw HTML must be omitted, got %q", got)
	}
	if strings.Contains(got, "javascript:") {
		t.Errorf("Dangerous link must be dropped, got %q", got)
	}
}

func TestHTML_PartialMarkdown(t *testing.T) {
	r := NewHTML()

	// An unterminated emphasis is rendered literally until it completes.
	partial := r.Render("**Hal")
	if strings.Contains(partial, "<strong>") {
		t.Errorf("Did not expect bold for incomplete markup, got %q", partial)
	}
	full := r.Render("**Hallo**")
	if !strings.Contains(full, "<strong>Hallo</strong>") {
		t.Errorf("Expected bold once complete, got %q", full)
	}
}

func TestTerminal_ShowPrintsOnlyNewText(t *testing.T) {
	var out, errOut bytes.Buffer
	term := NewTerminal(&out, &errOut, false)

	term.SetBusy(true)
	term.Show("He")
	term.Show("Hello")
	term.Show("Hello, world")
	term.SetBusy(false)

	if out.String() != "Hello, world\n" {
		t.Errorf("Unexpected terminal output %q", out.String())
	}
}

func TestTerminal_RewrittenOutput(t *testing.T) {
	var out, errOut bytes.Buffer
	term := NewTerminal(&out, &errOut, false)

	term.SetBusy(true)
	term.Show("abc")
	term.Show("xyz")

	if out.String() != "abc\nxyz" {
		t.Errorf("Unexpected terminal output %q", out.String())
	}
}

func TestTerminal_NotificationsAndErrors(t *testing.T) {
	var out, errOut bytes.Buffer
	term := NewTerminal(&out, &errOut, false)

	term.Notify(NoticeSuccess, "done")
	term.ShowError("Status 500")

	if out.Len() != 0 {
		t.Errorf("Notifications must not reach stdout, got %q", out.String())
	}
	if !strings.Contains(errOut.String(), "[success] done") ||
		!strings.Contains(errOut.String(), "Error: Status 500") {
		t.Errorf("Unexpected stderr output %q", errOut.String())
	}

	errOut.Reset()
	quiet := NewTerminal(&out, &errOut, true)
	quiet.Notify(NoticeCancelled, "aborted")
	if errOut.Len() != 0 {
		t.Errorf("Quiet terminal printed a notification: %q", errOut.String())
	}
}
