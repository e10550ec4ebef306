package render

import (
	"bytes"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Renderer turns raw (possibly incomplete) markdown into display markup
type Renderer interface {
	Render(text string) string
}

// Plain passes markdown through untouched. It is used by views that do
// their own markdown handling, such as the terminal and the fyne RichText.
type Plain struct{}

// Render implements Renderer
func (Plain) Render(text string) string {
	return text
}

// HTML renders markdown to HTML. Raw HTML in the input is omitted and
// dangerous link destinations are dropped, so the result is safe to embed.
type HTML struct {
	md goldmark.Markdown
}

// NewHTML creates an HTML renderer where single newlines become <br>
func NewHTML() *HTML {
	return &HTML{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
		),
	}
}

// Render implements Renderer
func (h *HTML) Render(text string) string {
	var buf bytes.Buffer
	if err := h.md.Convert([]byte(text), &buf); err != nil {
		return "<p>" + html.EscapeString(text) + "</p>"
	}
	return buf.String()
}
