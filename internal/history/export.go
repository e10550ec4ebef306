package history

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"codeberg.org/snonux/quicktrans/internal/language"
	"codeberg.org/snonux/quicktrans/internal/render"
)

// Format is an export file format
type Format string

// Supported export formats
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatHTML Format = "html"
)

// FormatFromPath picks the export format from a file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".html", ".htm":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unsupported export format: %q (use .json, .yaml or .html)", filepath.Ext(path))
	}
}

// Export writes entries to w in the given format
func Export(w io.Writer, entries []Entry, format Format) error {
	if entries == nil {
		entries = []Entry{}
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	case FormatHTML:
		return exportHTML(w, entries)
	default:
		return fmt.Errorf("unsupported export format: %q", format)
	}
}

type htmlEntry struct {
	Entry
	FromName   string
	ToName     string
	Translated template.HTML
}

var pageTemplate = template.Must(template.New("history").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Translation history</title></head>
<body>
{{- if not .}}
<p>No history yet</p>
{{- end}}
{{- range .}}
<div class="entry">
<div class="meta">{{.FromName}} &rarr; {{.ToName}} &middot; {{.Timestamp}}</div>
<div class="original" style="white-space: pre-wrap">{{.Original}}</div>
<div class="translated">{{.Translated}}</div>
</div>
{{- end}}
</body>
</html>
`))

func exportHTML(w io.Writer, entries []Entry) error {
	r := render.NewHTML()
	rows := make([]htmlEntry, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, htmlEntry{
			Entry:    e,
			FromName: language.DisplayName(e.From),
			ToName:   language.DisplayName(e.To),
			// goldmark output omits raw HTML, so it can be trusted here.
			Translated: template.HTML(r.Render(e.Translated)),
		})
	}
	return pageTemplate.Execute(w, rows)
}
