// Package batch reads files with many texts to translate in one run.
package batch

import (
	"fmt"
	"os"
	"strings"

	"codeberg.org/snonux/quicktrans/internal/language"
)

// Item is one text to translate. Empty Source or Target means the
// languages given on the command line.
type Item struct {
	Text   string
	Source string
	Target string
}

// ReadBatchFile reads one text per line. Blank lines and lines starting
// with '#' are skipped. A line may choose its own languages:
//
//	Good morning
//	en>ja = Good morning
//	Auto>de = Bonjour
//
// A left side that is not a valid language pair keeps the whole line as
// text, so texts may contain '='.
func ReadBatchFile(filename string) ([]Item, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	return Parse(string(content)), nil
}

// Parse parses batch file content
func Parse(content string) []Item {
	var items []Item
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		items = append(items, parseLine(line))
	}
	return items
}

func parseLine(line string) Item {
	left, text, found := strings.Cut(line, "=")
	if !found {
		return Item{Text: line}
	}

	source, target, ok := parsePair(strings.TrimSpace(left))
	text = strings.TrimSpace(text)
	if !ok || text == "" {
		return Item{Text: line}
	}
	return Item{Text: text, Source: source, Target: target}
}

func parsePair(s string) (string, string, bool) {
	source, target, found := strings.Cut(s, ">")
	if !found {
		return "", "", false
	}
	source, target = strings.TrimSpace(source), strings.TrimSpace(target)
	if !language.IsValidSource(source) || !language.IsValidTarget(target) {
		return "", "", false
	}
	return source, target, true
}
