// Package i18n translates quicktrans' own user-facing strings. It wraps
// gotext; catalogs are embedded from locales/{lang}/LC_MESSAGES and
// untranslated strings pass through unchanged.
package i18n

import (
	"embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/leonelquinteros/gotext"
)

//go:embed all:locales
var locales embed.FS

const domain = "quicktrans"

var (
	mu sync.RWMutex
	po *gotext.Locale
)

// Init loads the catalog for lang, or for the language of the environment
// when lang is empty
func Init(lang string) {
	if lang == "" {
		lang = detectLanguage()
	}

	l := gotext.NewLocaleFSWithPath(lang, locales, "locales")
	l.AddDomain(domain)
	l.SetDomain(domain)

	mu.Lock()
	po = l
	mu.Unlock()
}

// T translates msgid
func T(msgid string) string {
	mu.RLock()
	l := po
	mu.RUnlock()
	if l == nil {
		return msgid
	}
	return l.Get(msgid)
}

// N translates a message with plural forms and formats n into it
func N(singular, plural string, n int) string {
	mu.RLock()
	l := po
	mu.RUnlock()
	if l == nil {
		if n == 1 {
			return fmt.Sprintf(singular, n)
		}
		return fmt.Sprintf(plural, n)
	}
	return l.GetN(singular, plural, n, n)
}

// detectLanguage follows the gettext order LANGUAGE, LC_ALL, LC_MESSAGES, LANG
func detectLanguage() string {
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		val := os.Getenv(env)
		if env == "LANGUAGE" {
			val, _, _ = strings.Cut(val, ":")
		}
		if idx := strings.IndexByte(val, '.'); idx >= 0 {
			val = val[:idx]
		}
		if val == "" || val == "C" || val == "POSIX" {
			continue
		}
		return val
	}
	return "en"
}
