// Package language provides the fixed language-code registry used by the
// selectors and the prompts, and remembers the last used language pair.
package language

// Auto is the source selector value meaning "detect from input"
const Auto = "Auto"

// autoSourceName is what the prompt calls an auto-detected source language
const autoSourceName = "input language"

// Language is one selectable language
type Language struct {
	Code string
	Name string
}

// registry lists the selectable languages in display order
var registry = []Language{
	{Code: "zh-CN", Name: "Simplified Chinese"},
	{Code: "zh-TW", Name: "Traditional Chinese"},
	{Code: "en", Name: "English"},
	{Code: "ja", Name: "Japanese"},
	{Code: "ko", Name: "Korean"},
	{Code: "fr", Name: "French"},
	{Code: "de", Name: "German"},
	{Code: "es", Name: "Spanish"},
	{Code: "ru", Name: "Russian"},
}

var names = func() map[string]string {
	m := map[string]string{Auto: Auto}
	for _, l := range registry {
		m[l.Code] = l.Name
	}
	return m
}()

// SourceOptions returns the codes offered by the source selector
func SourceOptions() []Language {
	return append([]Language{{Code: Auto, Name: Auto}}, registry...)
}

// TargetOptions returns the codes offered by the target selector
func TargetOptions() []Language {
	return append([]Language(nil), registry...)
}

// DisplayName returns the English name for code. Unknown codes are
// returned verbatim so newer codes still produce a usable prompt.
func DisplayName(code string) string {
	if name, ok := names[code]; ok {
		return name
	}
	return code
}

// SourceName is DisplayName for the source side, where Auto becomes
// "input language".
func SourceName(code string) string {
	if code == Auto {
		return autoSourceName
	}
	return DisplayName(code)
}

// CodeForName maps a display name (or a code) back to its code
func CodeForName(name string) (string, bool) {
	if _, ok := names[name]; ok {
		return name, true
	}
	for code, n := range names {
		if n == name {
			return code, true
		}
	}
	return "", false
}

// IsValidSource reports whether code is offered by the source selector
func IsValidSource(code string) bool {
	_, ok := names[code]
	return ok
}

// IsValidTarget reports whether code is offered by the target selector
func IsValidTarget(code string) bool {
	return code != Auto && IsValidSource(code)
}
