package translation

import "strings"

const (
	versionSegment  = "/v1"
	completionsPath = "/chat/completions"
)

// ResolveEndpoint turns the configured base URL into the chat-completion
// URL. A base that already contains the completions path is used as is;
// otherwise "/v1" is appended unless it is already the suffix, followed by
// "/chat/completions". This accepts a bare host, a host with version, or a
// full endpoint.
func ResolveEndpoint(base string) string {
	if strings.Contains(base, completionsPath) {
		return base
	}
	if !strings.HasSuffix(base, versionSegment) {
		base += versionSegment
	}
	return base + completionsPath
}

// APIBase returns the versioned API root for base, e.g. for listing models
func APIBase(base string) string {
	if i := strings.Index(base, completionsPath); i >= 0 {
		base = base[:i]
	}
	base = strings.TrimRight(base, "/")
	if !strings.HasSuffix(base, versionSegment) {
		base += versionSegment
	}
	return base
}
