// Package security provides helpers for keeping credentials out of logs and
// terminal output.
package security

import (
	"regexp"
	"strings"
)

var secretPatterns = []*regexp.Regexp{
	// JSON string values of credential-like keys
	regexp.MustCompile(`(?i)("(?:password|access|refresh|token|secret)"\s*:\s*")[^"]*(")`),
	// form-encoded values
	regexp.MustCompile(`(?i)\b((?:password|access|refresh|token)=)[^&\s]*()`),
	// bearer headers
	regexp.MustCompile(`(?i)(\bbearer\s+)[A-Za-z0-9\-_.=]+()`),
}

// Redact masks credential values in s so it can be logged.
func Redact(s string) string {
	for _, re := range secretPatterns {
		s = re.ReplaceAllString(s, "${1}***${2}")
	}
	return s
}

// MaskToken shortens a token for display, keeping only its last four
// characters.
func MaskToken(tok string) string {
	tok = strings.TrimSpace(tok)
	if len(tok) <= 8 {
		return strings.Repeat("*", len(tok))
	}
	return "..." + tok[len(tok)-4:]
}
