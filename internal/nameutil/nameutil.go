// Package nameutil validates and cleans user supplied identifiers: draft
// names and device model identifiers.
package nameutil

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxModelLen matches the server's model_identifier column width.
const MaxModelLen = 100

// ValidateName checks a draft name. It trims before checking but does not
// return the trimmed value; callers trim themselves.
func ValidateName(name string) error {
	return validate("name", strings.TrimSpace(name))
}

// ValidateModel checks a device model identifier. Identifiers may not contain
// whitespace and are limited to MaxModelLen bytes.
func ValidateModel(model string) error {
	model = strings.TrimSpace(model)
	if err := validate("device model", model); err != nil {
		return err
	}
	if len(model) > MaxModelLen {
		return fmt.Errorf("invalid device model: longer than %d bytes", MaxModelLen)
	}
	if i := strings.IndexFunc(model, unicode.IsSpace); i >= 0 {
		return fmt.Errorf("invalid device model: contains whitespace at byte %d", i)
	}
	return nil
}

func validate(kind, s string) error {
	if s == "" {
		return fmt.Errorf("invalid %s: cannot be empty", kind)
	}
	if !utf8.ValidString(s) {
		return fmt.Errorf("invalid %s: contains invalid encoding", kind)
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return fmt.Errorf("invalid %s: contains control character U+%04X", kind, r)
		}
	}
	return nil
}

// Sanitize strips control and zero-width characters that copy/paste tends to
// introduce, trims the result, and reports whether anything changed.
func Sanitize(s string) (string, bool) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '\u200B', '\u200C', '\u200D', '\uFEFF':
			return -1
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	cleaned = strings.TrimSpace(cleaned)
	return cleaned, cleaned != s
}
