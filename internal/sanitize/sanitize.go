// Package sanitize cleans text received from the server before it is printed
// to a terminal. Step descriptions are free text and may carry escape
// sequences that would otherwise move the cursor, clear the screen or set
// the window title.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	oscRe = regexp.MustCompile(`\x1b\][^\x07\x1b]*(\x07|\x1b\\)`)
	csiRe = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)
)

// Display returns s with escape sequences removed and remaining control
// characters dropped. Newlines and tabs become single spaces so a step
// always prints on one line.
func Display(s string) string {
	out := oscRe.ReplaceAllString(s, "")
	out = csiRe.ReplaceAllString(out, "")
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return ' '
		case r < 0x20 || r == 0x7f:
			return -1
		default:
			return r
		}
	}, out)
}
