package utils

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// IsTerminal reports whether in is an interactive terminal.
func IsTerminal(in io.Reader) bool {
	f, ok := in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// PromptPassword writes msg to out and reads a secret from in. A terminal is
// read with echo disabled; other readers fall back to Prompt.
func PromptPassword(in io.Reader, out io.Writer, msg string) (string, error) {
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return Prompt(in, out, msg), nil
	}
	_, _ = fmt.Fprintf(out, "%s: ", msg)
	b, err := term.ReadPassword(int(f.Fd()))
	_, _ = fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
