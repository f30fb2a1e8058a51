// Package utils provides small interactive helpers for the CLI.
package utils

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirm writes msg to out and reads a y/n answer from in. Anything other
// than y or yes, including EOF, is a no.
func Confirm(in io.Reader, out io.Writer, msg string) bool {
	resp := strings.ToLower(Prompt(in, out, msg+" [y/N]"))
	return resp == "y" || resp == "yes"
}

// Prompt writes msg to out and returns one trimmed line read from in.
func Prompt(in io.Reader, out io.Writer, msg string) string {
	_, _ = fmt.Fprintf(out, "%s: ", msg)
	line, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(line)
}
