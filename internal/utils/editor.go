package utils

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// ResolveEditor picks the command used to edit step files: the configured
// command, then $VISUAL, then $EDITOR, then the platform default.
func ResolveEditor(configured string) string {
	for _, c := range []string{configured, os.Getenv("VISUAL"), os.Getenv("EDITOR")} {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	if runtime.GOOS == "windows" {
		return "notepad"
	}
	return "vi"
}

// OpenEditor runs editor on path attached to the terminal and waits for it to
// exit. editor may carry arguments, e.g. "code --wait".
func OpenEditor(editor, path string) error {
	argv := strings.Fields(editor)
	if len(argv) == 0 {
		return errors.New("open editor: no editor command")
	}
	cmd := exec.Command(argv[0], append(argv[1:], path)...) //#nosec G204 -- editor chosen by the user
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("open editor %s: %w", argv[0], err)
	}
	return nil
}
