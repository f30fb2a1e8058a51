package utils

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestResolveEditorOrder(t *testing.T) {
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "")
	want := "vi"
	if runtime.GOOS == "windows" {
		want = "notepad"
	}
	if got := ResolveEditor(""); got != want {
		t.Fatalf("default editor = %q, want %q", got, want)
	}
	t.Setenv("EDITOR", "nano")
	if got := ResolveEditor("  "); got != "nano" {
		t.Fatalf("expected $EDITOR, got %q", got)
	}
	t.Setenv("VISUAL", "emacs")
	if got := ResolveEditor(""); got != "emacs" {
		t.Fatalf("expected $VISUAL over $EDITOR, got %q", got)
	}
	if got := ResolveEditor("code --wait"); got != "code --wait" {
		t.Fatalf("expected configured editor, got %q", got)
	}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "editor.sh")
	if err := os.WriteFile(p, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return p
}

func TestOpenEditorPassesArgsAndPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script editor")
	}
	dir := t.TempDir()
	target := filepath.Join(dir, "steps.txt")
	script := writeScript(t, "printf '%s|%s' \"$1\" \"$2\" > \""+target+".out\"\n")

	if err := OpenEditor(script+" --wait", target); err != nil {
		t.Fatalf("OpenEditor: %v", err)
	}
	b, err := os.ReadFile(target + ".out")
	if err != nil {
		t.Fatalf("editor did not run: %v", err)
	}
	if got := strings.TrimSpace(string(b)); got != "--wait|"+target {
		t.Fatalf("editor args = %q", got)
	}
}

func TestOpenEditorFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script editor")
	}
	if err := OpenEditor(writeScript(t, "exit 1\n"), "x.txt"); err == nil {
		t.Fatalf("expected error from failing editor")
	}
	if err := OpenEditor("   ", "x.txt"); err == nil {
		t.Fatalf("expected error for empty editor command")
	}
}
