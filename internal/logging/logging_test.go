package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/recipeserver/cloudcmd/internal/config"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel(" WARN ")
	if err != nil {
		t.Fatalf("ParseLevel: %v", err)
	}
	if lvl != zapcore.WarnLevel {
		t.Fatalf("expected warn got %v", lvl)
	}
	if _, err := ParseLevel("chatty"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestJSONWriterFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newWithWriter(&buf, true, zapcore.WarnLevel)
	l.Info("hidden")
	l.Warn("dropped command sets", zap.Strings("models", []string{"B"}))
	_ = l.Sync()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 entry, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("entry is not json: %v", err)
	}
	if entry["msg"] != "dropped command sets" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestNewWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "cloudcmd.log")
	l, err := New(config.LogConfig{Level: "info", File: path, MaxSizeMB: 1, MaxBackups: 1}, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("submitted", zap.String("draft", "demo"))
	_ = l.Sync()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(b), `"draft":"demo"`) {
		t.Fatalf("unexpected log contents %s", b)
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatalf("expected a logger")
	}
}
