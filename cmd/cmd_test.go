package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/recipeserver/cloudcmd/internal/config"
)

// setupHome points the data directory at a fresh temp dir and clears env
// overrides that would leak in from the developer's shell.
func setupHome(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv(config.EnvHome, tmp)
	t.Setenv(config.EnvDB, "")
	t.Setenv(config.EnvAPIURL, "")
	t.Setenv(config.EnvAPITimeout, "")
	t.Setenv(config.EnvLogLevel, "")
	t.Setenv(config.EnvLogFile, "")
	return tmp
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCLI executes the root command with args and stdin, returning stdout.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer resetFlags(rootCmd)
	err := rootCmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCLI(t, "", args...)
	if err != nil {
		t.Fatalf("%v failed: %v", args, err)
	}
	return out
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

const legacyHeatWait = `[{"model":"M1","commands":[{"step":1,"action":"heat","details":"180C"},{"step":2,"action":"wait","details":"5min"}]}]`

func TestNormalizeLegacyFile(t *testing.T) {
	dir := setupHome(t)
	src := writeFile(t, dir, "in.json", legacyHeatWait)

	out := mustRun(t, "normalize", src)
	want := `[{"model":"M1","hex_command":"","steps":[{"stepNo":1,"stepDescription":"heat: 180C"},{"stepNo":2,"stepDescription":"wait: 5min"}]}]` + "\n"
	if out != want {
		t.Fatalf("normalize output:\n got %s\nwant %s", out, want)
	}

	out = mustRun(t, "normalize", "--envelope", src)
	if !strings.Contains(out, `"cloud_commands": [`) {
		t.Fatalf("expected envelope, got %s", out)
	}
}

func TestNormalizeRejectsAmbiguousElement(t *testing.T) {
	dir := setupHome(t)
	src := writeFile(t, dir, "bad.json", `[{"model":"M1","commands":[],"steps":[]}]`)
	if _, err := runCLI(t, "", "normalize", src); err == nil || !strings.Contains(err.Error(), "[0]") {
		t.Fatalf("expected parse error for element 0, got %v", err)
	}
}

func TestValidateCommand(t *testing.T) {
	dir := setupHome(t)
	ok := writeFile(t, dir, "ok.yaml", "- model: M1\n  hex_command: \"0A\"\n  steps:\n    - stepNo: 1\n      stepDescription: heat\n")
	if out := mustRun(t, "validate", ok); !strings.Contains(out, "ok: 1 command set(s)") {
		t.Fatalf("unexpected output %q", out)
	}

	noModel := writeFile(t, dir, "nomodel.json", `[{"model":"","steps":[]}]`)
	_, err := runCLI(t, "", "validate", noModel)
	if err == nil || !strings.Contains(err.Error(), "device model required") {
		t.Fatalf("expected model error first, got %v", err)
	}

	dup := writeFile(t, dir, "dup.json", `[{"model":"ABC","steps":[{"stepNo":1,"stepDescription":"a"}]},{"model":"ABC","steps":[{"stepNo":1,"stepDescription":"b"}]}]`)
	_, err = runCLI(t, "", "validate", dup)
	if err == nil || !strings.Contains(err.Error(), "duplicate device model") {
		t.Fatalf("expected duplicate error, got %v", err)
	}

	if _, err := runCLI(t, "", "validate", "--approved", ok); err == nil {
		t.Fatalf("expected error without cached device models")
	}
}

func TestDraftStepEditing(t *testing.T) {
	setupHome(t)
	mustRun(t, "draft", "new", "bread", "--model", "M1")
	mustRun(t, "step", "add", "bread", "M1", "heat: 180C")
	mustRun(t, "step", "add", "bread", "M1", "wait: 5min")
	mustRun(t, "step", "add", "--after", "0", "bread", "M1", "open door")
	mustRun(t, "step", "delete", "bread", "M1", "1")
	mustRun(t, "step", "edit", "bread", "M1", "2", "wait: 10min")
	mustRun(t, "set", "hex", "bread", "M1", "0A0B")

	out := mustRun(t, "draft", "show", "bread")
	for _, want := range []string{"M1\thex=0A0B\t2 step(s)", "  1. heat: 180C", "  2. wait: 10min"} {
		if !strings.Contains(out, want) {
			t.Fatalf("show output missing %q:\n%s", want, out)
		}
	}

	hist := mustRun(t, "draft", "history", "bread")
	if !strings.HasPrefix(hist, "v7\t") || !strings.Contains(hist, "create") {
		t.Fatalf("unexpected history:\n%s", hist)
	}

	mustRun(t, "draft", "rollback", "bread", "--version", "1")
	out = mustRun(t, "draft", "show", "bread")
	if !strings.Contains(out, "M1\thex=-\t0 step(s)") {
		t.Fatalf("rollback not applied:\n%s", out)
	}

	if _, err := runCLI(t, "", "step", "delete", "bread", "M1", "9"); err == nil {
		t.Fatalf("expected error deleting a missing step")
	}
	if _, err := runCLI(t, "", "step", "edit", "bread", "M1", "x", "y"); err == nil {
		t.Fatalf("expected invalid step number error")
	}
}

func TestDraftEditReplacesSteps(t *testing.T) {
	setupHome(t)
	mustRun(t, "draft", "new", "bread", "--model", "M1")
	out := mustRun(t, "draft", "edit", "bread", "M1", "-s", "heat", "-s", "wait")
	if !strings.Contains(out, "with 2 step(s)") {
		t.Fatalf("unexpected output %q", out)
	}
	show := mustRun(t, "draft", "show", "--json", "bread")
	if !strings.Contains(show, `"stepNo": 2`) || !strings.Contains(show, `"stepDescription": "wait"`) {
		t.Fatalf("unexpected json:\n%s", show)
	}
}

func TestSetCapAndRecordAndDryRun(t *testing.T) {
	setupHome(t)
	mustRun(t, "draft", "new", "bread", "--model", "M1")
	if _, err := runCLI(t, "", "set", "add", "bread", "M2"); err == nil || !strings.Contains(err.Error(), "limit") {
		t.Fatalf("expected command set limit error, got %v", err)
	}
	if _, err := runCLI(t, "", "set", "add", "bread", "Bad Model"); err == nil {
		t.Fatalf("expected invalid model error")
	}

	out, err := runCLI(t, "heat: 180C\n# comment\nwait: 5min\n", "step", "record", "bread", "M1")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !strings.Contains(out, "recorded 2 step(s)") {
		t.Fatalf("unexpected output %q", out)
	}

	out = mustRun(t, "submit", "--dry-run", "bread")
	for _, want := range []string{`"model": "M1"`, `"stepDescription": "wait: 5min"`, `"hex_command": ""`} {
		if !strings.Contains(out, want) {
			t.Fatalf("dry run missing %q:\n%s", want, out)
		}
	}
}

func TestSubmitRejectsEmptyDraft(t *testing.T) {
	setupHome(t)
	mustRun(t, "draft", "new", "empty", "--model", "M1")
	_, err := runCLI(t, "", "submit", "--dry-run", "empty")
	if err == nil || !strings.Contains(err.Error(), "at least one step required") {
		t.Fatalf("expected steps error, got %v", err)
	}
}

func TestDraftDeleteConfirm(t *testing.T) {
	setupHome(t)
	mustRun(t, "draft", "new", "bread")

	out, err := runCLI(t, "n\n", "draft", "delete", "bread")
	if err != nil || !strings.Contains(out, "aborted") {
		t.Fatalf("expected abort, got %q %v", out, err)
	}
	if out := mustRun(t, "draft", "list"); !strings.Contains(out, "bread") {
		t.Fatalf("draft should still exist:\n%s", out)
	}

	mustRun(t, "draft", "delete", "--yes", "bread")
	if out := mustRun(t, "draft", "list"); !strings.Contains(out, "no drafts") {
		t.Fatalf("draft should be gone:\n%s", out)
	}
}

func TestImportExportSearch(t *testing.T) {
	dir := setupHome(t)
	src := writeFile(t, dir, "bread.json", legacyHeatWait)

	out := mustRun(t, "import", src)
	if !strings.Contains(out, "into draft 'bread'") {
		t.Fatalf("unexpected import output %q", out)
	}
	out = mustRun(t, "import", "--name", "bread", src)
	if !strings.Contains(out, "'bread-import-1'") {
		t.Fatalf("expected suffixed name, got %q", out)
	}

	out = mustRun(t, "export", "bread")
	if !strings.Contains(out, `"stepDescription": "heat: 180C"`) {
		t.Fatalf("unexpected export:\n%s", out)
	}
	out = mustRun(t, "export", "--format", "yaml", "bread")
	if !strings.Contains(out, "stepDescription:") || !strings.Contains(out, "heat: 180C") {
		t.Fatalf("unexpected yaml export:\n%s", out)
	}
	dst := filepath.Join(dir, "out", "bread.json")
	mustRun(t, "export", "--dst", dst, "bread")
	if _, err := os.Stat(dst); err != nil {
		t.Fatalf("export file missing: %v", err)
	}

	out = mustRun(t, "draft", "search", "wait")
	if !strings.Contains(out, "bread\t") || !strings.Contains(out, "bread-import-1\t") {
		t.Fatalf("unexpected search output:\n%s", out)
	}
}

func TestVersionCommand(t *testing.T) {
	setupHome(t)
	if out := mustRun(t, "version"); !strings.HasPrefix(out, "cloudcmd ") {
		t.Fatalf("unexpected version output %q", out)
	}
}

func TestDraftEditTrimsModel(t *testing.T) {
	setupHome(t)
	mustRun(t, "draft", "new", "d1", "--model", "M1")
	out := mustRun(t, "draft", "edit", "d1", " M1 ", "-s", "heat")
	if !strings.Contains(out, "updated 'd1' M1 with 1 step(s)") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	dir := setupHome(t)
	path := filepath.Join(dir, "config.yaml")

	if out := mustRun(t, "config", "init"); !strings.Contains(out, "wrote "+path) {
		t.Fatalf("unexpected output %q", out)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file missing: %v", err)
	}
	if _, err := runCLI(t, "", "config", "init"); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected existing file error, got %v", err)
	}
	mustRun(t, "config", "init", "--force")

	t.Setenv(config.EnvAPIURL, "http://recipes.test/api/v1")
	out := mustRun(t, "config", "show")
	for _, want := range []string{"base_url: http://recipes.test/api/v1", "max_command_sets: 1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("config show missing %q:\n%s", want, out)
		}
	}
}
