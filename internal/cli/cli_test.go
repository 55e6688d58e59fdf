package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/serpent-os/ent/pkg/errors"
	"github.com/serpent-os/ent/pkg/report"
)

// execute runs the root command with args against a private config file.
func execute(t *testing.T, configContent string, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	cfgPath := filepath.Join(dir, "ent.yaml")
	if err := os.WriteFile(cfgPath, []byte(configContent), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func writeTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"n/nano/package.yml":       "name: nano\nversion: 7.2\n",
		"b/bash/package.yml":       "name: bash\n",
		"x/broken/package.yml":     "name: [\n",
		"node_modules/package.yml": "name: ignored\nversion: 1\n",
	}
	for rel, content := range files {
		p := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	for _, name := range []string{"check", "refresh", "cache", "serve", "builds", "version", "completion"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	if cmd, _, err := root.Find([]string{"check", "updates"}); err != nil || cmd.Name() != "updates" {
		t.Error("check updates not registered")
	}
}

func TestCheckUpdatesJSON(t *testing.T) {
	tree := writeTree(t)
	out, err := execute(t, "cache:\n  backend: none\n", "check", "updates", "--json", tree)
	if err != nil {
		t.Fatalf("check updates: %v", err)
	}

	var rep report.Report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("output is not a report: %v\n%s", err, out)
	}
	if rep.Summary.Total != 3 || rep.Summary.Skipped != 2 || rep.Summary.Diagnostics != 1 {
		t.Errorf("summary = %+v", rep.Summary)
	}
	if e, ok := rep.Entry("bash"); !ok || e.Outcome.Reason != errors.ErrCodeNoCurrentVersion {
		t.Errorf("bash = %+v", e)
	}
	if e, ok := rep.Entry("nano"); !ok || e.Outcome.Reason != errors.ErrCodeNoUpstream {
		t.Errorf("nano = %+v", e)
	}
}

func TestCheckUpdatesInvalidRoot(t *testing.T) {
	_, err := execute(t, "", "check", "updates", "--no-cache", filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("error = %v, want INVALID_PATH", err)
	}
}

func TestInvalidConfigFails(t *testing.T) {
	_, err := execute(t, "concurrency: 0\n", "version")
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("error = %v, want INVALID_CONFIG", err)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "version: ") {
		t.Errorf("version output = %q", out)
	}
}

func TestCachePath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "obs")
	out, err := execute(t, "cache:\n  dir: "+dir+"\n", "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != dir {
		t.Errorf("cache path = %q, want %q", out, dir)
	}
}
