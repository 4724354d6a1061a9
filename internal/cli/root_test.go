package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ccollicutt/walog/internal/cli/commands"
)

const rootTestLog = `2024-07-22T13:45:12.3456789-04:00 [INFO] (Proxy) Request finished - 200
2024-07-22T13:45:13.0000001-04:00 [ERROR] (Proxy) Unhandled exception
   at Proxy.Forward()
`

func runRoot(t *testing.T, args ...string) (int, string) {
	t.Helper()
	root := NewRootCommand()
	root.SetArgs(args)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	return execute(root), out.String()
}

func TestNewRootCommand(t *testing.T) {
	root := NewRootCommand()

	if root.Use != "walog" {
		t.Errorf("Use = %q, want walog", root.Use)
	}

	for _, name := range []string{"convert", "detect", "diagnose", "validate", "version"} {
		found := false
		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Missing subcommand: %s", name)
		}
	}

	for _, flag := range []string{"log-level", "log-format", "env-file"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("Missing persistent flag: %s", flag)
		}
	}
}

func TestExecute_ExitCodes(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "webadaptor.log")
	if err := os.WriteFile(logPath, []byte(rootTestLog), 0644); err != nil {
		t.Fatal(err)
	}
	plainPath := filepath.Join(dir, "plain.log")
	if err := os.WriteFile(plainPath, []byte("nothing to see\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"version", []string{"version"}, 0},
		{"convert", []string{"convert", "-q", logPath}, 0},
		{"detect match", []string{"detect", logPath}, 0},
		{"detect no boundary", []string{"detect", plainPath}, 1},
		{"missing log", []string{"convert", filepath.Join(dir, "missing.log")}, 2},
		{"unknown command", []string{"tail"}, 2},
		{"bad flag", []string{"convert", "--orphans", "drop", logPath}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, out := runRoot(t, tt.args...); got != tt.want {
				t.Errorf("exit code = %d, want %d\n%s", got, tt.want, out)
			}
		})
	}

	if _, err := os.Stat(filepath.Join(dir, "webadaptor.csv")); err != nil {
		t.Errorf("convert did not write CSV: %v", err)
	}
}

func TestExecute_ResetsExitCode(t *testing.T) {
	commands.ExitCode = 1
	if got, _ := runRoot(t, "version"); got != 0 {
		t.Errorf("exit code = %d, want 0", got)
	}
}

func TestExecute_EnvFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "webadaptor.log")
	if err := os.WriteFile(logPath, []byte(rootTestLog), 0644); err != nil {
		t.Fatal(err)
	}
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("WALOG_OUTPUT_FORMAT=jsonl\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("WALOG_OUTPUT_FORMAT") })

	if got, out := runRoot(t, "--env-file", envPath, "convert", "-q", logPath); got != 0 {
		t.Fatalf("exit code = %d\n%s", got, out)
	}

	data, err := os.ReadFile(filepath.Join(dir, "webadaptor.jsonl"))
	if err != nil {
		t.Fatalf("JSONL output missing: %v", err)
	}
	if lines := strings.Count(string(data), "\n"); lines != 2 {
		t.Errorf("got %d JSONL lines, want 2", lines)
	}
}

func TestExecute_MissingEnvFile(t *testing.T) {
	if got, _ := runRoot(t, "--env-file", filepath.Join(t.TempDir(), "nope.env"), "version"); got != 2 {
		t.Errorf("exit code = %d, want 2", got)
	}
}
