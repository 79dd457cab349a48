package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCLIConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	path := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(
		"[paths]\ndata_dir = %q\nlog_dir = %q\n",
		filepath.Join(base, "data"),
		filepath.Join(base, "logs"),
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCLIConfigInitAndShow(t *testing.T) {
	configPath := writeCLIConfig(t)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err := runCLI(t, configPath, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Wrote sample configuration") {
		t.Fatalf("unexpected init output: %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	_, _, err = runCLI(t, configPath, "config", "init", "--path", target)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected already-exists error, got %v", err)
	}

	out, _, err = runCLI(t, configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "Config path:") || !strings.Contains(out, "[ollama]") {
		t.Fatalf("unexpected show output: %q", out)
	}
}

func TestCLICacheShowAndClear(t *testing.T) {
	configPath := writeCLIConfig(t)

	out, _, err := runCLI(t, configPath, "cache", "show")
	if err != nil {
		t.Fatalf("cache show: %v", err)
	}
	if !strings.Contains(out, "cache is empty") {
		t.Fatalf("expected empty cache message, got %q", out)
	}

	out, _, err = runCLI(t, configPath, "cache", "clear")
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if !strings.Contains(out, "Cleared 0") {
		t.Fatalf("unexpected clear output: %q", out)
	}
}

func TestCLIHistoryEmpty(t *testing.T) {
	configPath := writeCLIConfig(t)

	out, _, err := runCLI(t, configPath, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "No recorded runs") {
		t.Fatalf("unexpected history output: %q", out)
	}
}

func TestCLIRunRejectsSameSourceAndDest(t *testing.T) {
	configPath := writeCLIConfig(t)
	dir := t.TempDir()

	_, _, err := runCLI(t, configPath, "run", "--source", dir, "--dest", dir)
	if err == nil || !strings.Contains(err.Error(), "invalid run configuration") {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestCLIRunRequiresFlags(t *testing.T) {
	configPath := writeCLIConfig(t)

	_, _, err := runCLI(t, configPath, "run")
	if err == nil {
		t.Fatal("expected error when source and dest are missing")
	}
	if !strings.Contains(err.Error(), "required flag") {
		t.Fatalf("unexpected error: %v", err)
	}
}
