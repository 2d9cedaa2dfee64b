package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LLM.Provider != "ollama" {
		t.Errorf("expected default provider ollama, got %s", cfg.LLM.Provider)
	}
	if cfg.Vector.QdrantAddr != "localhost:6334" {
		t.Errorf("expected default qdrant addr, got %s", cfg.Vector.QdrantAddr)
	}
	if cfg.Vector.Collections.Functions != "function-metadata" {
		t.Errorf("expected default functions collection, got %s", cfg.Vector.Collections.Functions)
	}
	if cfg.Functions.Interpreter != "bun" {
		t.Errorf("expected default interpreter bun, got %s", cfg.Functions.Interpreter)
	}
	if len(cfg.MCP.Domains) != 4 {
		t.Errorf("expected 4 default domains, got %v", cfg.MCP.Domains)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ERGON_LLM__PROVIDER", "openai")
	t.Setenv("ERGON_LLM__OPENAI__API_KEY", "sk-test")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LLM.Provider != "openai" {
		t.Errorf("expected provider openai from env, got %s", cfg.LLM.Provider)
	}
	if cfg.LLM.OpenAI.APIKey != "sk-test" {
		t.Errorf("expected api key from env, got %q", cfg.LLM.OpenAI.APIKey)
	}
}

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
llm:
  provider: "openai"
vector:
  provider: "memory"
functions:
  dir: "/srv/fns"
log:
  level: "debug"
`
	path := filepath.Join(tmpDir, "ergon.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LLM.Provider != "openai" {
		t.Errorf("provider: got %s, want openai", cfg.LLM.Provider)
	}
	if cfg.Vector.Provider != "memory" {
		t.Errorf("vector provider: got %s, want memory", cfg.Vector.Provider)
	}
	if cfg.Functions.Dir != "/srv/fns" {
		t.Errorf("functions dir: got %s", cfg.Functions.Dir)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level: got %s", cfg.Log.Level)
	}
	// Untouched keys keep defaults.
	if cfg.Functions.Runner != "index.ts" {
		t.Errorf("runner default lost: got %s", cfg.Functions.Runner)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for explicitly named missing config file")
	}
}

func TestLoadWithCLI(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
shell:
  workdir: "/tmp"
`
	path := filepath.Join(tmpDir, "ergon.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadWithCLI([]string{
		"--config", path,
		"--set", "shell.workdir=/var/empty",
		"--set=journal.path=/tmp/j.db",
	})
	if err != nil {
		t.Fatalf("LoadWithCLI failed: %v", err)
	}
	if cfg.Shell.Workdir != "/var/empty" {
		t.Errorf("--set should beat the file: got %s", cfg.Shell.Workdir)
	}
	if cfg.Journal.Path != "/tmp/j.db" {
		t.Errorf("journal path: got %s", cfg.Journal.Path)
	}
}

func TestLoadWithCLIRejectsBadArgs(t *testing.T) {
	if _, err := LoadWithCLI([]string{"--set", "noequals"}); err == nil {
		t.Fatal("expected error for malformed --set")
	}
	if _, err := LoadWithCLI([]string{"--bogus"}); err == nil {
		t.Fatal("expected error for unknown arg")
	}
}
