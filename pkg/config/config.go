// Package config loads Ergon configuration from defaults, an optional YAML
// file, ERGON_-prefixed environment variables, and CLI --set overrides, in
// that order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultPath is the config file consulted when no --config flag is given.
const DefaultPath = "ergon.yaml"

type Config struct {
	Log       LogConfig       `koanf:"log"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Env       EnvConfig       `koanf:"env"`
	LLM       LLMConfig       `koanf:"llm"`
	Vector    VectorConfig    `koanf:"vector"`
	Functions FunctionsConfig `koanf:"functions"`
	Shell     ShellConfig     `koanf:"shell"`
	Journal   JournalConfig   `koanf:"journal"`
	MCP       MCPConfig       `koanf:"mcp"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type TelemetryConfig struct {
	Exporter     string `koanf:"exporter"` // stdout, otlp, none
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	OTLPInsecure bool   `koanf:"otlp_insecure"`
}

type EnvConfig struct {
	File string `koanf:"file"`
}

type LLMConfig struct {
	Provider string       `koanf:"provider"` // openai, ollama
	OpenAI   OpenAIConfig `koanf:"openai"`
	Ollama   OllamaConfig `koanf:"ollama"`
}

type OpenAIConfig struct {
	APIKey         string `koanf:"api_key"`
	BaseURL        string `koanf:"base_url"`
	Model          string `koanf:"model"`
	EmbeddingModel string `koanf:"embedding_model"`
}

type OllamaConfig struct {
	BaseURL        string `koanf:"base_url"`
	Model          string `koanf:"model"`
	EmbeddingModel string `koanf:"embedding_model"`
}

type VectorConfig struct {
	Provider    string            `koanf:"provider"` // qdrant, memory
	QdrantAddr  string            `koanf:"qdrant_addr"`
	Collections CollectionsConfig `koanf:"collections"`
}

type CollectionsConfig struct {
	Functions string `koanf:"functions"`
	Memories  string `koanf:"memories"`
}

type FunctionsConfig struct {
	Dir         string `koanf:"dir"`
	Interpreter string `koanf:"interpreter"`
	Runner      string `koanf:"runner"`
}

type ShellConfig struct {
	Shell   string `koanf:"shell"`
	Workdir string `koanf:"workdir"`
}

type JournalConfig struct {
	Path string `koanf:"path"`
}

type MCPConfig struct {
	Domains []string `koanf:"domains"`
}

func setDefaults(k *koanf.Koanf) {
	k.Set("log.level", "info")
	k.Set("log.format", "text")

	k.Set("telemetry.exporter", "none")

	k.Set("env.file", ".env")

	k.Set("llm.provider", "ollama")
	k.Set("llm.openai.model", "gpt-4o-mini")
	k.Set("llm.openai.embedding_model", "text-embedding-3-small")
	k.Set("llm.ollama.base_url", "http://localhost:11434")
	k.Set("llm.ollama.model", "qwen2.5-coder:7b-instruct-q5_K_M")
	k.Set("llm.ollama.embedding_model", "nomic-embed-text")

	k.Set("vector.provider", "qdrant")
	k.Set("vector.qdrant_addr", "localhost:6334")
	k.Set("vector.collections.functions", "function-metadata")
	k.Set("vector.collections.memories", "memories")

	k.Set("functions.dir", "./functions")
	k.Set("functions.interpreter", "bun")
	k.Set("functions.runner", "index.ts")

	k.Set("shell.shell", "/bin/bash")
	k.Set("shell.workdir", "")

	k.Set("journal.path", "ergon.db")

	k.Set("mcp.domains", []string{"functions", "memory", "env", "shell"})
}

// Load reads configuration from the given YAML file (skipped when the path
// is empty or the default file does not exist) plus ERGON_ environment
// overrides. Double underscores in env keys separate nesting levels:
// ERGON_LLM__OPENAI__API_KEY -> llm.openai.api_key.
func Load(path string) (*Config, error) {
	return load(path, nil)
}

// LoadWithCLI is Load plus CLI override args: repeated "--config <path>"
// and "--set key=value" pairs (also the --config=... / --set=... forms).
// --set has the highest precedence.
func LoadWithCLI(args []string) (*Config, error) {
	path := ""
	overrides := map[string]string{}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--config":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("missing value for --config")
			}
			path = args[i+1]
			i++
		case strings.HasPrefix(arg, "--config="):
			path = strings.TrimPrefix(arg, "--config=")
		case arg == "--set":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("missing value for --set")
			}
			key, value, err := splitOverride(args[i+1])
			if err != nil {
				return nil, err
			}
			overrides[key] = value
			i++
		case strings.HasPrefix(arg, "--set="):
			key, value, err := splitOverride(strings.TrimPrefix(arg, "--set="))
			if err != nil {
				return nil, err
			}
			overrides[key] = value
		default:
			return nil, fmt.Errorf("unknown config arg %q", arg)
		}
	}
	return load(path, overrides)
}

func load(path string, overrides map[string]string) (*Config, error) {
	k := koanf.New(".")
	setDefaults(k)

	explicit := path != ""
	if path == "" {
		path = DefaultPath
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	if err := k.Load(env.Provider("ERGON_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "ERGON_")
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	for key, value := range overrides {
		k.Set(key, value)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func splitOverride(pair string) (string, string, error) {
	key, value, ok := strings.Cut(pair, "=")
	if !ok || strings.TrimSpace(key) == "" {
		return "", "", fmt.Errorf("invalid --set %q, want key=value", pair)
	}
	return strings.TrimSpace(key), value, nil
}
