package main

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/jllopis/ergon/pkg/config"
	"github.com/jllopis/ergon/pkg/functions"
)

type statusResult struct {
	Version         string `json:"version"`
	LLMProvider     string `json:"llm_provider"`
	LLMReachable    *bool  `json:"llm_reachable,omitempty"`
	VectorProvider  string `json:"vector_provider"`
	QdrantAddr      string `json:"qdrant_addr,omitempty"`
	QdrantReachable *bool  `json:"qdrant_reachable,omitempty"`
	FunctionsDir    string `json:"functions_dir"`
	FunctionCount   int    `json:"function_count"`
	EnvFile         string `json:"env_file"`
	JournalPath     string `json:"journal_path,omitempty"`
}

func runStatus(global globalFlags, cfg *config.Config) {
	result := statusResult{
		Version:        version,
		LLMProvider:    cfg.LLM.Provider,
		VectorProvider: cfg.Vector.Provider,
		FunctionsDir:   cfg.Functions.Dir,
		EnvFile:        cfg.Env.File,
		JournalPath:    cfg.Journal.Path,
	}

	if cfg.LLM.Provider == "ollama" {
		reachable := checkTCP(hostPort(cfg.LLM.Ollama.BaseURL))
		result.LLMReachable = &reachable
	}
	if cfg.Vector.Provider == "qdrant" {
		result.QdrantAddr = cfg.Vector.QdrantAddr
		reachable := checkTCP(cfg.Vector.QdrantAddr)
		result.QdrantReachable = &reachable
	}

	engine := functions.NewEngine(cfg.Functions.Dir, cfg.Functions.Interpreter, cfg.Functions.Runner)
	if listing, err := engine.Discover(); err == nil {
		result.FunctionCount = len(listing)
	}

	if global.JSON {
		printJSON(result)
		return
	}

	fmt.Printf("Ergon: %s\n", result.Version)
	if result.LLMReachable != nil {
		fmt.Printf("LLM: %s (reachable=%t)\n", result.LLMProvider, *result.LLMReachable)
	} else {
		fmt.Printf("LLM: %s\n", result.LLMProvider)
	}
	if result.QdrantReachable != nil {
		fmt.Printf("Vector: %s at %s (reachable=%t)\n", result.VectorProvider, result.QdrantAddr, *result.QdrantReachable)
	} else {
		fmt.Printf("Vector: %s\n", result.VectorProvider)
	}
	fmt.Printf("Functions: %d in %s\n", result.FunctionCount, result.FunctionsDir)
	fmt.Printf("Env file: %s\n", result.EnvFile)
	if result.JournalPath != "" {
		if _, err := os.Stat(result.JournalPath); err == nil {
			fmt.Printf("Journal: %s\n", result.JournalPath)
		} else {
			fmt.Printf("Journal: %s (not created yet)\n", result.JournalPath)
		}
	}
}

// hostPort extracts a dialable host:port from a base URL.
func hostPort(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := parsed.Host
	if host == "" {
		host = parsed.Path
	}
	if host == "" {
		return ""
	}
	if !strings.Contains(host, ":") {
		if parsed.Scheme == "https" {
			host += ":443"
		} else {
			host += ":80"
		}
	}
	return host
}
