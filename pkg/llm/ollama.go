// Copyright 2026 © The Ergon Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jllopis/ergon/pkg/errors"
)

// OllamaConfig configures the ollama provider.
type OllamaConfig struct {
	BaseURL        string
	Model          string
	EmbeddingModel string
}

// Ollama is the local-daemon chat and embedding provider.
type Ollama struct {
	cfg    OllamaConfig
	client *http.Client
	ready  bool
}

// NewOllama creates an uninitialized ollama provider.
func NewOllama(cfg OllamaConfig) *Ollama {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	return &Ollama{
		cfg:    cfg,
		client: &http.Client{Timeout: 120 * time.Second},
	}
}

func (p *Ollama) Name() string { return "ollama" }

// Init probes the daemon. An unreachable daemon is a configuration error,
// not a remote-service one: nothing can work until it is running.
func (p *Ollama) Init(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL+"/api/tags", nil)
	if err != nil {
		return errors.Wrap(errors.CodeConfiguration, "ollama: build probe request", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return errors.Wrap(errors.CodeConfiguration,
			fmt.Sprintf("ollama: daemon unreachable at %s", p.cfg.BaseURL), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.New(errors.CodeConfiguration,
			fmt.Sprintf("ollama: probe returned status %d", resp.StatusCode))
	}
	p.ready = true
	return nil
}

func (p *Ollama) ensureReady() error {
	if !p.ready {
		return errors.New(errors.CodeConfiguration, "ollama: provider not initialized")
	}
	return nil
}

type ollamaChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type ollamaChatResponse struct {
	Message Message `json:"message"`
	Done    bool    `json:"done"`
}

// Chat sends a non-streaming chat request to the daemon.
func (p *Ollama) Chat(ctx context.Context, messages []Message) (*ChatResponse, error) {
	if err := p.ensureReady(); err != nil {
		return nil, err
	}

	var out ollamaChatResponse
	err := p.post(ctx, "/api/chat", ollamaChatRequest{
		Model:    p.cfg.Model,
		Messages: messages,
		Stream:   false,
	}, &out)
	if err != nil {
		return nil, err
	}

	role := out.Message.Role
	if role == "" {
		role = RoleAssistant
	}
	return &ChatResponse{Role: role, Content: out.Message.Content}, nil
}

type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed converts one text into a vector.
func (p *Ollama) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := p.ensureReady(); err != nil {
		return nil, err
	}

	var out ollamaEmbeddingResponse
	err := p.post(ctx, "/api/embeddings", ollamaEmbeddingRequest{
		Model:  p.cfg.EmbeddingModel,
		Prompt: text,
	}, &out)
	if err != nil {
		return nil, err
	}

	vec := make([]float32, len(out.Embedding))
	for i, v := range out.Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

// EmbedBatch embeds each text in turn; the daemon API takes one prompt per
// call, so order preservation is structural.
func (p *Ollama) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := p.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed input %d: %w", i, err)
		}
		vecs[i] = vec
	}
	return vecs, nil
}

func (p *Ollama) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama %s call failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama %s returned status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

var _ Provider = (*Ollama)(nil)
