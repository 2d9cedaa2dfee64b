// Copyright 2026 © The Ergon Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jllopis/ergon/pkg/errors"
)

// OpenAIConfig configures the openai provider. BaseURL may point at any
// OpenAI-compatible endpoint.
type OpenAIConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	EmbeddingModel string
}

// OpenAI is the openai chat and embedding provider.
type OpenAI struct {
	cfg    OpenAIConfig
	client *openai.Client
}

// NewOpenAI creates an uninitialized openai provider.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = string(openai.SmallEmbedding3)
	}
	return &OpenAI{cfg: cfg}
}

func (p *OpenAI) Name() string { return "openai" }

// Init validates the API key and builds the client. The key comes from the
// config or, as a fallback, the OPENAI_API_KEY environment variable.
func (p *OpenAI) Init(ctx context.Context) error {
	key := p.cfg.APIKey
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	if key == "" {
		return errors.New(errors.CodeConfiguration,
			"openai: no API key in config or OPENAI_API_KEY")
	}

	cc := openai.DefaultConfig(key)
	if p.cfg.BaseURL != "" {
		cc.BaseURL = p.cfg.BaseURL
	}
	p.client = openai.NewClientWithConfig(cc)
	return nil
}

func (p *OpenAI) ensureClient() error {
	if p.client == nil {
		return errors.New(errors.CodeConfiguration, "openai: provider not initialized")
	}
	return nil
}

// Chat sends the conversation through the chat completions API.
func (p *OpenAI) Chat(ctx context.Context, messages []Message) (*ChatResponse, error) {
	if err := p.ensureClient(); err != nil {
		return nil, err
	}

	oaMsgs := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		oaMsgs[i] = openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    p.cfg.Model,
		Messages: oaMsgs,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty choice list")
	}

	choice := resp.Choices[0].Message
	return &ChatResponse{
		Role:    Role(choice.Role),
		Content: choice.Content,
	}, nil
}

// Embed converts one text into a vector.
func (p *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch converts texts into vectors in one API call. The response is
// reordered by index so output position i always corresponds to texts[i].
func (p *OpenAI) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := p.ensureClient(); err != nil {
		return nil, err
	}

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(p.cfg.EmbeddingModel),
		Input: texts,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai: %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	vecs := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vecs) {
			return nil, fmt.Errorf("openai: embedding index %d out of range", d.Index)
		}
		vecs[d.Index] = d.Embedding
	}
	return vecs, nil
}

var _ Provider = (*OpenAI)(nil)
