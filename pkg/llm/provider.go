// Copyright 2026 © The Ergon Authors
// SPDX-License-Identifier: Apache-2.0

// Package llm wraps chat and embedding backends behind a single provider
// interface. Providers are inert until Init validates their credentials or
// backend reachability.
package llm

import "context"

// Role represents the role of a message sender.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single unit of a chat exchange.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatResponse is the assistant turn produced by a provider.
type ChatResponse struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Provider defines the backend contract for chat and embeddings.
type Provider interface {
	// Name identifies the provider in registry listings.
	Name() string
	// Init validates configuration and prepares the backend client. It must
	// be called before any other method.
	Init(ctx context.Context) error
	// Chat sends the conversation and returns the assistant reply.
	Chat(ctx context.Context, messages []Message) (*ChatResponse, error)
	// Embed converts one text into a vector.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch converts texts into vectors, one per input, same order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
