// Copyright 2026 © The Ergon Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/jllopis/ergon/pkg/errors"
)

// Service fronts one Provider and enforces the initialization gate: every
// call before a successful Init fails with a configuration error, and
// backend failures surface as remote-service errors.
type Service struct {
	mu       sync.Mutex
	provider Provider
	ready    bool
}

// NewService wraps provider. Call Init before using the service.
func NewService(provider Provider) *Service {
	return &Service{provider: provider}
}

// Init initializes the underlying provider. Safe to call again after a
// failure; a successful call is idempotent.
func (s *Service) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}
	if err := s.provider.Init(ctx); err != nil {
		return err
	}
	s.ready = true
	return nil
}

// ProviderName returns the name of the wrapped provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}

func (s *Service) ensureReady() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return errors.New(errors.CodeConfiguration,
			fmt.Sprintf("llm provider %s not initialized", s.provider.Name()))
	}
	return nil
}

// EmbedText converts one text into a vector.
func (s *Service) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	vec, err := s.provider.Embed(ctx, text)
	if err != nil {
		return nil, wrapRemote("generate embedding", err)
	}
	return vec, nil
}

// EmbedTexts converts texts into vectors, preserving input order.
func (s *Service) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	vecs, err := s.provider.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, wrapRemote("generate embeddings", err)
	}
	if len(vecs) != len(texts) {
		return nil, errors.New(errors.CodeRemoteService,
			fmt.Sprintf("embedding count mismatch: %d vectors for %d texts", len(vecs), len(texts)))
	}
	return vecs, nil
}

// Chat sends the conversation to the provider and returns the reply.
func (s *Service) Chat(ctx context.Context, messages []Message) (*ChatResponse, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	resp, err := s.provider.Chat(ctx, messages)
	if err != nil {
		return nil, wrapRemote("chat completion", err)
	}
	return resp, nil
}

// wrapRemote tags raw provider errors as remote-service failures while
// letting already-coded errors through untouched.
func wrapRemote(op string, err error) error {
	if errors.IsErgonError(err) {
		return err
	}
	return errors.Wrap(errors.CodeRemoteService, op, err)
}
