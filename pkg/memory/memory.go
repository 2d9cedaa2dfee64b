// Copyright 2026 © The Ergon Authors
// SPDX-License-Identifier: Apache-2.0

// Package memory stores and recalls free-form text memories through the
// vector service. Each memory is one point: the text is embedded, and the
// payload carries the text plus whatever metadata the caller attached.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/jllopis/ergon/pkg/errors"
	"github.com/jllopis/ergon/pkg/llm"
	"github.com/jllopis/ergon/pkg/vector"
)

// Memory is one remembered item, optionally scored when it comes out of
// Recall.
type Memory struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Score    float32        `json:"score,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Service persists memories in one vector collection.
type Service struct {
	llm        *llm.Service
	vectors    *vector.Service
	collection string
	log        *slog.Logger
}

// NewService creates a memories service over the given collection.
func NewService(llmSvc *llm.Service, vectors *vector.Service, collection string) *Service {
	return &Service{
		llm:        llmSvc,
		vectors:    vectors,
		collection: collection,
		log:        slog.Default(),
	}
}

// Remember embeds text and upserts it under id. An empty id gets a fresh
// UUID. Remembering an existing id overwrites it. Returns the id the memory
// was stored under.
func (s *Service) Remember(ctx context.Context, id, text string, metadata map[string]any) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.New(errors.CodeInvalidInput, "memory text is required")
	}
	if id == "" {
		id = uuid.NewString()
	}

	vec, err := s.llm.EmbedText(ctx, text)
	if err != nil {
		return "", err
	}

	// The stored point id is the derived hash, so the logical id travels in
	// the payload for hydration on the way back out.
	payload := map[string]any{"id": id, "text": text}
	if len(metadata) > 0 {
		payload["metadata"] = metadata
	}

	if err := s.vectors.Index(ctx, s.collection, vector.Point{
		ID:      id,
		Vector:  vec,
		Payload: payload,
	}); err != nil {
		return "", err
	}
	s.log.Debug("ergon.memory.remembered", "id", id, "chars", len(text))
	return id, nil
}

// Recall searches memories semantically. Zero limit falls back to the vector
// service default. A threshold, when set, drops matches scoring below it.
func (s *Service) Recall(ctx context.Context, query string, limit uint64, threshold *float32) ([]Memory, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New(errors.CodeInvalidInput, "recall query is required")
	}

	matches, err := s.vectors.Search(ctx, query, vector.SearchOptions{
		Collection: s.collection,
		Limit:      limit,
		Threshold:  threshold,
	})
	if err != nil {
		return nil, err
	}

	memories := make([]Memory, 0, len(matches))
	for _, match := range matches {
		mem, ok := memoryFromPayload(match.Payload)
		if !ok {
			s.log.Warn("ergon.memory.match_skipped", "point_id", match.ID)
			continue
		}
		mem.Score = match.Score
		memories = append(memories, mem)
	}
	s.log.Debug("ergon.memory.recalled", "query_chars", len(query), "matches", len(memories))
	return memories, nil
}

// Forget deletes the memory stored under id.
func (s *Service) Forget(ctx context.Context, id string) error {
	if id == "" {
		return errors.New(errors.CodeInvalidInput, "memory id is required")
	}
	if err := s.vectors.Delete(ctx, s.collection, id); err != nil {
		return fmt.Errorf("forget memory %s: %w", id, err)
	}
	s.log.Debug("ergon.memory.forgotten", "id", id)
	return nil
}

func memoryFromPayload(payload map[string]any) (Memory, bool) {
	id, _ := payload["id"].(string)
	text, ok := payload["text"].(string)
	if !ok || id == "" {
		return Memory{}, false
	}
	mem := Memory{ID: id, Text: text}
	if md, ok := payload["metadata"].(map[string]any); ok {
		mem.Metadata = md
	}
	return mem, true
}
