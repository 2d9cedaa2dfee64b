// Copyright 2026 © The Ergon Authors
// SPDX-License-Identifier: Apache-2.0

package functions

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jllopis/ergon/pkg/errors"
	"github.com/jllopis/ergon/pkg/llm"
	"github.com/jllopis/ergon/pkg/vector"
)

// Service is the caller-facing façade: discovery and execution delegate to
// the engine; Index/Search make functions semantically discoverable through
// the vector service.
type Service struct {
	engine     *Engine
	llm        *llm.Service
	vectors    *vector.Service
	collection string
	log        *slog.Logger
}

// NewService wires the façade. collection names the vector collection
// holding function metadata points.
func NewService(engine *Engine, llmSvc *llm.Service, vectors *vector.Service, collection string) *Service {
	return &Service{
		engine:     engine,
		llm:        llmSvc,
		vectors:    vectors,
		collection: collection,
		log:        slog.Default(),
	}
}

// SearchResult pairs a function with its similarity score.
type SearchResult struct {
	Function Metadata `json:"function"`
	Score    float32  `json:"score"`
}

// List returns every discovered function.
func (s *Service) List(ctx context.Context) ([]Metadata, error) {
	return s.engine.Discover()
}

// Metadata returns one function's metadata.
func (s *Service) Metadata(ctx context.Context, id string) (Metadata, error) {
	return s.engine.Metadata(id)
}

// Execute runs one function.
func (s *Service) Execute(ctx context.Context, id string, params map[string]any) (any, error) {
	return s.engine.Execute(ctx, id, params)
}

// Create materializes a new function on disk. The watcher (or an explicit
// IndexAll) picks it up for search.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Metadata, error) {
	return s.engine.Create(req)
}

// indexText is the embedded representation of one function.
func indexText(meta Metadata) string {
	return fmt.Sprintf("Name: %s\nDescription: %s\nTags: %s",
		meta.Name, meta.Description, strings.Join(meta.Tags, ", "))
}

// Index embeds the function's descriptive text and upserts it into the
// metadata collection keyed by the function id. This is the sole mechanism
// by which a function becomes semantically discoverable.
func (s *Service) Index(ctx context.Context, meta Metadata) error {
	if meta.ID == "" {
		return errors.New(errors.CodeInvalidInput, "function id is required")
	}

	vec, err := s.llm.EmbedText(ctx, indexText(meta))
	if err != nil {
		return err
	}
	payload, err := metadataPayload(meta)
	if err != nil {
		return err
	}
	if err := s.vectors.Index(ctx, s.collection, vector.Point{
		ID:      meta.ID,
		Vector:  vec,
		Payload: payload,
	}); err != nil {
		return err
	}
	s.log.Debug("ergon.functions.indexed", "function", meta.ID)
	return nil
}

// IndexAll discovers and indexes every function, returning how many were
// indexed before any failure.
func (s *Service) IndexAll(ctx context.Context) (int, error) {
	metas, err := s.engine.Discover()
	if err != nil {
		return 0, err
	}
	for i, meta := range metas {
		if err := s.Index(ctx, meta); err != nil {
			return i, err
		}
	}
	s.log.Info("ergon.functions.reindexed", "count", len(metas))
	return len(metas), nil
}

// Search runs a semantic search over the metadata collection and hydrates
// each match back into function metadata.
func (s *Service) Search(ctx context.Context, query string, limit uint64) ([]SearchResult, error) {
	matches, err := s.vectors.Search(ctx, query, vector.SearchOptions{
		Collection: s.collection,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(matches))
	for _, m := range matches {
		meta, err := metadataFromPayload(m.Payload)
		if err != nil {
			s.log.Warn("ergon.functions.match_skipped", "point", m.ID, "error", err)
			continue
		}
		results = append(results, SearchResult{Function: meta, Score: m.Score})
	}
	return results, nil
}

// metadataPayload flattens metadata into the stored point payload. The id
// travels in the payload because the stored point id is the derived hash,
// not the logical one.
func metadataPayload(meta Metadata) (map[string]any, error) {
	data, err := json.Marshal(meta)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, "encode metadata payload", err)
	}
	payload := map[string]any{}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, "decode metadata payload", err)
	}
	payload["id"] = meta.ID
	return payload, nil
}

func metadataFromPayload(payload map[string]any) (Metadata, error) {
	id, _ := payload["id"].(string)
	if id == "" {
		return Metadata{}, fmt.Errorf("payload has no function id")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Metadata{}, err
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, err
	}
	meta.ID = id
	return meta, nil
}
