// Copyright 2026 © The Ergon Authors
// SPDX-License-Identifier: Apache-2.0

package vector

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jllopis/ergon/pkg/errors"
	"github.com/jllopis/ergon/pkg/llm"
	"github.com/jllopis/ergon/pkg/telemetry"
)

// SearchOptions narrows a semantic search.
type SearchOptions struct {
	// Collection to search. Required.
	Collection string
	// Limit caps the result count. Zero means 10.
	Limit uint64
	// Threshold excludes matches scoring below it when set.
	Threshold *float32
	// Filter keeps only points whose payload matches every pair.
	Filter map[string]any
}

// DefaultSearchLimit applies when SearchOptions.Limit is zero.
const DefaultSearchLimit = 10

// Service embeds text through the LLM service and talks to one Store.
type Service struct {
	llm     *llm.Service
	store   Store
	metrics *telemetry.RuntimeMetrics
	log     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics attaches runtime metrics.
func WithMetrics(m *telemetry.RuntimeMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a vector service over store, embedding via llmSvc.
func NewService(llmSvc *llm.Service, store Store, opts ...Option) *Service {
	s := &Service{
		llm:   llmSvc,
		store: store,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureCollection creates the collection when it does not exist yet.
func (s *Service) EnsureCollection(ctx context.Context, name string, vectorSize uint64) error {
	exists, err := s.store.CollectionExists(ctx, name)
	if err != nil {
		return wrapStore("check collection", err)
	}
	if exists {
		return nil
	}
	if err := s.store.CreateCollection(ctx, name, vectorSize); err != nil {
		return wrapStore(fmt.Sprintf("create collection %s", name), err)
	}
	s.log.Info("ergon.vector.collection_created", "collection", name, "size", vectorSize)
	return nil
}

// CollectionExists reports whether the collection is present.
func (s *Service) CollectionExists(ctx context.Context, name string) (bool, error) {
	exists, err := s.store.CollectionExists(ctx, name)
	if err != nil {
		return false, wrapStore("check collection", err)
	}
	return exists, nil
}

// Index upserts one point. The point's logical id is hashed into the fixed
// id namespace, so indexing the same id twice overwrites rather than
// duplicates.
func (s *Service) Index(ctx context.Context, collection string, p Point) error {
	if p.ID == "" {
		return errors.New(errors.CodeInvalidInput, "point id is required")
	}
	if len(p.Vector) == 0 {
		return errors.New(errors.CodeInvalidInput,
			fmt.Sprintf("point %s has no vector", p.ID))
	}

	stored := Point{ID: DeriveID(p.ID), Vector: p.Vector, Payload: p.Payload}
	if err := s.store.Upsert(ctx, collection, []Point{stored}); err != nil {
		return wrapStore(fmt.Sprintf("index point %s", p.ID), err)
	}
	s.metrics.RecordIndexed(ctx, collection)
	s.log.Debug("ergon.vector.indexed", "collection", collection, "id", p.ID)
	return nil
}

// Search embeds query, fetches nearest neighbors, and returns matches
// sorted by descending score, truncated to the limit, excluding any below
// the threshold.
func (s *Service) Search(ctx context.Context, query string, opts SearchOptions) ([]Match, error) {
	if opts.Collection == "" {
		return nil, errors.New(errors.CodeInvalidInput, "search collection is required")
	}
	limit := opts.Limit
	if limit == 0 {
		limit = DefaultSearchLimit
	}

	vec, err := s.llm.EmbedText(ctx, query)
	if err != nil {
		return nil, err
	}

	matches, err := s.store.Query(ctx, opts.Collection, vec, limit, opts.Threshold, opts.Filter)
	if err != nil {
		return nil, wrapStore("query nearest neighbors", err)
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if opts.Threshold != nil {
		kept := matches[:0]
		for _, m := range matches {
			if m.Score >= *opts.Threshold {
				kept = append(kept, m)
			}
		}
		matches = kept
	}
	if uint64(len(matches)) > limit {
		matches = matches[:limit]
	}

	s.metrics.RecordSearch(ctx, opts.Collection, len(matches))
	s.log.Debug("ergon.vector.search", "collection", opts.Collection, "results", len(matches))
	return matches, nil
}

// Delete removes the point stored under the logical id.
func (s *Service) Delete(ctx context.Context, collection, logicalID string) error {
	if err := s.store.Delete(ctx, collection, []string{DeriveID(logicalID)}); err != nil {
		return wrapStore(fmt.Sprintf("delete point %s", logicalID), err)
	}
	s.log.Debug("ergon.vector.deleted", "collection", collection, "id", logicalID)
	return nil
}

func wrapStore(op string, err error) error {
	if errors.IsErgonError(err) {
		return err
	}
	return errors.Wrap(errors.CodeRemoteService, op, err)
}
