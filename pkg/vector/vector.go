// Copyright 2026 © The Ergon Authors
// SPDX-License-Identifier: Apache-2.0

// Package vector provides the embedding-backed semantic index: a provider
// interface over cosine-distance vector stores plus the service that embeds
// queries and enforces result ordering.
package vector

import (
	"context"

	"github.com/google/uuid"
)

// idNamespace is the fixed namespace for derived point ids. Changing it
// orphans every previously indexed point.
var idNamespace = uuid.MustParse("8f41a9c2-55e6-5a30-9c6b-7d10f2a4e1b3")

// DeriveID maps a caller-supplied logical id onto a stable point id, so
// re-indexing the same logical id always overwrites the same point.
func DeriveID(logicalID string) string {
	return uuid.NewSHA1(idNamespace, []byte(logicalID)).String()
}

// Point is one entry in a collection. ID is the logical id as supplied by
// the caller; stores receive the derived form.
type Point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// Match is one search hit, best first.
type Match struct {
	ID      string         `json:"id"`
	Score   float32        `json:"score"`
	Payload map[string]any `json:"payload"`
}

// Store defines the provider contract for a cosine-distance vector store.
type Store interface {
	// CreateCollection creates a cosine collection with the given vector size.
	CreateCollection(ctx context.Context, name string, vectorSize uint64) error
	// CollectionExists reports whether the collection is present.
	CollectionExists(ctx context.Context, name string) (bool, error)
	// Upsert adds or overwrites points by id.
	Upsert(ctx context.Context, collection string, points []Point) error
	// Query returns up to limit nearest neighbors of vector, filtered by the
	// optional score threshold and payload equality filter.
	Query(ctx context.Context, collection string, vector []float32, limit uint64, threshold *float32, filter map[string]any) ([]Match, error)
	// Delete removes the points with the given ids.
	Delete(ctx context.Context, collection string, ids []string) error
}
