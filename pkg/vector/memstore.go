// Copyright 2026 © The Ergon Authors
// SPDX-License-Identifier: Apache-2.0

package vector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemStore is an in-process Store backed by maps. It computes exact cosine
// similarity over every point, which is fine for tests and small local
// setups and hopeless beyond that.
type MemStore struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

type memCollection struct {
	size   uint64
	points map[string]Point
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{collections: make(map[string]*memCollection)}
}

// CreateCollection registers a collection with the given vector size.
func (m *MemStore) CreateCollection(_ context.Context, name string, vectorSize uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[name]; ok {
		return fmt.Errorf("collection %s already exists", name)
	}
	m.collections[name] = &memCollection{
		size:   vectorSize,
		points: make(map[string]Point),
	}
	return nil
}

// CollectionExists reports whether the collection is present.
func (m *MemStore) CollectionExists(_ context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.collections[name]
	return ok, nil
}

// Upsert adds or overwrites points by id.
func (m *MemStore) Upsert(_ context.Context, collection string, points []Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	col, ok := m.collections[collection]
	if !ok {
		return fmt.Errorf("collection %s does not exist", collection)
	}
	for _, p := range points {
		if col.size != 0 && uint64(len(p.Vector)) != col.size {
			return fmt.Errorf("point %s has dimension %d, collection %s expects %d",
				p.ID, len(p.Vector), collection, col.size)
		}
		col.points[p.ID] = p
	}
	return nil
}

// Query scans the whole collection and returns up to limit points by
// descending cosine similarity.
func (m *MemStore) Query(_ context.Context, collection string, vec []float32, limit uint64, threshold *float32, filter map[string]any) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	col, ok := m.collections[collection]
	if !ok {
		return nil, fmt.Errorf("collection %s does not exist", collection)
	}

	matches := make([]Match, 0, len(col.points))
	for _, p := range col.points {
		if !payloadMatches(p.Payload, filter) {
			continue
		}
		score := cosineSimilarity(vec, p.Vector)
		if threshold != nil && score < *threshold {
			continue
		}
		matches = append(matches, Match{ID: p.ID, Score: score, Payload: p.Payload})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if uint64(len(matches)) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Delete removes the points with the given ids. Unknown ids are ignored,
// matching what a remote store does.
func (m *MemStore) Delete(_ context.Context, collection string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	col, ok := m.collections[collection]
	if !ok {
		return fmt.Errorf("collection %s does not exist", collection)
	}
	for _, id := range ids {
		delete(col.points, id)
	}
	return nil
}

// Count returns the number of points in the collection. Test helper.
func (m *MemStore) Count(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	col, ok := m.collections[collection]
	if !ok {
		return 0
	}
	return len(col.points)
}

func payloadMatches(payload, filter map[string]any) bool {
	for k, want := range filter {
		got, ok := payload[k]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

var _ Store = (*MemStore)(nil)
