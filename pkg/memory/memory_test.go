// Copyright 2026 © The Ergon Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/jllopis/ergon/pkg/errors"
	"github.com/jllopis/ergon/pkg/llm"
	"github.com/jllopis/ergon/pkg/vector"
)

const testCollection = "memories"

// newMemoryStack wires a memories service over a MemStore with an embedder
// that separates sky-ish and grass-ish texts so recall order is
// deterministic.
func newMemoryStack(t *testing.T) (*Service, *vector.Service, *vector.MemStore) {
	t.Helper()
	mock := &llm.Mock{
		EmbedFunc: func(ctx context.Context, text string) ([]float32, error) {
			lower := strings.ToLower(text)
			switch {
			case strings.Contains(lower, "sky"):
				return []float32{1, 0}, nil
			case strings.Contains(lower, "grass"):
				return []float32{0, 1}, nil
			default:
				return []float32{0.7, 0.7}, nil
			}
		},
	}
	llmSvc := llm.NewService(mock)
	if err := llmSvc.Init(context.Background()); err != nil {
		t.Fatalf("init llm: %v", err)
	}

	store := vector.NewMemStore()
	if err := store.CreateCollection(context.Background(), testCollection, 0); err != nil {
		t.Fatalf("create collection: %v", err)
	}

	vectors := vector.NewService(llmSvc, store)
	return NewService(llmSvc, vectors, testCollection), vectors, store
}

func TestRememberAssignsID(t *testing.T) {
	svc, _, store := newMemoryStack(t)

	id, err := svc.Remember(context.Background(), "", "the sky is blue", nil)
	if err != nil {
		t.Fatalf("remember: %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated id")
	}
	if got := store.Count(testCollection); got != 1 {
		t.Fatalf("expected 1 point, got %d", got)
	}
}

func TestRememberKeepsCallerID(t *testing.T) {
	svc, _, _ := newMemoryStack(t)

	id, err := svc.Remember(context.Background(), "fact-1", "the sky is blue", nil)
	if err != nil {
		t.Fatalf("remember: %v", err)
	}
	if id != "fact-1" {
		t.Fatalf("expected caller id back, got %q", id)
	}
}

func TestRememberOverwritesSameID(t *testing.T) {
	svc, _, store := newMemoryStack(t)
	ctx := context.Background()

	if _, err := svc.Remember(ctx, "fact-1", "the sky is blue", nil); err != nil {
		t.Fatalf("remember: %v", err)
	}
	if _, err := svc.Remember(ctx, "fact-1", "the sky is grey today", nil); err != nil {
		t.Fatalf("remember again: %v", err)
	}

	if got := store.Count(testCollection); got != 1 {
		t.Fatalf("expected 1 point after overwrite, got %d", got)
	}

	memories, err := svc.Recall(ctx, "sky", 10, nil)
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if len(memories) != 1 || memories[0].Text != "the sky is grey today" {
		t.Fatalf("expected latest text, got %+v", memories)
	}
}

func TestRememberRequiresText(t *testing.T) {
	svc, _, _ := newMemoryStack(t)
	_, err := svc.Remember(context.Background(), "", "   ", nil)
	if !errors.HasCode(err, errors.CodeInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestRecallOrdersByScore(t *testing.T) {
	svc, _, _ := newMemoryStack(t)
	ctx := context.Background()

	if _, err := svc.Remember(ctx, "sky", "the sky is blue", nil); err != nil {
		t.Fatalf("remember: %v", err)
	}
	if _, err := svc.Remember(ctx, "grass", "the grass is green", nil); err != nil {
		t.Fatalf("remember: %v", err)
	}

	memories, err := svc.Recall(ctx, "what color is the sky", 10, nil)
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if len(memories) != 2 {
		t.Fatalf("expected 2 memories, got %d", len(memories))
	}
	if memories[0].ID != "sky" {
		t.Fatalf("expected sky memory first, got %+v", memories)
	}
	if memories[0].Score <= memories[1].Score {
		t.Fatalf("expected descending scores: %v then %v", memories[0].Score, memories[1].Score)
	}
}

func TestRecallHydratesMetadata(t *testing.T) {
	svc, _, _ := newMemoryStack(t)
	ctx := context.Background()

	meta := map[string]any{"source": "user", "weight": 2.0}
	if _, err := svc.Remember(ctx, "fact-1", "the sky is blue", meta); err != nil {
		t.Fatalf("remember: %v", err)
	}

	memories, err := svc.Recall(ctx, "sky", 10, nil)
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if len(memories) != 1 {
		t.Fatalf("expected 1 memory, got %d", len(memories))
	}
	got := memories[0]
	if got.ID != "fact-1" || got.Text != "the sky is blue" {
		t.Fatalf("unexpected memory: %+v", got)
	}
	if got.Metadata["source"] != "user" || got.Metadata["weight"] != 2.0 {
		t.Fatalf("unexpected metadata: %+v", got.Metadata)
	}
}

func TestRecallAppliesThreshold(t *testing.T) {
	svc, _, _ := newMemoryStack(t)
	ctx := context.Background()

	if _, err := svc.Remember(ctx, "sky", "the sky is blue", nil); err != nil {
		t.Fatalf("remember: %v", err)
	}
	if _, err := svc.Remember(ctx, "grass", "the grass is green", nil); err != nil {
		t.Fatalf("remember: %v", err)
	}

	threshold := float32(0.5)
	memories, err := svc.Recall(ctx, "what color is the sky", 10, &threshold)
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if len(memories) != 1 || memories[0].ID != "sky" {
		t.Fatalf("expected only the sky memory, got %+v", memories)
	}
}

func TestRecallRequiresQuery(t *testing.T) {
	svc, _, _ := newMemoryStack(t)
	_, err := svc.Recall(context.Background(), "  ", 10, nil)
	if !errors.HasCode(err, errors.CodeInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestForgetRemovesMemory(t *testing.T) {
	svc, _, store := newMemoryStack(t)
	ctx := context.Background()

	if _, err := svc.Remember(ctx, "fact-1", "the sky is blue", nil); err != nil {
		t.Fatalf("remember: %v", err)
	}
	if err := svc.Forget(ctx, "fact-1"); err != nil {
		t.Fatalf("forget: %v", err)
	}
	if got := store.Count(testCollection); got != 0 {
		t.Fatalf("expected empty collection, got %d points", got)
	}

	memories, err := svc.Recall(ctx, "sky", 10, nil)
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if len(memories) != 0 {
		t.Fatalf("expected no memories, got %+v", memories)
	}
}

func TestForgetRequiresID(t *testing.T) {
	svc, _, _ := newMemoryStack(t)
	err := svc.Forget(context.Background(), "")
	if !errors.HasCode(err, errors.CodeInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestRecallSkipsForeignPayloads(t *testing.T) {
	svc, vectors, _ := newMemoryStack(t)
	ctx := context.Background()

	if _, err := svc.Remember(ctx, "fact-1", "the sky is blue", nil); err != nil {
		t.Fatalf("remember: %v", err)
	}
	// A point indexed outside the service carries no text payload.
	err := vectors.Index(ctx, testCollection, vector.Point{
		ID:      "foreign",
		Vector:  []float32{1, 0},
		Payload: map[string]any{"kind": "other"},
	})
	if err != nil {
		t.Fatalf("index foreign point: %v", err)
	}

	memories, err := svc.Recall(ctx, "sky", 10, nil)
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if len(memories) != 1 || memories[0].ID != "fact-1" {
		t.Fatalf("expected only the real memory, got %+v", memories)
	}
}
