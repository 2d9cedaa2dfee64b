// Copyright 2026 © The Ergon Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"fmt"
	"testing"

	"github.com/jllopis/ergon/pkg/errors"
)

func TestServiceRequiresInit(t *testing.T) {
	svc := NewService(&Mock{})

	_, err := svc.EmbedText(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error before Init")
	}
	if !errors.HasCode(err, errors.CodeConfiguration) {
		t.Fatalf("code = %v, want %v", errors.CodeOf(err), errors.CodeConfiguration)
	}

	if _, err := svc.Chat(context.Background(), nil); err == nil {
		t.Fatal("chat must also fail before Init")
	}
}

func TestServiceInitFailureIsRetryable(t *testing.T) {
	mock := &Mock{InitErr: errors.New(errors.CodeConfiguration, "no key")}
	svc := NewService(mock)

	if err := svc.Init(context.Background()); err == nil {
		t.Fatal("expected init failure")
	}

	mock.InitErr = nil
	if err := svc.Init(context.Background()); err != nil {
		t.Fatalf("init after fixing config: %v", err)
	}
	if _, err := svc.EmbedText(context.Background(), "hello"); err != nil {
		t.Fatalf("embed after init: %v", err)
	}
}

func TestEmbedTextsPreservesOrder(t *testing.T) {
	mock := &Mock{
		EmbedFunc: func(ctx context.Context, text string) ([]float32, error) {
			return []float32{float32(len(text))}, nil
		},
	}
	svc := NewService(mock)
	if err := svc.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}

	texts := []string{"a", "ab", "abc", "abcd"}
	vecs, err := svc.EmbedTexts(context.Background(), texts)
	if err != nil {
		t.Fatalf("embed texts: %v", err)
	}
	if len(vecs) != len(texts) {
		t.Fatalf("got %d vectors", len(vecs))
	}
	for i, v := range vecs {
		if v[0] != float32(len(texts[i])) {
			t.Fatalf("vecs[%d] = %v, want [%d]", i, v, len(texts[i]))
		}
	}
}

func TestServiceWrapsBackendErrors(t *testing.T) {
	mock := &Mock{
		ChatFunc: func(ctx context.Context, messages []Message) (*ChatResponse, error) {
			return nil, fmt.Errorf("connection reset")
		},
	}
	svc := NewService(mock)
	if err := svc.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}

	_, err := svc.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	if err == nil {
		t.Fatal("expected backend error")
	}
	if !errors.HasCode(err, errors.CodeRemoteService) {
		t.Fatalf("code = %v, want %v", errors.CodeOf(err), errors.CodeRemoteService)
	}
}

func TestMockEmbeddingIsDeterministic(t *testing.T) {
	m := &Mock{}
	first, err := m.Embed(context.Background(), "same text")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	second, err := m.Embed(context.Background(), "same text")
	if err != nil {
		t.Fatalf("embed again: %v", err)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatal("mock embedding not deterministic")
		}
	}

	other, _ := m.Embed(context.Background(), "different text")
	same := true
	for i := range first {
		if first[i] != other[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("distinct texts produced identical vectors")
	}
}
