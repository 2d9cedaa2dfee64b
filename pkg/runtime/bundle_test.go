// Copyright 2026 © The Ergon Authors
// SPDX-License-Identifier: Apache-2.0

package runtime

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jllopis/ergon/pkg/config"
	"github.com/jllopis/ergon/pkg/container"
	"github.com/jllopis/ergon/pkg/errors"
	"github.com/jllopis/ergon/pkg/llm"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	dir := t.TempDir()
	cfg.Vector.Provider = "memory"
	cfg.Journal.Path = filepath.Join(dir, "ergon.db")
	cfg.Env.File = filepath.Join(dir, ".env")
	cfg.Functions.Dir = filepath.Join(dir, "functions")
	cfg.Shell.Shell = "/bin/sh"
	cfg.Shell.Workdir = dir
	return cfg
}

func newTestBundle(t *testing.T) *Bundle {
	t.Helper()
	b, err := New(context.Background(), testConfig(t), WithProvider(&llm.Mock{}))
	if err != nil {
		t.Fatalf("new bundle: %v", err)
	}
	t.Cleanup(func() { _ = b.Close(context.Background()) })
	return b
}

func TestNewWiresEverything(t *testing.T) {
	b := newTestBundle(t)
	ctx := context.Background()

	if b.Env() == nil || b.LLM() == nil || b.Vectors() == nil ||
		b.Functions() == nil || b.Shell() == nil || b.Memories() == nil {
		t.Fatal("bundle has unwired services")
	}
	if b.Journal() == nil {
		t.Fatal("journal should be open when a path is configured")
	}

	for _, token := range []string{
		TokenJournal, TokenEnv, TokenLLM, TokenVector,
		TokenFunctions, TokenShell, TokenMemory,
	} {
		if !b.Container().Has(token) {
			t.Fatalf("token %s not registered", token)
		}
	}

	llms := b.Registry().List(container.KindLLM)
	if len(llms) != 3 {
		t.Fatalf("expected mock, ollama and openai registered, got %v", llms)
	}
	vectors := b.Registry().List(container.KindVector)
	if len(vectors) != 1 || vectors[0] != "memory" {
		t.Fatalf("unexpected vector providers: %v", vectors)
	}

	for _, name := range []string{
		b.Config().Vector.Collections.Functions,
		b.Config().Vector.Collections.Memories,
	} {
		exists, err := b.Vectors().CollectionExists(ctx, name)
		if err != nil {
			t.Fatalf("collection %s: %v", name, err)
		}
		if !exists {
			t.Fatalf("collection %s was not created", name)
		}
	}
}

func TestBundleMemoriesRoundTrip(t *testing.T) {
	b := newTestBundle(t)
	ctx := context.Background()

	id, err := b.Memories().Remember(ctx, "", "the build runs on port 8080", nil)
	if err != nil {
		t.Fatalf("remember: %v", err)
	}
	memories, err := b.Memories().Recall(ctx, "the build runs on port 8080", 5, nil)
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if len(memories) != 1 || memories[0].ID != id {
		t.Fatalf("unexpected recall result: %+v", memories)
	}
}

func TestNewRejectsUnknownVectorProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.Vector.Provider = "bogus"

	_, err := New(context.Background(), cfg, WithProvider(&llm.Mock{}))
	if !errors.HasCode(err, errors.CodeConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestNewRejectsUnknownLLMProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLM.Provider = "bogus"

	_, err := New(context.Background(), cfg)
	if !errors.HasCode(err, errors.CodeConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestJournalDisabledByEmptyPath(t *testing.T) {
	cfg := testConfig(t)
	cfg.Journal.Path = ""

	b, err := New(context.Background(), cfg, WithProvider(&llm.Mock{}))
	if err != nil {
		t.Fatalf("new bundle: %v", err)
	}
	t.Cleanup(func() { _ = b.Close(context.Background()) })

	if b.Journal() != nil {
		t.Fatal("journal should be nil when the path is empty")
	}
	// Execution paths still work without a recorder.
	if _, err := b.Shell().Execute(context.Background(), "echo ok"); err != nil {
		t.Fatalf("shell execute: %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	b, err := New(context.Background(), testConfig(t), WithProvider(&llm.Mock{}))
	if err != nil {
		t.Fatalf("new bundle: %v", err)
	}
	if err := b.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := b.Close(context.Background()); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
