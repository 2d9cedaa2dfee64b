// Copyright 2026 © The Ergon Authors
// SPDX-License-Identifier: Apache-2.0

// Package runtime assembles the full service bundle: journal, env store,
// LLM and vector providers, functions engine, shell session, and memories,
// all wired through the service container. There is no package-level
// bundle; the entry point constructs one and passes it down.
package runtime

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jllopis/ergon/pkg/config"
	"github.com/jllopis/ergon/pkg/container"
	"github.com/jllopis/ergon/pkg/envstore"
	"github.com/jllopis/ergon/pkg/errors"
	"github.com/jllopis/ergon/pkg/functions"
	"github.com/jllopis/ergon/pkg/journal"
	"github.com/jllopis/ergon/pkg/llm"
	"github.com/jllopis/ergon/pkg/memory"
	"github.com/jllopis/ergon/pkg/shell"
	"github.com/jllopis/ergon/pkg/telemetry"
	"github.com/jllopis/ergon/pkg/vector"
	vectorqdrant "github.com/jllopis/ergon/pkg/vector/qdrant"
)

// Container tokens for the services the bundle registers.
const (
	TokenJournal   = "journal"
	TokenEnv       = "env"
	TokenLLM       = "llm"
	TokenVector    = "vector"
	TokenFunctions = "functions"
	TokenShell     = "shell"
	TokenMemory    = "memory"
)

// Bundle holds the wired runtime services.
type Bundle struct {
	cfg       *config.Config
	container *container.Container
	registry  *container.Registry
	metrics   *telemetry.RuntimeMetrics
	log       *slog.Logger

	journal   *journal.Store
	env       *envstore.Store
	llm       *llm.Service
	vectors   *vector.Service
	functions *functions.Service
	shell     *shell.Manager
	memories  *memory.Service

	// qdrant is set only when qdrant is the active vector provider; the
	// gRPC conn needs a Close of its own.
	qdrant *vectorqdrant.Store

	overrideLLM llm.Provider
}

// Option adjusts bundle construction.
type Option func(*Bundle)

// WithProvider registers an extra LLM provider and makes it the active one,
// bypassing the configured selection. Used by tests and embedders.
func WithProvider(p llm.Provider) Option {
	return func(b *Bundle) { b.overrideLLM = p }
}

// New constructs the full bundle from cfg: journal, env store, LLM provider
// selection, vector provider selection, collections, functions service,
// shell manager, and memories service. Everything is registered in the
// service container and resolved once, in dependency order. The caller owns
// the bundle and must Close it.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Bundle, error) {
	metrics, err := telemetry.NewRuntimeMetrics()
	if err != nil {
		return nil, err
	}

	b := &Bundle{
		cfg:       cfg,
		container: container.New(),
		registry:  container.NewRegistry(),
		metrics:   metrics,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}

	b.container.Register(TokenJournal, b.buildJournal)
	b.container.Register(TokenEnv, b.buildEnv)
	b.container.Register(TokenLLM, b.buildLLM)
	b.container.Register(TokenVector, b.buildVector)
	b.container.Register(TokenFunctions, b.buildFunctions)
	b.container.Register(TokenShell, b.buildShell)
	b.container.Register(TokenMemory, b.buildMemory)

	if err := b.materialize(ctx); err != nil {
		_ = b.Close(ctx)
		return nil, err
	}
	if err := b.ensureCollections(ctx); err != nil {
		_ = b.Close(ctx)
		return nil, err
	}

	b.log.Info("ergon.runtime.ready",
		"llm_provider", b.llm.ProviderName(),
		"vector_provider", cfg.Vector.Provider,
		"functions_dir", cfg.Functions.Dir,
	)
	return b, nil
}

// materialize resolves every token once, in dependency order, filling the
// bundle fields.
func (b *Bundle) materialize(ctx context.Context) error {
	var err error
	if b.journal, err = container.ResolveAs[*journal.Store](ctx, b.container, TokenJournal); err != nil {
		return err
	}
	if b.env, err = container.ResolveAs[*envstore.Store](ctx, b.container, TokenEnv); err != nil {
		return err
	}
	if b.llm, err = container.ResolveAs[*llm.Service](ctx, b.container, TokenLLM); err != nil {
		return err
	}
	if b.vectors, err = container.ResolveAs[*vector.Service](ctx, b.container, TokenVector); err != nil {
		return err
	}
	if b.functions, err = container.ResolveAs[*functions.Service](ctx, b.container, TokenFunctions); err != nil {
		return err
	}
	if b.shell, err = container.ResolveAs[*shell.Manager](ctx, b.container, TokenShell); err != nil {
		return err
	}
	if b.memories, err = container.ResolveAs[*memory.Service](ctx, b.container, TokenMemory); err != nil {
		return err
	}
	return nil
}

func (b *Bundle) buildJournal(context.Context) (any, error) {
	if b.cfg.Journal.Path == "" {
		// An empty path turns recording off; the token stays resolvable.
		return (*journal.Store)(nil), nil
	}
	return journal.Open(b.cfg.Journal.Path)
}

func (b *Bundle) buildEnv(context.Context) (any, error) {
	return envstore.New(b.cfg.Env.File), nil
}

func (b *Bundle) buildLLM(ctx context.Context) (any, error) {
	openAI := llm.NewOpenAI(llm.OpenAIConfig{
		APIKey:         b.cfg.LLM.OpenAI.APIKey,
		BaseURL:        b.cfg.LLM.OpenAI.BaseURL,
		Model:          b.cfg.LLM.OpenAI.Model,
		EmbeddingModel: b.cfg.LLM.OpenAI.EmbeddingModel,
	})
	ollama := llm.NewOllama(llm.OllamaConfig{
		BaseURL:        b.cfg.LLM.Ollama.BaseURL,
		Model:          b.cfg.LLM.Ollama.Model,
		EmbeddingModel: b.cfg.LLM.Ollama.EmbeddingModel,
	})
	providers := []llm.Provider{openAI, ollama}
	if b.overrideLLM != nil {
		providers = append(providers, b.overrideLLM)
	}
	for _, p := range providers {
		if err := b.registry.Register(container.KindLLM, p.Name(), p); err != nil {
			return nil, err
		}
	}

	active := b.overrideLLM
	if active == nil {
		v, ok := b.registry.Get(container.KindLLM, b.cfg.LLM.Provider)
		if !ok {
			return nil, errors.New(errors.CodeConfiguration,
				fmt.Sprintf("unknown llm provider %q (registered: %s)",
					b.cfg.LLM.Provider,
					strings.Join(b.registry.List(container.KindLLM), ", ")))
		}
		active = v.(llm.Provider)
	}

	svc := llm.NewService(active)
	if err := svc.Init(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}

func (b *Bundle) buildVector(ctx context.Context) (any, error) {
	var store vector.Store
	switch b.cfg.Vector.Provider {
	case "qdrant":
		st, err := vectorqdrant.New(b.cfg.Vector.QdrantAddr)
		if err != nil {
			return nil, err
		}
		b.qdrant = st
		store = st
	case "memory":
		store = vector.NewMemStore()
	default:
		return nil, errors.New(errors.CodeConfiguration,
			fmt.Sprintf("unknown vector provider %q", b.cfg.Vector.Provider))
	}
	if err := b.registry.Register(container.KindVector, b.cfg.Vector.Provider, store); err != nil {
		return nil, err
	}

	llmSvc, err := container.ResolveAs[*llm.Service](ctx, b.container, TokenLLM)
	if err != nil {
		return nil, err
	}
	return vector.NewService(llmSvc, store, vector.WithMetrics(b.metrics)), nil
}

func (b *Bundle) buildFunctions(ctx context.Context) (any, error) {
	llmSvc, err := container.ResolveAs[*llm.Service](ctx, b.container, TokenLLM)
	if err != nil {
		return nil, err
	}
	vectors, err := container.ResolveAs[*vector.Service](ctx, b.container, TokenVector)
	if err != nil {
		return nil, err
	}
	rec, err := b.recorder(ctx)
	if err != nil {
		return nil, err
	}

	opts := []functions.EngineOption{functions.WithEngineMetrics(b.metrics)}
	if rec != nil {
		opts = append(opts, functions.WithJournal(rec))
	}
	engine := functions.NewEngine(
		b.cfg.Functions.Dir,
		b.cfg.Functions.Interpreter,
		b.cfg.Functions.Runner,
		opts...,
	)
	return functions.NewService(engine, llmSvc, vectors, b.cfg.Vector.Collections.Functions), nil
}

func (b *Bundle) buildShell(ctx context.Context) (any, error) {
	rec, err := b.recorder(ctx)
	if err != nil {
		return nil, err
	}
	opts := []shell.Option{shell.WithMetrics(b.metrics)}
	if rec != nil {
		opts = append(opts, shell.WithJournal(rec))
	}
	return shell.NewManager(b.cfg.Shell.Shell, b.cfg.Shell.Workdir, opts...), nil
}

func (b *Bundle) buildMemory(ctx context.Context) (any, error) {
	llmSvc, err := container.ResolveAs[*llm.Service](ctx, b.container, TokenLLM)
	if err != nil {
		return nil, err
	}
	vectors, err := container.ResolveAs[*vector.Service](ctx, b.container, TokenVector)
	if err != nil {
		return nil, err
	}
	return memory.NewService(llmSvc, vectors, b.cfg.Vector.Collections.Memories), nil
}

// recorder resolves the journal token into a Recorder, or nil when
// recording is off.
func (b *Bundle) recorder(ctx context.Context) (journal.Recorder, error) {
	st, err := container.ResolveAs[*journal.Store](ctx, b.container, TokenJournal)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, nil
	}
	return st, nil
}

// ensureCollections probes the embedding width with one sample embed and
// creates any missing collection at that size.
func (b *Bundle) ensureCollections(ctx context.Context) error {
	probe, err := b.llm.EmbedText(ctx, "dimension probe")
	if err != nil {
		return err
	}
	size := uint64(len(probe))
	for _, name := range []string{
		b.cfg.Vector.Collections.Functions,
		b.cfg.Vector.Collections.Memories,
	} {
		if err := b.vectors.EnsureCollection(ctx, name, size); err != nil {
			return err
		}
	}
	return nil
}

// Config returns the configuration the bundle was built from.
func (b *Bundle) Config() *config.Config { return b.cfg }

// Container returns the service container.
func (b *Bundle) Container() *container.Container { return b.container }

// Registry returns the provider registry.
func (b *Bundle) Registry() *container.Registry { return b.registry }

// Journal returns the journal store, or nil when recording is off.
func (b *Bundle) Journal() *journal.Store { return b.journal }

// Env returns the env store.
func (b *Bundle) Env() *envstore.Store { return b.env }

// LLM returns the active LLM service.
func (b *Bundle) LLM() *llm.Service { return b.llm }

// Vectors returns the vector service.
func (b *Bundle) Vectors() *vector.Service { return b.vectors }

// Functions returns the functions service.
func (b *Bundle) Functions() *functions.Service { return b.functions }

// Shell returns the shell session manager.
func (b *Bundle) Shell() *shell.Manager { return b.shell }

// Memories returns the memories service.
func (b *Bundle) Memories() *memory.Service { return b.memories }

// Close tears the bundle down: shell session first, then the qdrant
// connection and the journal, and finally the container cache.
func (b *Bundle) Close(_ context.Context) error {
	var errs []error
	if b.shell != nil {
		b.shell.Close()
	}
	if b.qdrant != nil {
		if err := b.qdrant.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close qdrant: %w", err))
		}
	}
	if b.journal != nil {
		if err := b.journal.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close journal: %w", err))
		}
	}
	b.container.Reset()
	b.log.Debug("ergon.runtime.closed")
	return stderrors.Join(errs...)
}
