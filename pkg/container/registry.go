// Copyright 2026 © The Ergon Authors
// SPDX-License-Identifier: Apache-2.0

package container

import (
	"fmt"
	"sort"
	"sync"

	"github.com/jllopis/ergon/pkg/errors"
)

// Kind names a provider capability slot.
type Kind string

const (
	// KindLLM groups chat and embedding providers.
	KindLLM Kind = "llm"
	// KindVector groups vector store providers.
	KindVector Kind = "vector"
)

// Registry holds named providers grouped by capability. It is safe for
// concurrent use.
type Registry struct {
	mu        sync.RWMutex
	providers map[Kind]map[string]any
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[Kind]map[string]any)}
}

// Register adds provider under (kind, name). Registering the same pair twice
// is an error; swap providers by building a new registry instead.
func (r *Registry) Register(kind Kind, name string, provider any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	byName, ok := r.providers[kind]
	if !ok {
		byName = make(map[string]any)
		r.providers[kind] = byName
	}
	if _, exists := byName[name]; exists {
		return errors.New(errors.CodeInvalidInput,
			fmt.Sprintf("provider already registered: %s/%s", kind, name))
	}
	byName[name] = provider
	return nil
}

// Get returns the provider registered under (kind, name).
func (r *Registry) Get(kind Kind, name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[kind][name]
	return p, ok
}

// Has reports whether (kind, name) is registered.
func (r *Registry) Has(kind Kind, name string) bool {
	_, ok := r.Get(kind, name)
	return ok
}

// List returns the sorted provider names registered under kind.
func (r *Registry) List(kind Kind) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers[kind]))
	for name := range r.providers[kind] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
