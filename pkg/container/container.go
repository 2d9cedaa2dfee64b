// Copyright 2026 © The Ergon Authors
// SPDX-License-Identifier: Apache-2.0

// Package container provides the dependency-wiring substrate of the runtime:
// a lazy-singleton service container and a (capability, name) provider
// registry.
package container

import (
	"context"
	"fmt"
	"sync"

	"github.com/jllopis/ergon/pkg/errors"
)

// Factory builds a service instance on first resolve.
type Factory func(ctx context.Context) (any, error)

// Option configures a registration.
type Option func(*registration)

// Transient marks a registration as non-cached: the factory runs on every
// resolve and the result is never stored.
func Transient() Option {
	return func(r *registration) {
		r.transient = true
	}
}

type registration struct {
	factory   Factory
	transient bool
}

type resolveCall struct {
	done chan struct{}
	val  any
	err  error
}

// Container is a token-addressed service registry with lazy singleton
// resolution. First resolution of a token is single-flight: concurrent
// resolvers share one factory invocation. A failed factory is not cached;
// the next resolve retries it.
type Container struct {
	mu            sync.Mutex
	registrations map[string]registration
	instances     map[string]any
	resolving     map[string]*resolveCall
}

// New creates an empty container.
func New() *Container {
	return &Container{
		registrations: make(map[string]registration),
		instances:     make(map[string]any),
		resolving:     make(map[string]*resolveCall),
	}
}

// Register stores a factory under token, replacing any previous registration
// and dropping a previously cached instance for the token.
func (c *Container) Register(token string, factory Factory, opts ...Option) {
	reg := registration{factory: factory}
	for _, opt := range opts {
		opt(&reg)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registrations[token] = reg
	delete(c.instances, token)
}

// Has reports whether token is registered.
func (c *Container) Has(token string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.registrations[token]
	return ok
}

// Resolve returns the instance for token, invoking its factory on first use
// and caching the result unless the registration is transient. Resolving an
// unregistered token fails with a not-registered error naming the token.
func (c *Container) Resolve(ctx context.Context, token string) (any, error) {
	c.mu.Lock()
	reg, ok := c.registrations[token]
	if !ok {
		c.mu.Unlock()
		return nil, errors.New(errors.CodeNotFound,
			fmt.Sprintf("service not registered: %s", token))
	}

	if reg.transient {
		c.mu.Unlock()
		return reg.factory(ctx)
	}

	if v, ok := c.instances[token]; ok {
		c.mu.Unlock()
		return v, nil
	}

	if call, inflight := c.resolving[token]; inflight {
		c.mu.Unlock()
		select {
		case <-call.done:
			return call.val, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	call := &resolveCall{done: make(chan struct{})}
	c.resolving[token] = call
	c.mu.Unlock()

	val, err := reg.factory(ctx)

	c.mu.Lock()
	if err == nil {
		c.instances[token] = val
	}
	delete(c.resolving, token)
	c.mu.Unlock()

	call.val, call.err = val, err
	close(call.done)
	return val, err
}

// Reset drops all cached instances while keeping registrations. Intended as
// the teardown hook for tests and bundle shutdown.
func (c *Container) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.instances = make(map[string]any)
}

// ResolveAs resolves token and asserts the instance to T.
func ResolveAs[T any](ctx context.Context, c *Container, token string) (T, error) {
	var zero T
	v, err := c.Resolve(ctx, token)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, errors.New(errors.CodeInternal,
			fmt.Sprintf("service %s has type %T, not %T", token, v, zero))
	}
	return typed, nil
}
