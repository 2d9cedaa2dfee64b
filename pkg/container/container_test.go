// Copyright 2026 © The Ergon Authors
// SPDX-License-Identifier: Apache-2.0

package container

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jllopis/ergon/pkg/errors"
)

func TestResolveCachesSingleton(t *testing.T) {
	c := New()
	var calls atomic.Int32
	c.Register("svc", func(ctx context.Context) (any, error) {
		calls.Add(1)
		return &struct{ n int }{n: 42}, nil
	})

	first, err := c.Resolve(context.Background(), "svc")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	second, err := c.Resolve(context.Background(), "svc")
	if err != nil {
		t.Fatalf("resolve again: %v", err)
	}
	if first != second {
		t.Fatal("expected cached instance on second resolve")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("factory calls = %d, want 1", got)
	}
}

func TestResolveUnregistered(t *testing.T) {
	c := New()
	_, err := c.Resolve(context.Background(), "missing-service")
	if err == nil {
		t.Fatal("expected error for unregistered token")
	}
	if !errors.HasCode(err, errors.CodeNotFound) {
		t.Fatalf("code = %v, want %v", errors.CodeOf(err), errors.CodeNotFound)
	}
	if !strings.Contains(err.Error(), "missing-service") {
		t.Fatalf("error %q does not name the token", err)
	}
}

func TestTransientReinvokesFactory(t *testing.T) {
	c := New()
	var calls atomic.Int32
	c.Register("clock", func(ctx context.Context) (any, error) {
		return calls.Add(1), nil
	}, Transient())

	for want := int32(1); want <= 3; want++ {
		v, err := c.Resolve(context.Background(), "clock")
		if err != nil {
			t.Fatalf("resolve %d: %v", want, err)
		}
		if v.(int32) != want {
			t.Fatalf("resolve %d returned %v", want, v)
		}
	}
}

func TestConcurrentResolveSingleFlight(t *testing.T) {
	c := New()
	var calls atomic.Int32
	release := make(chan struct{})
	c.Register("slow", func(ctx context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "ready", nil
	})

	const n = 16
	results := make([]any, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Resolve(context.Background(), "slow")
			if err != nil {
				t.Errorf("resolve: %v", err)
				return
			}
			results[i] = v
		}(i)
	}
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("factory calls = %d, want 1", got)
	}
	for i, v := range results {
		if v != "ready" {
			t.Fatalf("results[%d] = %v", i, v)
		}
	}
}

func TestFailedFactoryIsNotCached(t *testing.T) {
	c := New()
	var calls atomic.Int32
	c.Register("flaky", func(ctx context.Context) (any, error) {
		if calls.Add(1) == 1 {
			return nil, fmt.Errorf("cold start")
		}
		return "warm", nil
	})

	if _, err := c.Resolve(context.Background(), "flaky"); err == nil {
		t.Fatal("expected first resolve to fail")
	}
	v, err := c.Resolve(context.Background(), "flaky")
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if v != "warm" {
		t.Fatalf("second resolve = %v, want warm", v)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("factory calls = %d, want 2", got)
	}
}

func TestRegisterReplacesAndDropsCache(t *testing.T) {
	c := New()
	c.Register("svc", func(ctx context.Context) (any, error) { return "old", nil })
	if _, err := c.Resolve(context.Background(), "svc"); err != nil {
		t.Fatalf("resolve old: %v", err)
	}

	c.Register("svc", func(ctx context.Context) (any, error) { return "new", nil })
	v, err := c.Resolve(context.Background(), "svc")
	if err != nil {
		t.Fatalf("resolve new: %v", err)
	}
	if v != "new" {
		t.Fatalf("resolve after re-register = %v, want new", v)
	}
}

func TestResetKeepsRegistrations(t *testing.T) {
	c := New()
	var calls atomic.Int32
	c.Register("svc", func(ctx context.Context) (any, error) {
		return calls.Add(1), nil
	})

	if _, err := c.Resolve(context.Background(), "svc"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	c.Reset()
	if !c.Has("svc") {
		t.Fatal("registration lost on reset")
	}
	v, err := c.Resolve(context.Background(), "svc")
	if err != nil {
		t.Fatalf("resolve after reset: %v", err)
	}
	if v.(int32) != 2 {
		t.Fatalf("resolve after reset = %v, want fresh instance", v)
	}
}

func TestResolveAs(t *testing.T) {
	c := New()
	c.Register("name", func(ctx context.Context) (any, error) { return "ergon", nil })

	s, err := ResolveAs[string](context.Background(), c, "name")
	if err != nil {
		t.Fatalf("resolve as string: %v", err)
	}
	if s != "ergon" {
		t.Fatalf("got %q", s)
	}

	if _, err := ResolveAs[int](context.Background(), c, "name"); err == nil {
		t.Fatal("expected type mismatch error")
	}
}
