package container

import (
	"reflect"
	"testing"
)

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(KindLLM, "ollama", "provider-a"); err != nil {
		t.Fatalf("register: %v", err)
	}

	p, ok := r.Get(KindLLM, "ollama")
	if !ok {
		t.Fatal("provider not found after register")
	}
	if p != "provider-a" {
		t.Fatalf("got %v", p)
	}

	if _, ok := r.Get(KindLLM, "openai"); ok {
		t.Fatal("unexpected hit for unregistered name")
	}
	if _, ok := r.Get(KindVector, "ollama"); ok {
		t.Fatal("name must not leak across kinds")
	}
}

func TestRegistryDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(KindVector, "qdrant", 1); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(KindVector, "qdrant", 2); err == nil {
		t.Fatal("expected duplicate registration error")
	}
	// Same name under another kind is a distinct slot.
	if err := r.Register(KindLLM, "qdrant", 3); err != nil {
		t.Fatalf("register under other kind: %v", err)
	}
}

func TestRegistryList(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"openai", "mock", "ollama"} {
		if err := r.Register(KindLLM, name, name); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	got := r.List(KindLLM)
	want := []string{"mock", "ollama", "openai"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("list = %v, want %v", got, want)
	}

	if got := r.List(KindVector); len(got) != 0 {
		t.Fatalf("empty kind list = %v", got)
	}
}

func TestRegistryHas(t *testing.T) {
	r := NewRegistry()
	if r.Has(KindLLM, "mock") {
		t.Fatal("has on empty registry")
	}
	if err := r.Register(KindLLM, "mock", struct{}{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if !r.Has(KindLLM, "mock") {
		t.Fatal("has after register")
	}
}
