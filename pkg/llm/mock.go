package llm

import (
	"context"
	"hash/fnv"
)

// Mock is a testing Provider with injectable behavior. Zero-value defaults:
// Init succeeds, Chat echoes a canned reply, and Embed returns a
// deterministic vector derived from the text so equal inputs always embed
// identically.
type Mock struct {
	InitErr   error
	ChatFunc  func(ctx context.Context, messages []Message) (*ChatResponse, error)
	EmbedFunc func(ctx context.Context, text string) ([]float32, error)
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Init(ctx context.Context) error { return m.InitErr }

func (m *Mock) Chat(ctx context.Context, messages []Message) (*ChatResponse, error) {
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, messages)
	}
	return &ChatResponse{Role: RoleAssistant, Content: "mock response"}, nil
}

func (m *Mock) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, text)
	}
	return hashVector(text), nil
}

func (m *Mock) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vecs[i] = vec
	}
	return vecs, nil
}

// hashVector spreads an FNV-1a digest over a small fixed-size vector.
func hashVector(text string) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	sum := h.Sum64()

	vec := make([]float32, 8)
	for i := range vec {
		vec[i] = float32(byte(sum>>(8*i)))/255.0 - 0.5
	}
	return vec
}

var _ Provider = (*Mock)(nil)
