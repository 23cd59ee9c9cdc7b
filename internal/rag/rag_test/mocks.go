package rag_test

import (
	"context"

	"github.com/dmendez/archivista/internal/rag/llm"
)

// MockEmbedder implements embedding.Embedder
type MockEmbedder struct {
	OnGetEmbedding   func(ctx context.Context, query string) ([]float32, error)
	OnBatchEmbedding func(ctx context.Context, texts []string) ([][]float32, error)
	ModelName        string
}

func (m *MockEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	if m.OnGetEmbedding != nil {
		return m.OnGetEmbedding(ctx, query)
	}
	return []float32{1, 0}, nil
}

func (m *MockEmbedder) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if m.OnBatchEmbedding != nil {
		return m.OnBatchEmbedding(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (m *MockEmbedder) Model() string {
	if m.ModelName != "" {
		return m.ModelName
	}
	return "mock-embedding"
}

// MockIndex implements vectorindex.Index
type MockIndex struct {
	OnAdd    func(ctx context.Context, vectors [][]float32) error
	OnSearch func(ctx context.Context, query []float32, k int) ([]float32, []int, error)
	Count    int
}

func (m *MockIndex) Add(ctx context.Context, vectors [][]float32) error {
	if m.OnAdd != nil {
		return m.OnAdd(ctx, vectors)
	}
	m.Count += len(vectors)
	return nil
}

func (m *MockIndex) Search(ctx context.Context, query []float32, k int) ([]float32, []int, error) {
	if m.OnSearch != nil {
		return m.OnSearch(ctx, query, k)
	}
	return nil, nil, nil
}

func (m *MockIndex) Len() int { return m.Count }

func (m *MockIndex) Save(ctx context.Context, path string) error { return nil }

func (m *MockIndex) Load(ctx context.Context, path string) error { return nil }

// MockLLM implements llm.Provider
type MockLLM struct {
	OnComplete func(ctx context.Context, messages []llm.Message) (string, error)
}

func (m *MockLLM) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	if m.OnComplete != nil {
		return m.OnComplete(ctx, messages)
	}
	return "mocked llm response", nil
}
