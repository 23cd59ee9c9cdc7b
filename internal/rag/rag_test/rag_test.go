package rag_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/dmendez/archivista/internal/cache"
	"github.com/dmendez/archivista/internal/config"
	"github.com/dmendez/archivista/internal/domain/docmodel"
	"github.com/dmendez/archivista/internal/rag"
	"github.com/dmendez/archivista/internal/rag/llm"
)

func sampleRecords() []docmodel.ChunkRecord {
	return []docmodel.ChunkRecord{
		{Text: "La guerra terminó en Granada.", Filename: "granada.pdf", Page: 1},
		{Text: "El tratado fijó las condiciones.", Filename: "tratado.pdf", Page: 2},
		{Text: "La corte viajó durante meses.", Filename: "cronica.docx", Page: 1},
	}
}

func TestRetrieveMapsPositionsToRecords(t *testing.T) {
	index := &MockIndex{
		Count: 3,
		OnSearch: func(ctx context.Context, query []float32, k int) ([]float32, []int, error) {
			return []float32{0.9, 0.4}, []int{1, 0}, nil
		},
	}
	r := rag.NewRetriever(&MockEmbedder{}, index, sampleRecords())

	passages, err := r.Retrieve(context.Background(), "¿qué fijó el tratado?", 2)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(passages) != 2 {
		t.Fatalf("got %d passages; want 2", len(passages))
	}
	if passages[0].Filename != "tratado.pdf" || passages[0].Score != 0.9 {
		t.Errorf("position 1 mapped wrong: %+v", passages[0])
	}
	if passages[1].Filename != "granada.pdf" {
		t.Errorf("position 0 mapped wrong: %+v", passages[1])
	}
}

func TestRetrieveSkipsSentinelPositions(t *testing.T) {
	index := &MockIndex{
		Count: 3,
		OnSearch: func(ctx context.Context, query []float32, k int) ([]float32, []int, error) {
			return []float32{0.9, 0.1}, []int{2, -1}, nil
		},
	}
	r := rag.NewRetriever(&MockEmbedder{}, index, sampleRecords())

	passages, err := r.Retrieve(context.Background(), "q", 2)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(passages) != 1 || passages[0].Filename != "cronica.docx" {
		t.Errorf("sentinel not skipped: %+v", passages)
	}
}

func TestRetrieveCapsKAtCorpusSize(t *testing.T) {
	var askedK int
	index := &MockIndex{
		Count: 3,
		OnSearch: func(ctx context.Context, query []float32, k int) ([]float32, []int, error) {
			askedK = k
			return []float32{1, 1, 1}, []int{0, 1, 2}, nil
		},
	}
	r := rag.NewRetriever(&MockEmbedder{}, index, sampleRecords())

	passages, err := r.Retrieve(context.Background(), "q", 50)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if askedK != 3 {
		t.Errorf("index was asked for k=%d; want 3", askedK)
	}
	if len(passages) != 3 {
		t.Errorf("got %d passages; want 3", len(passages))
	}
}

func TestRetrieveEmptyIndexReturnsNothing(t *testing.T) {
	r := rag.NewRetriever(&MockEmbedder{}, nil, nil)

	passages, err := r.Retrieve(context.Background(), "q", 5)
	if err != nil {
		t.Fatalf("Retrieve on empty state errored: %v", err)
	}
	if len(passages) != 0 {
		t.Errorf("expected no passages, got %d", len(passages))
	}
}

func TestRetrieveEmbeddingErrorPropagates(t *testing.T) {
	emb := &MockEmbedder{
		OnGetEmbedding: func(ctx context.Context, query string) ([]float32, error) {
			return nil, errors.New("service down")
		},
	}
	r := rag.NewRetriever(emb, &MockIndex{Count: 3}, sampleRecords())

	if _, err := r.Retrieve(context.Background(), "q", 5); err == nil {
		t.Error("expected an error from a failing embedder")
	}
}

func TestBuildPromptDeterministicAndLabeled(t *testing.T) {
	passages := []docmodel.RetrievedPassage{
		{ChunkRecord: docmodel.ChunkRecord{Text: "texto uno", Filename: "a.pdf", Page: 3}, Score: 0.8},
		{ChunkRecord: docmodel.ChunkRecord{Text: "texto dos", Filename: "b.docx", Page: 1}, Score: 0.5},
	}

	first := rag.BuildPrompt("persona", "¿qué pasó?", passages)
	second := rag.BuildPrompt("persona", "¿qué pasó?", passages)

	if len(first) != 2 || first[0].Role != llm.RoleSystem || first[1].Role != llm.RoleUser {
		t.Fatalf("unexpected message shape: %+v", first)
	}
	if first[0].Content != "persona" {
		t.Errorf("system message is not the persona: %q", first[0].Content)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("prompt assembly is not deterministic at message %d", i)
		}
	}

	user := first[1].Content
	for _, want := range []string{"¿qué pasó?", "[a.pdf · p.3]", "texto uno", "[b.docx · p.1]", "texto dos", "Sources"} {
		if !strings.Contains(user, want) {
			t.Errorf("user message missing %q:\n%s", want, user)
		}
	}
}

func TestAnswerHappyPath(t *testing.T) {
	index := &MockIndex{
		Count: 3,
		OnSearch: func(ctx context.Context, query []float32, k int) ([]float32, []int, error) {
			return []float32{0.9}, []int{0}, nil
		},
	}
	var seenMessages []llm.Message
	provider := &MockLLM{
		OnComplete: func(ctx context.Context, messages []llm.Message) (string, error) {
			seenMessages = messages
			return "respuesta generada", nil
		},
	}
	svc := rag.NewService(rag.NewRetriever(&MockEmbedder{}, index, sampleRecords()), provider, nil, "persona")

	answer, sources, err := svc.Answer(context.Background(), "¿cómo terminó la guerra?", 1)
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if answer != "respuesta generada" {
		t.Errorf("unexpected answer %q", answer)
	}
	if len(sources) != 1 || sources[0].Filename != "granada.pdf" {
		t.Errorf("unexpected sources: %+v", sources)
	}
	if len(seenMessages) != 2 {
		t.Errorf("provider got %d messages; want system+user", len(seenMessages))
	}
}

func TestAnswerWithoutIndexStillAnswers(t *testing.T) {
	svc := rag.NewService(rag.NewRetriever(&MockEmbedder{}, nil, nil), &MockLLM{}, nil, "persona")

	answer, sources, err := svc.Answer(context.Background(), "pregunta", 5)
	if err != nil {
		t.Fatalf("Answer without an index errored: %v", err)
	}
	if answer == "" {
		t.Error("expected a generated answer despite empty retrieval")
	}
	if len(sources) != 0 {
		t.Errorf("expected no sources, got %d", len(sources))
	}
}

func TestAnswerLLMErrorPropagates(t *testing.T) {
	provider := &MockLLM{
		OnComplete: func(ctx context.Context, messages []llm.Message) (string, error) {
			return "", errors.New("generation failed")
		},
	}
	svc := rag.NewService(rag.NewRetriever(&MockEmbedder{}, nil, nil), provider, nil, "persona")

	if _, _, err := svc.Answer(context.Background(), "pregunta", 5); err == nil {
		t.Error("expected the generation failure to propagate")
	}
}

func TestAnswerCacheSharedBetweenOmittedAndDefaultK(t *testing.T) {
	srv := miniredis.RunT(t)
	answers := cache.NewWithClient(redis.NewClient(&redis.Options{Addr: srv.Addr()}))

	calls := 0
	provider := &MockLLM{
		OnComplete: func(ctx context.Context, messages []llm.Message) (string, error) {
			calls++
			return "respuesta", nil
		},
	}
	svc := rag.NewService(rag.NewRetriever(&MockEmbedder{}, nil, nil), provider, answers, "persona")

	if _, _, err := svc.Answer(context.Background(), "¿qué pasó en Granada?", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The cache write is asynchronous; wait for it to land.
	deadline := time.Now().Add(2 * time.Second)
	for len(srv.Keys()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if len(srv.Keys()) != 1 {
		t.Fatalf("expected one cache entry, got %d", len(srv.Keys()))
	}

	answer, _, err := svc.Answer(context.Background(), "¿qué pasó en Granada?", config.DefaultTopK)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "respuesta" {
		t.Fatalf("unexpected answer %q", answer)
	}
	if calls != 1 {
		t.Fatalf("expected the spelled-out default k to hit the cache, llm calls = %d", calls)
	}
	if len(srv.Keys()) != 1 {
		t.Fatalf("k=0 and the default k produced %d cache entries, want 1", len(srv.Keys()))
	}
}
