package rag

import (
	"context"
	"time"

	"github.com/dmendez/archivista/internal/cache"
	"github.com/dmendez/archivista/internal/config"
	"github.com/dmendez/archivista/internal/domain/docmodel"
	"github.com/dmendez/archivista/internal/metrics"
	"github.com/dmendez/archivista/internal/rag/llm"
	"github.com/dmendez/archivista/pkg/logger_i"
)

// Service is what the handlers call; they don't need to know the
// embedder, the index or the LLM behind it.
type Service interface {
	Answer(ctx context.Context, query string, k int) (string, []docmodel.RetrievedPassage, error)
	Fragments() int
}

type service struct {
	retriever *Retriever
	provider  llm.Provider
	answers   *cache.AnswerCache // nil means caching disabled
	persona   string
	logger    *logger_i.Logger
}

func NewService(retriever *Retriever, provider llm.Provider, answers *cache.AnswerCache, persona string) Service {
	return &service{
		retriever: retriever,
		provider:  provider,
		answers:   answers,
		persona:   persona,
		logger:    logger_i.NewLogger("RAG Service"),
	}
}

func (s *service) Fragments() int {
	return s.retriever.Fragments()
}

// Answer runs the query path: cache lookup, retrieval, prompt assembly,
// generation. Zero retrieved passages is a degraded state, not an error:
// the caller still gets a (ungrounded) generated answer.
func (s *service) Answer(ctx context.Context, query string, k int) (string, []docmodel.RetrievedPassage, error) {
	start := time.Now()

	// Resolve the default once so "k omitted" and "k = default" share a
	// cache entry.
	if k <= 0 {
		k = config.DefaultTopK
	}

	cacheStart := time.Now()
	cached, found := s.answers.Get(ctx, query, k)
	metrics.CaptureExecutionMetrics("cache_lookup", time.Since(cacheStart))
	if found {
		s.logger.Debug("cache hit")
		metrics.CaptureRequestMetrics("cached", time.Since(start))
		return cached.Answer, cached.Sources, nil
	}

	passages, err := s.retriever.Retrieve(ctx, query, k)
	if err != nil {
		metrics.CaptureRequestMetrics("error", time.Since(start))
		return "", nil, err
	}
	if len(passages) == 0 {
		s.logger.Warn("no passages retrieved, answering ungrounded")
	}

	messages := BuildPrompt(s.persona, query, passages)

	llmStart := time.Now()
	answer, err := s.provider.Complete(ctx, messages)
	metrics.CaptureExecutionMetrics("llm_generation", time.Since(llmStart))
	if err != nil {
		metrics.CaptureRequestMetrics("error", time.Since(start))
		return "", nil, err
	}

	go func() {
		saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.answers.Put(saveCtx, query, k, &cache.CachedAnswer{Answer: answer, Sources: passages}); err != nil {
			s.logger.Warn("failed to save answer to cache", "error", err)
		}
	}()

	metrics.CaptureRequestMetrics("ok", time.Since(start))
	return answer, passages, nil
}
