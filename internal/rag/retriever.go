package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/dmendez/archivista/internal/config"
	"github.com/dmendez/archivista/internal/domain/docmodel"
	"github.com/dmendez/archivista/internal/metrics"
	"github.com/dmendez/archivista/internal/rag/embedding"
	"github.com/dmendez/archivista/internal/vectorindex"
	"github.com/dmendez/archivista/pkg/logger_i"
)

// Retriever maps a query to ranked passages: embed, normalize, search,
// and resolve index positions back to chunk records.
type Retriever struct {
	embedder embedding.Embedder
	index    vectorindex.Index
	records  []docmodel.ChunkRecord
	logger   *logger_i.Logger
}

// NewRetriever takes the loaded artifacts; a nil index or empty record
// list produces a degraded retriever that returns no passages.
func NewRetriever(embedder embedding.Embedder, index vectorindex.Index, records []docmodel.ChunkRecord) *Retriever {
	return &Retriever{
		embedder: embedder,
		index:    index,
		records:  records,
		logger:   logger_i.NewLogger("Retriever"),
	}
}

func (r *Retriever) Fragments() int {
	return len(r.records)
}

func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]docmodel.RetrievedPassage, error) {
	if r.index == nil || len(r.records) == 0 {
		return nil, nil
	}
	if k <= 0 {
		k = config.DefaultTopK
	}
	if k > len(r.records) {
		k = len(r.records)
	}

	start := time.Now()
	vector, err := r.embedder.GetEmbedding(ctx, query)
	metrics.CaptureExecutionMetrics("embedding", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	vectorindex.Normalize(vector)

	start = time.Now()
	scores, positions, err := r.index.Search(ctx, vector, k)
	metrics.CaptureExecutionMetrics("vector_search", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	passages := make([]docmodel.RetrievedPassage, 0, len(positions))
	for i, pos := range positions {
		if pos < 0 || pos >= len(r.records) {
			// "not found" sentinel from the index
			continue
		}
		passages = append(passages, docmodel.RetrievedPassage{
			ChunkRecord: r.records[pos],
			Score:       scores[i],
		})
	}
	r.logger.Debug("retrieved passages", "query_len", len(query), "k", k, "hits", len(passages))
	return passages, nil
}
