package googleembed

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmendez/archivista/internal/config"
	"github.com/dmendez/archivista/internal/rag/embedding"
	"github.com/dmendez/archivista/pkg/logger_i"
)

var dimension int32 = config.EmbeddingDim

type client struct {
	genAi  *genai.Client
	model  string
	logger *logger_i.Logger
}

func New(ctx context.Context, apiKey string, model string) (embedding.Embedder, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("creating google embedding client: %w", err)
	}
	return &client{
		genAi:  c,
		model:  model,
		logger: logger_i.NewLogger("Google Embedding"),
	}, nil
}

func (c *client) Model() string {
	return c.model
}

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	result, err := c.genAi.Models.EmbedContent(ctx, c.model, genai.Text(query), &genai.EmbedContentConfig{
		OutputDimensionality: &dimension,
		TaskType:             "RETRIEVAL_QUERY",
	})
	if err != nil {
		c.logger.Error("query embedding failed", "error", err)
		return nil, fmt.Errorf("google embedding: %w", err)
	}
	return result.Embeddings[0].Values, nil
}

func (c *client) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	result, err := c.doCall(ctx, getContent(texts))
	if err != nil && isRateLimited(err) {
		c.logger.Warn("rate limit hit, retrying in 5 seconds", "error", err)
		time.Sleep(5 * time.Second)
		result, err = c.doCall(ctx, getContent(texts))
	}
	if err != nil {
		c.logger.Error("batch embedding failed", "texts", len(texts), "error", err)
		return nil, fmt.Errorf("google embedding: %w", err)
	}

	vectors := make([][]float32, 0, len(result.Embeddings))
	for _, e := range result.Embeddings {
		vectors = append(vectors, e.Values)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("google embedding: got %d vectors for %d inputs", len(vectors), len(texts))
	}
	return vectors, nil
}

func (c *client) doCall(ctx context.Context, content []*genai.Content) (*genai.EmbedContentResponse, error) {
	return c.genAi.Models.EmbedContent(ctx, c.model, content, &genai.EmbedContentConfig{
		OutputDimensionality: &dimension,
		TaskType:             "RETRIEVAL_DOCUMENT",
	})
}

func getContent(texts []string) []*genai.Content {
	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, &genai.Content{
			Parts: []*genai.Part{{Text: t}},
		})
	}
	return contents
}

func isRateLimited(err error) bool {
	if s, ok := status.FromError(err); ok {
		return s.Code() == codes.ResourceExhausted
	}
	return false
}
