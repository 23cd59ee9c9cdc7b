package embedding

import "context"

// Embedder is the embedding-service collaborator. The same implementation
// (and model) must serve ingestion and querying; the manifest records the
// model name so the serve path can verify that.
type Embedder interface {
	GetEmbedding(ctx context.Context, query string) ([]float32, error)
	BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}
