package store

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmendez/archivista/internal/domain/docmodel"
)

// Manifest is the persisted metadata artifact: the ordered chunk records
// plus the embedding configuration that produced the sibling vector
// index. Record i describes the vector at index slot i. The embedding
// model field lets the serve path refuse an index built with a different
// model than the one it would query with.
type Manifest struct {
	EmbeddingModel string                 `json:"embedding_model"`
	EmbeddingDim   int                    `json:"embedding_dim"`
	CreatedAt      time.Time              `json:"created_at"`
	Records        []docmodel.ChunkRecord `json:"records"`
}

// Save writes the manifest wholesale: temp file, then rename, so readers
// never observe a partial artifact.
func Save(path string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}
	return os.Rename(tmp, path)
}

func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading metadata: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding metadata: %w", err)
	}
	return &m, nil
}
