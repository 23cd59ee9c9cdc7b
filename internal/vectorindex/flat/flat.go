package flat

import (
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"sort"
	"sync"
)

// Index is an exact brute-force inner-product index over pre-normalized
// vectors, persisted to a single file. It is the default backend: small
// corpora don't need an ANN server.
type Index struct {
	mu      sync.RWMutex
	dim     int
	vectors [][]float32
}

type persisted struct {
	Dim     int
	Vectors [][]float32
}

// New creates an empty index. A zero dim is adopted from the first batch
// added.
func New(dim int) *Index {
	return &Index{dim: dim}
}

func (x *Index) Add(ctx context.Context, vectors [][]float32) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, v := range vectors {
		if x.dim == 0 {
			x.dim = len(v)
		}
		if len(v) != x.dim {
			return fmt.Errorf("vector dimension %d does not match index dimension %d", len(v), x.dim)
		}
	}
	x.vectors = append(x.vectors, vectors...)
	return nil
}

func (x *Index) Search(ctx context.Context, query []float32, k int) ([]float32, []int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if len(x.vectors) == 0 || k <= 0 {
		return nil, nil, nil
	}
	if len(query) != x.dim {
		return nil, nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(query), x.dim)
	}
	if k > len(x.vectors) {
		k = len(x.vectors)
	}

	scores := make([]float32, len(x.vectors))
	for i, v := range x.vectors {
		scores[i] = dot(v, query)
	}
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })

	outScores := make([]float32, k)
	outPositions := make([]int, k)
	for i := 0; i < k; i++ {
		outPositions[i] = order[i]
		outScores[i] = scores[order[i]]
	}
	return outScores, outPositions, nil
}

func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.vectors)
}

// Save writes the whole index atomically: temp file, then rename.
func (x *Index) Save(ctx context.Context, path string) error {
	x.mu.RLock()
	defer x.mu.RUnlock()

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating index file: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(persisted{Dim: x.dim, Vectors: x.vectors}); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encoding index: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func (x *Index) Load(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening index file: %w", err)
	}
	defer f.Close()

	var p persisted
	if err := gob.NewDecoder(f).Decode(&p); err != nil {
		return fmt.Errorf("decoding index: %w", err)
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	x.dim = p.Dim
	x.vectors = p.Vectors
	return nil
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
