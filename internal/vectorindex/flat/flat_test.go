package flat

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dmendez/archivista/internal/vectorindex"
)

func TestSearchOrderAndPositionalMapping(t *testing.T) {
	ctx := context.Background()
	idx := New(0)

	// Four unit axis vectors: position p is the only vector with inner
	// product 1 against query axis p.
	vectors := [][]float32{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
	if err := idx.Add(ctx, vectors); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	for p := 0; p < len(vectors); p++ {
		query := make([]float32, 4)
		query[p] = 1
		scores, positions, err := idx.Search(ctx, query, 1)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(positions) != 1 || positions[0] != p {
			t.Errorf("query for slot %d returned positions %v", p, positions)
		}
		if scores[0] != 1 {
			t.Errorf("query for slot %d returned score %v; want 1", p, scores[0])
		}
	}
}

func TestSearchScoresNonIncreasing(t *testing.T) {
	ctx := context.Background()
	idx := New(0)
	vectors := [][]float32{
		{0.9, 0.1},
		{0.5, 0.5},
		{0.1, 0.9},
	}
	vectorindex.NormalizeAll(vectors)
	if err := idx.Add(ctx, vectors); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	query := []float32{1, 0}
	scores, _, err := idx.Search(ctx, query, 3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[i-1] {
			t.Errorf("scores not non-increasing: %v", scores)
		}
	}
}

func TestSearchKLargerThanCorpus(t *testing.T) {
	ctx := context.Background()
	idx := New(0)
	if err := idx.Add(ctx, [][]float32{{1, 0}, {0, 1}}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	_, positions, err := idx.Search(ctx, []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(positions) != 2 {
		t.Errorf("expected 2 results for k=10 over 2 vectors, got %d", len(positions))
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	idx := New(4)
	scores, positions, err := idx.Search(context.Background(), []float32{1, 0, 0, 0}, 5)
	if err != nil {
		t.Fatalf("Search on empty index errored: %v", err)
	}
	if len(scores) != 0 || len(positions) != 0 {
		t.Errorf("expected no results, got %v %v", scores, positions)
	}
}

func TestDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	idx := New(0)
	if err := idx.Add(ctx, [][]float32{{1, 0, 0}}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := idx.Add(ctx, [][]float32{{1, 0}}); err == nil {
		t.Error("expected dimension mismatch error on Add")
	}
	if _, _, err := idx.Search(ctx, []float32{1, 0}, 1); err == nil {
		t.Error("expected dimension mismatch error on Search")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.index")

	idx := New(0)
	vectors := [][]float32{{1, 0}, {0, 1}, {0.6, 0.8}}
	if err := idx.Add(ctx, vectors); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := idx.Save(ctx, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := New(0)
	if err := loaded.Load(ctx, path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Len() != 3 {
		t.Fatalf("loaded %d vectors; want 3", loaded.Len())
	}
	_, positions, err := loaded.Search(ctx, []float32{0.6, 0.8}, 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if positions[0] != 2 {
		t.Errorf("positional mapping lost in round trip: got %d, want 2", positions[0])
	}
}

func TestNormalize(t *testing.T) {
	v := []float32{3, 4}
	vectorindex.Normalize(v)
	if v[0] != 0.6 || v[1] != 0.8 {
		t.Errorf("Normalize([3 4]) = %v; want [0.6 0.8]", v)
	}

	zero := []float32{0, 0}
	vectorindex.Normalize(zero)
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("Normalize of zero vector changed it: %v", zero)
	}
}
