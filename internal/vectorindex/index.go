package vectorindex

import (
	"context"
	"math"
)

// Index is the ANN-search collaborator: it stores pre-normalized float32
// vectors and answers inner-product nearest-neighbor queries. Slot i of
// the index corresponds to record i of the metadata artifact; a position
// below zero in a search result is a "not found" sentinel the caller
// must skip.
type Index interface {
	Add(ctx context.Context, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) (scores []float32, positions []int, err error)
	Len() int
	Save(ctx context.Context, path string) error
	Load(ctx context.Context, path string) error
}

// Normalize scales v to unit L2 norm in place, so that inner-product
// similarity equals cosine similarity. Zero vectors are left untouched.
func Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
}

func NormalizeAll(vs [][]float32) {
	for _, v := range vs {
		Normalize(v)
	}
}
