package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/dmendez/archivista/internal/domain/docmodel"
)

func testCache(t *testing.T) *AnswerCache {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func TestPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := testCache(t)

	in := &CachedAnswer{
		Answer: "La rendición se firmó en 1492.",
		Sources: []docmodel.RetrievedPassage{
			{
				ChunkRecord: docmodel.ChunkRecord{Text: "capitulación", Filename: "granada.pdf", Page: 3},
				Score:       0.91,
			},
		},
	}
	if err := c.Put(ctx, "¿cuándo se rindió Granada?", 5, in); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok := c.Get(ctx, "¿cuándo se rindió Granada?", 5)
	if !ok {
		t.Fatal("expected a cache hit")
	}
	if got.Answer != in.Answer || len(got.Sources) != 1 || got.Sources[0].Filename != "granada.pdf" {
		t.Errorf("cached answer changed in round trip: %+v", got)
	}
}

func TestGetMissAndKeyScoping(t *testing.T) {
	ctx := context.Background()
	c := testCache(t)

	if _, ok := c.Get(ctx, "nunca preguntado", 5); ok {
		t.Error("expected a miss for an unknown query")
	}

	if err := c.Put(ctx, "misma pregunta", 5, &CachedAnswer{Answer: "a"}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	// A different k is a different result set, so it must miss.
	if _, ok := c.Get(ctx, "misma pregunta", 3); ok {
		t.Error("expected a miss for a different k")
	}
}

func TestNilCacheIsDisabled(t *testing.T) {
	ctx := context.Background()
	var c *AnswerCache

	if _, ok := c.Get(ctx, "q", 5); ok {
		t.Error("nil cache returned a hit")
	}
	if err := c.Put(ctx, "q", 5, &CachedAnswer{Answer: "a"}); err != nil {
		t.Errorf("nil cache Put errored: %v", err)
	}
}
