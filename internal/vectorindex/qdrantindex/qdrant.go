package qdrantindex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/dmendez/archivista/internal/config"
	"github.com/dmendez/archivista/pkg/logger_i"
)

// Index stores vectors in a Qdrant collection. Point IDs are the metadata
// positions, and each payload carries the position and a chunk id
// explicitly, so the retrieval mapping does not rest on insertion order
// alone.
//
// Ingestion handles (NewStaging) write into a fresh uniquely named
// collection and publish it under the serving name only on Save, via an
// alias flip; a run that aborts never disturbs the collection being
// served, and a completed run replaces it wholesale. Read handles (New)
// query by the serving name and never create anything.
type Index struct {
	client     *qdrant.Client
	collection string
	alias      string // empty on read handles
	dim        uint64
	count      uint64
	logger     *logger_i.Logger
}

// New opens a read/query handle on whatever collection the last ingest
// run published under name. An archive that was never ingested surfaces
// as a Load error, not as a silently created empty collection.
func New(ctx context.Context, host string, port int, name string, dim int) (*Index, error) {
	client, err := connect(host, port)
	if err != nil {
		return nil, err
	}
	return &Index{
		client:     client,
		collection: name,
		dim:        uint64(dim),
		logger:     logger_i.NewLogger("Qdrant Index"),
	}, nil
}

// NewStaging opens an ingestion handle: a fresh collection named after
// the serving name plus a timestamp, created empty. Save promotes it.
func NewStaging(ctx context.Context, host string, port int, name string, dim int) (*Index, error) {
	client, err := connect(host, port)
	if err != nil {
		return nil, err
	}
	x := &Index{
		client:     client,
		collection: stagingName(name, time.Now()),
		alias:      name,
		dim:        uint64(dim),
		logger:     logger_i.NewLogger("Qdrant Index"),
	}
	if err := x.createCollection(ctx, x.collection); err != nil {
		return nil, fmt.Errorf("creating staging collection %q: %w", x.collection, err)
	}
	return x, nil
}

func connect(host string, port int) (*qdrant.Client, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     port,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}
	return client, nil
}

func stagingName(base string, now time.Time) string {
	return fmt.Sprintf("%s-%d", base, now.UTC().UnixNano())
}

func (x *Index) createCollection(ctx context.Context, name string) error {
	if name == "" {
		return errors.New("empty collection name")
	}
	return x.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size: x.dim,
			// Vectors are L2-normalized before insertion, so dot product
			// is cosine similarity.
			Distance: qdrant.Distance_Dot,
		}),
	})
}

func (x *Index) Add(ctx context.Context, vectors [][]float32) error {
	points := make([]*qdrant.PointStruct, len(vectors))
	for i, v := range vectors {
		position := x.count + uint64(i)
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(position),
			Vectors: qdrant.NewVectors(v...),
			Payload: qdrant.NewValueMap(map[string]any{
				"position": int64(position),
				"chunk_id": uuid.New().String(),
			}),
		}
	}

	_, err := x.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: x.collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	x.count += uint64(len(vectors))
	return nil
}

func (x *Index) Search(ctx context.Context, query []float32, k int) ([]float32, []int, error) {
	if x.count == 0 || k <= 0 {
		return nil, nil, nil
	}
	result, err := x.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: x.collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("qdrant query failed: %w", err)
	}

	scores := make([]float32, 0, len(result))
	positions := make([]int, 0, len(result))
	for _, hit := range result {
		position := int(-1)
		if p, ok := hit.Payload["position"]; ok {
			position = int(p.GetIntegerValue())
		}
		positions = append(positions, position)
		scores = append(scores, hit.Score)
	}
	return scores, positions, nil
}

func (x *Index) Len() int {
	return int(x.count)
}

// promotion is the cleanup an alias flip needs before it can publish a
// staging collection under the serving name.
type promotion struct {
	dropBare bool   // a plain collection occupies the serving name
	previous string // collection currently published under the alias
}

func planPromotion(aliases []*qdrant.AliasDescription, alias string, bareExists bool) promotion {
	p := promotion{dropBare: bareExists}
	for _, a := range aliases {
		if a.GetAliasName() == alias {
			p.previous = a.GetCollectionName()
		}
	}
	return p
}

// Save publishes the staging collection under the serving name and drops
// whatever was published before, so every completed ingest run replaces
// the served artifact wholesale. On a read handle the server already
// owns durability and Save is a no-op.
func (x *Index) Save(ctx context.Context, path string) error {
	if x.alias == "" {
		return nil
	}

	bare, err := x.client.CollectionExists(ctx, x.alias)
	if err != nil {
		return fmt.Errorf("checking collection %q: %w", x.alias, err)
	}
	aliases, err := x.client.ListAliases(ctx)
	if err != nil {
		return fmt.Errorf("listing aliases: %w", err)
	}
	plan := planPromotion(aliases, x.alias, bare)

	if plan.dropBare {
		if err := x.client.DeleteCollection(ctx, x.alias); err != nil {
			return fmt.Errorf("dropping collection %q: %w", x.alias, err)
		}
	}
	if plan.previous != "" {
		if err := x.client.DeleteAlias(ctx, x.alias); err != nil {
			return fmt.Errorf("dropping alias %q: %w", x.alias, err)
		}
	}
	if err := x.client.CreateAlias(ctx, x.alias, x.collection); err != nil {
		return fmt.Errorf("publishing %q as %q: %w", x.collection, x.alias, err)
	}
	if plan.previous != "" && plan.previous != x.collection {
		if err := x.client.DeleteCollection(ctx, plan.previous); err != nil {
			// The new collection is already serving; the stale one is
			// only garbage.
			x.logger.Warn("could not drop replaced collection", "collection", plan.previous, "error", err)
		}
	}
	x.logger.Info("collection published", "collection", x.collection, "as", x.alias, "points", x.count)
	return nil
}

func (x *Index) Load(ctx context.Context, path string) error {
	count, err := x.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: x.collection,
	})
	if err != nil {
		return fmt.Errorf("counting collection points: %w", err)
	}
	x.count = count
	return nil
}

func (x *Index) Close() error {
	return x.client.Close()
}
